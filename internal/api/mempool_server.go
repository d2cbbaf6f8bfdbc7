// internal/api/mempool_server.go
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stathera/txadmission/internal/mempool"
	"github.com/stathera/txadmission/internal/security"
	"github.com/stathera/txadmission/internal/transaction"
	"github.com/stathera/txadmission/pkg/config"
	apperrors "github.com/stathera/txadmission/pkg/errors"
	"github.com/stathera/txadmission/pkg/health"
	"github.com/stathera/txadmission/pkg/logging"
	"github.com/stathera/txadmission/pkg/metrics"
)

// Response is the envelope every mempool API endpoint renders its JSON
// body in.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// MempoolServer exposes the admission processor's ticket submission
// and polling operations over HTTP, reusing the same security
// middleware stack as the rest of the API surface.
type MempoolServer struct {
	config    *config.Config
	router    *chi.Mux
	processor *mempool.Processor
	server    *http.Server
	logger    *logging.Logger
	metrics   *metrics.Metrics
	health    *health.Registry
}

// NewMempoolServer wires a MempoolServer around an already-constructed
// Processor.
func NewMempoolServer(cfg *config.Config, processor *mempool.Processor, logger *logging.Logger, m *metrics.Metrics) *MempoolServer {
	r := chi.NewRouter()

	s := &MempoolServer{
		config:    cfg,
		router:    r,
		processor: processor,
		logger:    logger,
		metrics:   m,
		health:    health.NewRegistry(logger),
		server: &http.Server{
			Addr:    ":" + cfg.API.Port,
			Handler: r,
		},
	}

	s.setupMiddleware()
	s.setupRoutes()
	s.setupHealthChecks()

	return s
}

func (s *MempoolServer) setupMiddleware() {
	securityManager, err := security.NewSecurityManager(s.config.Redis.Address, s.config.Auth.JWTSecret)
	if err != nil {
		s.logger.Error("failed to initialize security manager", "error", err)
		return
	}
	tokenAuth := jwtauth.New("HS256", []byte(s.config.Auth.JWTSecret), nil)
	sm := NewSecurityMiddleware(securityManager, tokenAuth, s.logger)

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(sm.SecureHeaders)
	s.router.Use(sm.ErrorHandling)
	s.router.Use(sm.RequestLogging)
	s.router.Use(MetricsMiddleware(s.metrics, "mempool"))
	s.router.Use(RecovererWithMetrics(s.logger, s.metrics, "mempool"))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-API-Key"},
		MaxAge:         300,
	}))
	s.router.Use(sm.RateLimiter(200, 1*time.Minute))
}

func (s *MempoolServer) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/metrics", promhttp.Handler().ServeHTTP)

	s.router.Post("/transactions", s.handleSubmit)
	s.router.Get("/transactions/pending", s.handlePending)
	s.router.Get("/transactions/processed", s.handleProcessed)
	s.router.Get("/transactions/{ticketID}", s.handleGetTicket)
}

func (s *MempoolServer) setupHealthChecks() {
	s.health.Register("mempool-api", health.ServiceChecker("mempool-api", func(ctx context.Context) error {
		return nil
	}))
	s.health.Register("redis", health.RedisChecker(s.config.Redis.Address, func(ctx context.Context) error {
		return nil
	}))
	s.health.Register("kafka", health.KafkaChecker(s.config.Kafka.Brokers, func(ctx context.Context) error {
		return nil
	}))
}

// Start begins serving HTTP traffic, blocking until the server stops.
func (s *MempoolServer) Start() {
	s.logger.Info("starting mempool API server", "port", s.config.API.Port)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("mempool API server error", "error", err)
	}
}

// Shutdown gracefully stops the HTTP server.
func (s *MempoolServer) Shutdown(ctx context.Context) {
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error("error during mempool API shutdown", "error", err)
	}
}

func (s *MempoolServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := s.health.RunChecks(r.Context())
	status := health.StatusUp
	for _, c := range checks {
		if c.Status == health.StatusDown {
			status = health.StatusDown
			break
		}
	}
	httpStatus := http.StatusOK
	if status == health.StatusDown {
		httpStatus = http.StatusServiceUnavailable
	}
	s.renderJSON(w, Response{
		Success: status == health.StatusUp,
		Data:    map[string]interface{}{"status": status, "checks": checks},
	}, httpStatus)
}

// submitRequest is the wire shape for a batch admission submission: a
// set of ledger transactions paired with the public key that should
// have produced each one's signature.
type submitRequest struct {
	Transactions []struct {
		Tx     *transaction.Transaction `json:"tx"`
		PubKey []byte                   `json:"pub_key"`
	} `json:"transactions"`
}

func (s *MempoolServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.renderError(w, apperrors.NewAPIError(apperrors.APIErrBadRequest, "invalid request body", err))
		return
	}
	if len(req.Transactions) == 0 {
		s.renderError(w, apperrors.NewAPIError(apperrors.APIErrValidation, "at least one transaction is required", nil))
		return
	}

	txs := make([]mempool.Transaction, 0, len(req.Transactions))
	for _, t := range req.Transactions {
		if t.Tx == nil {
			s.renderError(w, apperrors.NewAPIError(apperrors.APIErrValidation, "transaction entry missing tx", nil))
			return
		}
		txs = append(txs, transaction.NewAdmissionTx(t.Tx, t.PubKey))
	}

	ticketID := s.processor.CreateJob(r.Context(), txs)
	s.renderJSON(w, Response{
		Success: true,
		Data:    map[string]interface{}{"ticket_id": ticketID},
	}, http.StatusAccepted)
}

func (s *MempoolServer) handleGetTicket(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketID")
	if finished, ok := s.processor.ProcessedTicket(ticketID); ok {
		s.renderJSON(w, Response{Success: true, Data: finished}, http.StatusOK)
		return
	}
	if s.processor.HasPending(ticketID) {
		s.renderJSON(w, Response{Success: true, Data: map[string]interface{}{"status": "pending"}}, http.StatusOK)
		return
	}
	s.renderError(w, apperrors.NewAPIError(apperrors.APIErrNotFound, "unknown ticket", nil))
}

func (s *MempoolServer) handlePending(w http.ResponseWriter, r *http.Request) {
	s.renderJSON(w, Response{Success: true, Data: s.processor.PendingTickets()}, http.StatusOK)
}

func (s *MempoolServer) handleProcessed(w http.ResponseWriter, r *http.Request) {
	s.renderJSON(w, Response{Success: true, Data: s.processor.ProcessedTickets()}, http.StatusOK)
}

func (s *MempoolServer) renderJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("error encoding JSON response", "error", err)
	}
}

func (s *MempoolServer) renderError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatusFromAPIError(err)
	s.metrics.RecordError("mempool", "http", strconv.Itoa(status))
	s.renderJSON(w, Response{Success: false, Error: err.Error()}, status)
}
