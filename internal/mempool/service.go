package mempool

import (
	"context"
	"fmt"

	"github.com/stathera/txadmission/pkg/service"
)

// Service wraps a Processor as a service.Service, owning the
// CompletionQueue's consumer loop for the lifetime of the process.
type Service struct {
	processor *Processor
	status    service.Status
	cancel    context.CancelFunc
}

// NewService wraps processor for registration with a service.Registry.
func NewService(processor *Processor) *Service {
	return &Service{
		processor: processor,
		status:    service.StatusStopped,
	}
}

// Name returns the service name.
func (s *Service) Name() string {
	return "mempool-processor"
}

// Start launches the completion queue consumer loop in its own
// goroutine and returns immediately.
func (s *Service) Start(ctx context.Context) error {
	s.status = service.StatusStarting

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	go s.processor.Run(runCtx)

	s.status = service.StatusRunning
	return nil
}

// Stop cancels the completion queue's context and returns at once. The
// consumer loop finishes items already queued in the background; Stop
// does not wait for it.
func (s *Service) Stop(ctx context.Context) error {
	s.status = service.StatusStopping
	if s.cancel != nil {
		s.cancel()
	}
	s.status = service.StatusStopped
	return nil
}

// Status returns the current service status.
func (s *Service) Status() service.Status {
	return s.status
}

// Health reports the service unhealthy unless its run loop is active.
func (s *Service) Health() error {
	if s.status != service.StatusRunning {
		return fmt.Errorf("mempool-processor not running")
	}
	return nil
}

// Dependencies returns the services this one depends on. The mempool
// store and chain database are reached through collaborator interfaces
// constructed before the processor, not through the registry, so this
// is empty.
func (s *Service) Dependencies() []string {
	return []string{}
}
