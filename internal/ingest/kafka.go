// Package ingest consumes inbound transactions from Kafka and submits
// them to the admission processor, adapted from the teacher's
// TransactionProcessor.Start poll loop: the same topic/consumer-group
// wiring and timeout-driven ReadMessage loop, but each message becomes
// one single-transaction CreateJob call instead of direct ledger
// application.
package ingest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/stathera/txadmission/internal/mempool"
	"github.com/stathera/txadmission/internal/transaction"
	apperrors "github.com/stathera/txadmission/pkg/errors"
	"github.com/stathera/txadmission/pkg/logging"
)

// envelope mirrors the wire shape transaction.EnvelopeDecoder expects:
// a ledger transaction plus its sender's public key.
type envelope struct {
	Tx     *transaction.Transaction `json:"tx"`
	PubKey []byte                   `json:"pub_key"`
}

// Consumer polls a Kafka topic for inbound transactions and forwards
// each to the processor's CreateJob.
type Consumer struct {
	consumer  *kafka.Consumer
	processor *mempool.Processor
	topic     string
	logger    *logging.Logger
}

// NewConsumer creates a Kafka consumer subscribed to topic, submitting
// decoded messages to processor.
func NewConsumer(brokers, groupID, topic string, processor *mempool.Processor, logger *logging.Logger) (*Consumer, error) {
	c, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
		"group.id":          groupID,
		"auto.offset.reset": "earliest",
	})
	if err != nil {
		return nil, err
	}
	if err := c.SubscribeTopics([]string{topic}, nil); err != nil {
		return nil, err
	}
	return &Consumer{consumer: c, processor: processor, topic: topic, logger: logger}, nil
}

// Run polls until ctx is cancelled, submitting one ticket per message.
func (c *Consumer) Run(ctx context.Context) {
	c.logger.Info("ingest consumer started", "topic", c.topic)
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("ingest consumer stopping")
			c.consumer.Close()
			return
		default:
			msg, err := c.consumer.ReadMessage(100 * time.Millisecond)
			if err != nil {
				if kafkaErr, ok := err.(kafka.Error); ok && kafkaErr.Code() == kafka.ErrTimedOut {
					continue
				}
				c.logger.Error("kafka read error", "error", apperrors.MempoolWrap(err, apperrors.OpIngestConsume, apperrors.MempoolErrIngest, "kafka read"))
				continue
			}
			c.handle(ctx, msg)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg *kafka.Message) {
	var env envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		c.logger.Error("malformed transaction envelope", "error", err)
		return
	}
	if env.Tx == nil {
		c.logger.Error("transaction envelope missing tx")
		return
	}

	tx := transaction.NewAdmissionTx(env.Tx, env.PubKey)
	ticketID := c.processor.CreateJob(ctx, []mempool.Transaction{tx})
	c.logger.WithTicket(ticketID).Debug("submitted ticket from ingest", "tx_id", env.Tx.ID)
}
