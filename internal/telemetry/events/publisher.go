// Package events publishes one message per completed batch command (normalize,
// map, merge, validate) to Kafka, so downstream consumers (dashboards, search
// re-indexers, alerting) can react to a pipeline run without polling
// cmd/apiserver or tailing logs.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/culturemech/culturemech/internal/config"
	"github.com/culturemech/culturemech/internal/stats"
	"github.com/culturemech/culturemech/internal/telemetry/logging"
	"github.com/culturemech/culturemech/pkg/errors"
)

const defaultWriteTimeout = 10 * time.Second

// RunCompletedEvent is the wire shape published after a batch command
// finishes, one JSON object per message.
type RunCompletedEvent struct {
	Command     string    `json:"command"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Total       int       `json:"total"`
	Succeeded   int       `json:"succeeded"`
	Failed      int       `json:"failed"`
	ExitCode    int       `json:"exit_code"`
	DryRun      bool      `json:"dry_run"`
}

// Writer abstracts kafka.Writer so Publisher can be tested without a broker.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher publishes RunCompletedEvent messages to a fixed topic.
type Publisher struct {
	writer Writer
	topic  string
	logger logging.Logger
}

// NewPublisher builds a Publisher backed by a real kafka.Writer.
func NewPublisher(cfg config.KafkaConfig, topic string, logger logging.Logger) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New(errors.CodeMessageQueueError, "kafka brokers must not be empty")
	}

	batchSize := cfg.BatchSize
	if batchSize == 0 {
		batchSize = 100
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    batchSize,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	return &Publisher{writer: writer, topic: topic, logger: logger}, nil
}

// NewPublisherWithWriter builds a Publisher over a caller-supplied Writer,
// used by tests and by callers wiring a shared writer across topics.
func NewPublisherWithWriter(writer Writer, topic string, logger logging.Logger) *Publisher {
	return &Publisher{writer: writer, topic: topic, logger: logger}
}

// PublishRunCompleted serializes and publishes a RunCompletedEvent built from
// a finished stats.RunReport.
func (p *Publisher) PublishRunCompleted(ctx context.Context, report stats.RunReport) error {
	evt := RunCompletedEvent{
		Command:    report.Command,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Total:      report.Total,
		Succeeded:  report.Succeeded,
		Failed:     report.Failed,
		ExitCode:   report.ExitCode,
		DryRun:     report.DryRun,
	}

	body, err := json.Marshal(evt)
	if err != nil {
		return errors.Wrap(err, errors.CodeMessageQueueError, "failed to marshal run-completed event")
	}

	writeCtx, cancel := context.WithTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	if err := p.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(report.Command),
		Value: body,
		Time:  report.FinishedAt,
	}); err != nil {
		p.logger.Error("failed to publish run-completed event",
			logging.String("command", report.Command), logging.Err(err))
		return errors.Wrap(err, errors.CodeMessageQueueError, "failed to publish run-completed event")
	}

	p.logger.Info("published run-completed event",
		logging.String("command", report.Command), logging.String("topic", p.topic))
	return nil
}

// Close releases the underlying writer's connections.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
