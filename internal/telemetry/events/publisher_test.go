package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/culturemech/culturemech/internal/stats"
	"github.com/culturemech/culturemech/internal/telemetry/logging"
)

type fakeWriter struct {
	messages []kafka.Message
	failWith error
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.failWith != nil {
		return w.failWith
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestPublishRunCompleted_Success(t *testing.T) {
	writer := &fakeWriter{}
	p := NewPublisherWithWriter(writer, "culturemech.runs", logging.NewNopLogger())

	report := stats.RunReport{
		Command:    "merge",
		StartedAt:  time.Date(2026, 7, 30, 9, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2026, 7, 30, 9, 1, 0, 0, time.UTC),
		Total:      10,
		Succeeded:  9,
		Failed:     1,
		ExitCode:   1,
	}

	err := p.PublishRunCompleted(context.Background(), report)
	require.NoError(t, err)
	require.Len(t, writer.messages, 1)

	var evt RunCompletedEvent
	require.NoError(t, json.Unmarshal(writer.messages[0].Value, &evt))
	assert.Equal(t, "merge", evt.Command)
	assert.Equal(t, 9, evt.Succeeded)
	assert.Equal(t, []byte("merge"), writer.messages[0].Key)
}

func TestPublishRunCompleted_WriterError(t *testing.T) {
	writer := &fakeWriter{failWith: assertErrKafka{}}
	p := NewPublisherWithWriter(writer, "culturemech.runs", logging.NewNopLogger())

	err := p.PublishRunCompleted(context.Background(), stats.RunReport{Command: "validate"})
	assert.Error(t, err)
}

type assertErrKafka struct{}

func (assertErrKafka) Error() string { return "kafka unavailable" }
