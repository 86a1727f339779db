package consumer_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"go-ems/internal/bootstrap"
	"go-ems/internal/events"
	"go-ems/internal/messaging/kafka/consumer"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeReader struct {
	mu        sync.Mutex
	msgs      []kafkago.Message
	committed []int64
	cancel    context.CancelFunc
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.msgs) == 0 {
		r.cancel()
		return kafkago.Message{}, context.Canceled
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafkago.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

type recordingAudit struct {
	entries []bootstrap.AuditLog
}

func (a *recordingAudit) Log(_ context.Context, entry bootstrap.AuditLog) {
	a.entries = append(a.entries, entry)
}

func TestConsumeEmployeeLifecycle(t *testing.T) {
	payload, err := json.Marshal(events.EmployeeLifecycleEvent{
		EventType:  events.EmployeeDeleted,
		EmployeeID: "e-1",
		ActorID:    "u-1",
		OccurredAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	reader := &fakeReader{
		msgs: []kafkago.Message{
			{Offset: 1, Value: payload},
			{Offset: 2, Value: []byte("not json")},
		},
		cancel: cancel,
	}
	audit := &recordingAudit{}

	done := make(chan struct{})
	go func() {
		consumer.ConsumeEmployeeLifecycle(ctx, reader, audit, zap.NewNop())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}

	require.Len(t, audit.entries, 1)
	assert.Equal(t, "EMPLOYEE_DELETED", audit.entries[0].Action)
	assert.Equal(t, "employee deleted", audit.entries[0].Message)
	assert.Equal(t, "e-1", audit.entries[0].Meta["employee_id"])
	assert.Equal(t, []int64{1, 2}, reader.committed)
}
