package consumer

import (
	"context"
	"encoding/json"
	"strings"

	"go-ems/internal/bootstrap"
	"go-ems/internal/events"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Reader is the part of *kafkago.Reader the consumer needs.
type Reader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// ConsumeEmployeeLifecycle turns employee lifecycle events into audit
// entries until ctx is cancelled. Undecodable messages are committed and
// skipped.
func ConsumeEmployeeLifecycle(
	ctx context.Context,
	reader Reader,
	audit bootstrap.AuditLogger,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.employee_lifecycle")
	log.Info("employee lifecycle consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("employee lifecycle consumer stopped")
				return
			}
			log.Error("fetch employee lifecycle message failed", zap.Error(err))
			continue
		}

		var event events.EmployeeLifecycleEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil || event.EventType == "" {
			log.Error("decode employee lifecycle event failed",
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		audit.Log(ctx, bootstrap.AuditLog{
			Action:  auditAction(event.EventType),
			Message: "employee " + strings.TrimPrefix(event.EventType, "employee."),
			Meta: map[string]any{
				"employee_id": event.EmployeeID,
				"actor_id":    event.ActorID,
				"request_id":  event.RequestID,
				"email":       event.Email,
				"occurred_at": event.OccurredAt,
			},
		})

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit employee lifecycle message failed", zap.Error(err))
			continue
		}
	}
}

// auditAction maps "employee.created" to "EMPLOYEE_CREATED".
func auditAction(eventType string) string {
	return strings.ToUpper(strings.ReplaceAll(eventType, ".", "_"))
}
