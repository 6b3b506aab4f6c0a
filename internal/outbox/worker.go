package outbox

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/raazsocial/messaging/internal/application"
	"github.com/raazsocial/messaging/internal/kafka"
)

// Worker drains outbox_events to Kafka so downstream consumers observe
// durable message transitions. Rows are claimed with SKIP LOCKED, which
// keeps multiple instances from double-publishing.
type Worker struct {
	DB        *sql.DB
	Producer  *kafka.Producer
	BatchSize int
	PollDelay time.Duration
	Log       *zap.Logger
}

func NewWorker(db *sql.DB, p *kafka.Producer, batchSize int, delay time.Duration, log *zap.Logger) *Worker {
	return &Worker{
		DB:        db,
		Producer:  p,
		BatchSize: batchSize,
		PollDelay: delay,
		Log:       log,
	}
}

func (w *Worker) Start(ctx context.Context) {
	go func() {
		w.Log.Info("outbox worker started")
		for {
			select {
			case <-ctx.Done():
				w.Log.Info("outbox worker stopping")
				return
			default:
				if err := w.processBatch(ctx); err != nil {
					w.Log.Error("outbox worker error", zap.Error(err))
					time.Sleep(time.Second)
				}
			}
		}
	}()
}

func topicFor(eventType string) string {
	switch eventType {
	case application.EventMessageSent:
		return "chat.message.sent"
	case application.EventMessagesSeen:
		return "chat.message.seen"
	case application.EventMessageDeleted:
		return "chat.message.deleted"
	default:
		return ""
	}
}

func (w *Worker) processBatch(ctx context.Context) error {
	tx, err := w.DB.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelReadCommitted,
	})
	if err != nil {
		return err
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT id, aggregate_id, event_type, payload
		FROM outbox_events
		WHERE processed_at IS NULL
		ORDER BY id
		FOR UPDATE SKIP LOCKED
		LIMIT $1
	`, w.BatchSize)

	if err != nil {
		tx.Rollback()
		return err
	}
	defer rows.Close()

	type event struct {
		id          int64
		aggregateID string
		eventType   string
		payload     []byte
	}

	var events []event
	for rows.Next() {
		var e event
		if err := rows.Scan(&e.id, &e.aggregateID, &e.eventType, &e.payload); err != nil {
			tx.Rollback()
			return err
		}
		events = append(events, e)
	}

	if len(events) == 0 {
		tx.Rollback()
		select {
		case <-ctx.Done():
		case <-time.After(w.PollDelay):
		}
		return nil
	}

	for _, e := range events {
		topic := topicFor(e.eventType)
		if topic == "" {
			w.Log.Warn("unknown event type in outbox", zap.String("event_type", e.eventType))
			continue
		}

		if err := w.Producer.Publish(ctx, topic, []byte(e.aggregateID), e.payload); err != nil {
			tx.Rollback()
			return err
		}

		_, err := tx.ExecContext(ctx, `
			UPDATE outbox_events
			SET processed_at = NOW()
			WHERE id = $1
		`, e.id)
		if err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}
