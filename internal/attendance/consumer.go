package attendance

import (
	"context"
	"log/slog"

	"github.com/ecampos-dev/epinet/pkg/kafka"
	"github.com/ecampos-dev/epinet/pkg/metrics"
)

// Consumer wraps a Kafka consumer to drive the attendance ingest pipeline.
type Consumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

// NewConsumer creates a Consumer backed by the given Kafka consumer.
func NewConsumer(kafkaConsumer *kafka.Consumer) *Consumer {
	return &Consumer{
		consumer: kafkaConsumer,
		logger:   slog.Default().With("component", "attendance-consumer"),
	}
}

// Start begins consuming Kafka messages. It blocks until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("attendance consumer starting")
	return c.consumer.Start(ctx)
}

// HandleRecord returns a Kafka MessageHandler that validates each attendance
// record and upserts it (class metadata first, then the fact) into the
// store. Malformed messages are logged and skipped rather than retried; a
// store failure is returned so the message is redelivered.
func HandleRecord(store Store, m *metrics.Metrics) kafka.MessageHandler {
	logger := slog.Default().With("component", "attendance-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		rec, err := kafka.DecodeJSON[Record](value)
		if err != nil {
			logger.Error("failed to decode attendance record",
				"error", err,
				"key", string(key),
			)
			if m != nil {
				m.AttendanceFactsTotal.WithLabelValues("invalid").Inc()
			}
			return nil
		}
		if err := ValidateRecord(&rec); err != nil {
			logger.Warn("attendance record rejected",
				"student_id", rec.StudentID,
				"class_id", rec.ClassID,
				"day", rec.Day,
				"error", err,
			)
			if m != nil {
				m.AttendanceFactsTotal.WithLabelValues("invalid").Inc()
			}
			return nil
		}

		if err := store.UpsertClass(ctx, Class{ID: rec.ClassID, DurationHours: rec.DurationHours}); err != nil {
			if m != nil {
				m.AttendanceFactsTotal.WithLabelValues("error").Inc()
			}
			return err
		}
		if err := store.UpsertFact(ctx, Fact{
			StudentID: rec.StudentID,
			ClassID:   rec.ClassID,
			Day:       rec.Day,
			Present:   rec.Present,
		}); err != nil {
			if m != nil {
				m.AttendanceFactsTotal.WithLabelValues("error").Inc()
			}
			return err
		}

		logger.Debug("attendance fact stored",
			"student_id", rec.StudentID,
			"class_id", rec.ClassID,
			"day", rec.Day,
			"present", rec.Present,
		)
		if m != nil {
			m.AttendanceFactsTotal.WithLabelValues("ok").Inc()
		}
		return nil
	}
}
