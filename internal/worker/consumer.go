package worker

import (
	"context"
	"log/slog"

	"pokerhand/internal/domain"
	"pokerhand/internal/queue"
)

// Consumer classifies hands submitted through the queue.
type Consumer struct {
	consumer  queue.Consumer
	processor *Processor
	log       *slog.Logger
}

func NewConsumer(c queue.Consumer, p *Processor, log *slog.Logger) *Consumer {
	return &Consumer{
		consumer:  c,
		processor: p,
		log:       log,
	}
}

func (w *Consumer) Start(ctx context.Context) error {
	return w.consumer.Consume(ctx, w.handleSubmission)
}

// handleSubmission acknowledges invalid hands: retrying cannot make them valid.
func (w *Consumer) handleSubmission(ctx context.Context, sub domain.Submission) error {
	w.log.Debug("submission.received", "id", sub.ID, "cards", len(sub.Hand))

	rec, err := w.processor.Process(ctx, sub)
	if ve, ok := domain.AsValidation(err); ok {
		w.log.Warn("submission.rejected", "id", sub.ID, "field", ve.Field, "reason", ve.Reason)
		return nil
	}
	if err != nil {
		w.log.Error("submission.failed", "id", sub.ID, "err", err)
		return err
	}

	w.log.Debug("submission.done", "id", rec.ID, "hand_type", rec.HandType)
	return nil
}
