package worker

import (
	"context"
	"errors"

	"spesevoce/internal/amqp"
	"spesevoce/internal/core"
	"spesevoce/internal/log"
	"spesevoce/internal/services"
)

// Processor is the pipeline entry point the worker feeds.
type Processor interface {
	ProcessTranscript(ctx context.Context, text string) (core.Record, error)
}

// TranscriptWorker turns queued speech-recognition events into records.
type TranscriptWorker struct {
	pipeline Processor
	logger   *log.Logger
}

func NewTranscriptWorker(pipeline Processor, logger *log.Logger) *TranscriptWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &TranscriptWorker{
		pipeline: pipeline,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleMessage processes a single transcript message from AMQP. Only result
// events reach the pipeline. Pipeline errors are logged and the message is
// still acknowledged: a redelivery would be rejected as a duplicate anyway.
func (w *TranscriptWorker) HandleMessage(ctx context.Context, msg *amqp.TranscriptMessage) error {
	switch msg.Event {
	case amqp.EventStart, amqp.EventEnd:
		w.logger.DebugContext(ctx, "Speech recognition event", "event", msg.Event)
		return nil
	case amqp.EventError:
		w.logger.WarnContext(ctx, "Speech recognition failed",
			"event", msg.Event,
			log.FieldError, msg.Error)
		return nil
	}

	rec, err := w.pipeline.ProcessTranscript(ctx, msg.Text)
	switch {
	case errors.Is(err, services.ErrDuplicateText), errors.Is(err, services.ErrEmptyText):
		w.logger.InfoContext(ctx, "Skipping transcript", log.FieldError, err)
		return nil
	case err != nil && rec.ID == "":
		return err
	case err != nil:
		w.logger.ErrorContext(ctx, "Transcript stored locally but not mirrored",
			log.NewFields().WithRecord(rec.ID, rec.Amount.String(), rec.Currency, rec.Category, rec.Subcategory).WithError(err).ToSlice()...)
		return nil
	}

	w.logger.DebugContext(ctx, "Queued transcript handled", log.FieldRecordID, rec.ID)
	return nil
}
