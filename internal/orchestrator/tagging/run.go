package tagging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"brandguard/internal/model"
	"brandguard/internal/pgmq"
	"brandguard/internal/repository"
	"brandguard/internal/service"

	"github.com/rs/zerolog"
)

// Queue is the subset of the pgmq client the worker needs.
type Queue interface {
	ReadWithPoll(ctx context.Context, queue string, visibilitySeconds, pollSeconds, maxMessages int) ([]*pgmq.Message, error)
	Send(ctx context.Context, queue string, payload []byte) error
	Delete(ctx context.Context, queue string, msgID int64) error
}

type Options struct {
	QueueName       string
	DeadLetterQueue string
	PollTimeoutSec  int
	VisibilitySec   int
	MaxRetries      int
	BackoffInitial  time.Duration
	BackoffMax      time.Duration
}

// Worker drains the asset tagging queue. Each job is retried with
// exponential backoff and moved to the dead-letter queue once retries run out.
type Worker struct {
	queue       Queue
	assets      service.AssetService
	deadLetters repository.DLQRepository
	opts        Options
	logger      zerolog.Logger
}

func NewWorker(queue Queue, assets service.AssetService, deadLetters repository.DLQRepository, opts Options, logger zerolog.Logger) *Worker {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	return &Worker{
		queue:       queue,
		assets:      assets,
		deadLetters: deadLetters,
		opts:        opts,
		logger:      logger.With().Str("orchestrator", "asset-tagging").Logger(),
	}
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info().Str("queue", w.opts.QueueName).Msg("Starting asset tagging orchestrator")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Shutting down asset tagging orchestrator")
			return nil
		default:
		}

		msgs, err := w.queue.ReadWithPoll(ctx, w.opts.QueueName, w.opts.VisibilitySec, w.opts.PollTimeoutSec, 1)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.logger.Error().Err(err).Msg("Error reading asset tagging queue")
			sleep(ctx, time.Second)
			continue
		}
		for _, msg := range msgs {
			w.Process(ctx, msg)
		}
	}
}

// Process handles one queue message and always acknowledges it, either after
// tagging succeeded or after the job was dead-lettered.
func (w *Worker) Process(ctx context.Context, msg *pgmq.Message) {
	log := w.logger.With().Int64("msg_id", msg.ID).Logger()

	var job service.TaggingJob
	if err := json.Unmarshal(msg.Data, &job); err != nil {
		log.Error().Err(err).Msg("Malformed tagging job; moving to DLQ")
		w.deadLetter(ctx, msg, fmt.Errorf("malformed tagging job: %w", err), 0)
		return
	}
	if job.AssetID == "" {
		log.Error().Msg("Tagging job without asset_id; moving to DLQ")
		w.deadLetter(ctx, msg, errors.New("tagging job has no asset_id"), 0)
		return
	}
	log = log.With().Str("asset_id", job.AssetID).Logger()

	attempts, err := w.tagWithRetry(ctx, job.AssetID, log)
	if err == nil {
		if err := w.queue.Delete(ctx, w.opts.QueueName, msg.ID); err != nil {
			log.Error().Err(err).Msg("Error deleting tagging message")
		}
		return
	}
	if ctx.Err() != nil {
		// Leave the message; it becomes visible again after the timeout.
		return
	}

	if markErr := w.assets.MarkTaggingFailed(ctx, job.AssetID); markErr != nil {
		log.Error().Err(markErr).Msg("Failed to mark asset tagging as failed")
	}
	log.Warn().Err(err).Int("attempts", attempts).Msg("Tagging failed; moving job to DLQ")
	w.deadLetter(ctx, msg, err, attempts)
}

func (w *Worker) tagWithRetry(ctx context.Context, assetID string, log zerolog.Logger) (int, error) {
	backoff := w.opts.BackoffInitial
	var lastErr error
	for attempt := 1; attempt <= w.opts.MaxRetries; attempt++ {
		start := time.Now()
		asset, err := w.assets.TagAsset(ctx, assetID)
		if err == nil {
			log.Info().
				Str("duration", time.Since(start).String()).
				Str("tagging_status", string(asset.TaggingStatus)).
				Msg("Tagging job completed")
			return attempt, nil
		}
		lastErr = err
		if !retryable(err) {
			return attempt, err
		}
		log.Error().Err(err).Int("attempt", attempt).Msg("Asset tagging failed, retrying")
		if attempt == w.opts.MaxRetries || !sleep(ctx, backoff) {
			return attempt, lastErr
		}
		backoff *= 2
		if backoff > w.opts.BackoffMax {
			backoff = w.opts.BackoffMax
		}
	}
	return w.opts.MaxRetries, lastErr
}

func (w *Worker) deadLetter(ctx context.Context, msg *pgmq.Message, cause error, attempts int) {
	if err := w.queue.Send(ctx, w.opts.DeadLetterQueue, msg.Data); err != nil {
		w.logger.Error().Err(err).Str("dlq", w.opts.DeadLetterQueue).Msg("Failed to send message to dead-letter queue")
	}
	payload := string(msg.Data)
	if !json.Valid(msg.Data) {
		quoted, _ := json.Marshal(payload)
		payload = string(quoted)
	}
	record := &model.DeadLetterMessage{
		QueueName: w.opts.QueueName,
		MessageID: msg.ID,
		Payload:   payload,
		LastError: cause.Error(),
		Attempts:  attempts,
	}
	if err := w.deadLetters.Create(ctx, record); err != nil {
		w.logger.Error().Err(err).Msg("Failed to record dead letter")
	}
	if err := w.queue.Delete(ctx, w.opts.QueueName, msg.ID); err != nil {
		w.logger.Error().Err(err).Msg("Error deleting tagging message after failure")
	}
}

// retryable reports whether another attempt could succeed.
func retryable(err error) bool {
	switch service.KindOf(err) {
	case service.KindNotFound, service.KindValidation, service.KindForbidden, service.KindInvalidState:
		return false
	}
	return true
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
