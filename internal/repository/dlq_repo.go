package repository

import (
	"context"
	"fmt"

	"brandguard/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DLQRepository records background jobs that could not be processed.
type DLQRepository interface {
	Create(ctx context.Context, message *model.DeadLetterMessage) error
}

type dlqRepository struct {
	pool *pgxpool.Pool
}

func NewDLQRepository(pool *pgxpool.Pool) DLQRepository {
	return &dlqRepository{pool: pool}
}

func (r *dlqRepository) Create(ctx context.Context, message *model.DeadLetterMessage) error {
	const q = `
		INSERT INTO dead_letter_messages (queue_name, message_id, payload, last_error, attempts)
		VALUES ($1, $2, $3::jsonb, $4, $5)
		RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, q,
		message.QueueName,
		message.MessageID,
		message.Payload,
		message.LastError,
		message.Attempts,
	).Scan(&message.ID, &message.CreatedAt)
	if err != nil {
		return fmt.Errorf("recording dead letter from %s: %w", message.QueueName, err)
	}
	return nil
}
