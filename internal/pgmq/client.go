package pgmq

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Client wraps a Postgres pool for pgmq queue operations.
type Client struct {
	pool *pgxpool.Pool
}

// New returns a new PGMQ client backed by the given pool.
func New(pool *pgxpool.Pool) *Client {
	return &Client{pool: pool}
}

// Message represents a single pgmq message.
type Message struct {
	ID        int64  // message identifier
	ReadCount int64  // deliveries so far, including this one
	Data      []byte // raw JSON payload
}

// Send pushes a JSON payload into the given queue.
func (c *Client) Send(ctx context.Context, queue string, payload []byte) error {
	if _, err := c.pool.Exec(ctx, "SELECT pgmq.send($1, $2::jsonb, 0)", queue, string(payload)); err != nil {
		return fmt.Errorf("pgmq send failed: %w", err)
	}
	return nil
}

// ReadWithPoll reads up to maxMessages from the queue, blocking up to
// pollSeconds. Read messages stay invisible for visibilitySeconds.
func (c *Client) ReadWithPoll(ctx context.Context, queue string, visibilitySeconds, pollSeconds, maxMessages int) ([]*Message, error) {
	const q = "SELECT msg_id, read_ct, message FROM pgmq.read_with_poll($1, $2, $3, $4)"
	rows, err := c.pool.Query(ctx, q, queue, visibilitySeconds, maxMessages, pollSeconds)
	if err != nil {
		return nil, fmt.Errorf("pgmq read_with_poll failed: %w", err)
	}
	defer rows.Close()

	var msgs []*Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ReadCount, &m.Data); err != nil {
			return nil, fmt.Errorf("pgmq read scan failed: %w", err)
		}
		msgs = append(msgs, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgmq read rows error: %w", err)
	}
	return msgs, nil
}

// Delete removes a message from the queue.
func (c *Client) Delete(ctx context.Context, queue string, msgID int64) error {
	if _, err := c.pool.Exec(ctx, "SELECT pgmq.delete($1, $2::bigint)", queue, msgID); err != nil {
		return fmt.Errorf("pgmq delete failed: %w", err)
	}
	return nil
}
