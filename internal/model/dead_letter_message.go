package model

import "time"

// DeadLetterMessage is a background job that exhausted its retries.
type DeadLetterMessage struct {
	ID        int64     `db:"id" json:"id"`
	QueueName string    `db:"queue_name" json:"queue_name"`
	MessageID int64     `db:"message_id" json:"message_id"`
	Payload   string    `db:"payload" json:"payload"`
	LastError string    `db:"last_error" json:"last_error"`
	Attempts  int       `db:"attempts" json:"attempts"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
