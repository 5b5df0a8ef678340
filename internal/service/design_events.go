package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"brandguard/internal/model"
	"brandguard/internal/pubsub"
)

// DesignObserver is notified after a design has been persisted.
type DesignObserver interface {
	DesignRecorded(ctx context.Context, d *model.Design) error
}

// ReviewObserver is notified after a design changed status.
type ReviewObserver interface {
	DesignReviewed(ctx context.Context, d *model.Design, reviewerID string) error
}

const (
	EventDesignAnalyzed = "design.analyzed"
	EventDesignReviewed = "design.reviewed"
)

// DesignEvent is the message published for design lifecycle changes.
type DesignEvent struct {
	Event           string             `json:"event"`
	DesignID        string             `json:"design_id"`
	ProjectID       string             `json:"project_id"`
	AccountID       string             `json:"account_id"`
	Status          model.DesignStatus `json:"status"`
	ComplianceScore int                `json:"compliance_score"`
	ReviewerID      string             `json:"reviewer_id,omitempty"`
	OccurredAt      time.Time          `json:"occurred_at"`
}

// DesignEventPublisher publishes design lifecycle events to Pub/Sub.
type DesignEventPublisher struct {
	publisher pubsub.Publisher
	topic     string
}

func NewDesignEventPublisher(publisher pubsub.Publisher, topic string) *DesignEventPublisher {
	return &DesignEventPublisher{publisher: publisher, topic: topic}
}

func (p *DesignEventPublisher) DesignRecorded(ctx context.Context, d *model.Design) error {
	return p.publish(ctx, DesignEvent{
		Event:           EventDesignAnalyzed,
		DesignID:        d.ID,
		ProjectID:       d.ProjectID,
		AccountID:       d.AccountID,
		Status:          d.Status,
		ComplianceScore: d.ComplianceScore,
		OccurredAt:      time.Now().UTC(),
	})
}

func (p *DesignEventPublisher) DesignReviewed(ctx context.Context, d *model.Design, reviewerID string) error {
	return p.publish(ctx, DesignEvent{
		Event:           EventDesignReviewed,
		DesignID:        d.ID,
		ProjectID:       d.ProjectID,
		AccountID:       d.AccountID,
		Status:          d.Status,
		ComplianceScore: d.ComplianceScore,
		ReviewerID:      reviewerID,
		OccurredAt:      time.Now().UTC(),
	})
}

func (p *DesignEventPublisher) publish(ctx context.Context, event DesignEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", event.Event, err)
	}
	if _, err := p.publisher.Publish(ctx, p.topic, payload); err != nil {
		return fmt.Errorf("publishing %s event: %w", event.Event, err)
	}
	return nil
}
