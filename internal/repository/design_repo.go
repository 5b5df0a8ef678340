package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"brandguard/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDesignNotPending is returned when a review races with another review.
var ErrDesignNotPending = errors.New("design_not_pending")

type DesignRepository interface {
	CreateDesign(ctx context.Context, d *model.Design) (*model.Design, error)
	GetDesignByID(ctx context.Context, id string) (*model.Design, error)
	ListDesignsByProject(ctx context.Context, projectID string) ([]model.Design, error)
	ListDesignsByAccountInProject(ctx context.Context, projectID, accountID string) ([]model.Design, error)
	CountDesignsByAccount(ctx context.Context, accountID string) (int, error)
	// UpdateDesignStatus moves a pending design to status. Returns ErrDesignNotPending if it was already reviewed.
	UpdateDesignStatus(ctx context.Context, id string, status model.DesignStatus, managerFeedback string) (*model.Design, error)
	// UpdateAnnotations persists notes, tags and the peer feedback flag of d.
	UpdateAnnotations(ctx context.Context, d *model.Design) (*model.Design, error)
}

type designRepo struct {
	pool *pgxpool.Pool
}

func NewDesignRepo(pool *pgxpool.Pool) DesignRepository {
	return &designRepo{pool: pool}
}

const designColumns = `id, project_id, account_id, submitter_name, original_image_key, design_context,
	compliance_score, feedback, suggested_fixes, status, manager_feedback, notes, tags,
	peer_feedback_requested, created_at, updated_at`

func scanDesign(row pgx.Row) (*model.Design, error) {
	var d model.Design
	var fixes []byte
	var status string
	err := row.Scan(&d.ID, &d.ProjectID, &d.AccountID, &d.SubmitterName, &d.OriginalImageKey, &d.DesignContext,
		&d.ComplianceScore, &d.Feedback, &fixes, &status, &d.ManagerFeedback, &d.Notes, &d.Tags,
		&d.PeerFeedbackRequested, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	d.Status = model.DesignStatus(status)
	if len(fixes) > 0 {
		if err := json.Unmarshal(fixes, &d.SuggestedFixes); err != nil {
			return nil, fmt.Errorf("decoding fixes of design %s: %w", d.ID, err)
		}
	}
	if d.SuggestedFixes == nil {
		d.SuggestedFixes = []model.Fix{}
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
	return &d, nil
}

func (r *designRepo) CreateDesign(ctx context.Context, d *model.Design) (*model.Design, error) {
	fixes, err := json.Marshal(d.SuggestedFixes)
	if err != nil {
		return nil, fmt.Errorf("encoding fixes: %w", err)
	}
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	q := `
		INSERT INTO designs (id, project_id, account_id, submitter_name, original_image_key, design_context,
			compliance_score, feedback, suggested_fixes, status, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10, $11)
		RETURNING ` + designColumns
	created, err := scanDesign(r.pool.QueryRow(ctx, q, d.ID, d.ProjectID, d.AccountID, d.SubmitterName,
		d.OriginalImageKey, d.DesignContext, d.ComplianceScore, d.Feedback, string(fixes), string(d.Status), tags))
	if err != nil {
		return nil, fmt.Errorf("inserting design: %w", err)
	}
	return created, nil
}

func (r *designRepo) GetDesignByID(ctx context.Context, id string) (*model.Design, error) {
	q := `SELECT ` + designColumns + ` FROM designs WHERE id = $1`
	d, err := scanDesign(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("getting design %s: %w", id, err)
	}
	return d, nil
}

func (r *designRepo) ListDesignsByProject(ctx context.Context, projectID string) ([]model.Design, error) {
	q := `SELECT ` + designColumns + ` FROM designs WHERE project_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, q, projectID)
}

func (r *designRepo) ListDesignsByAccountInProject(ctx context.Context, projectID, accountID string) ([]model.Design, error) {
	q := `SELECT ` + designColumns + ` FROM designs WHERE project_id = $1 AND account_id = $2 ORDER BY created_at DESC`
	return r.list(ctx, q, projectID, accountID)
}

func (r *designRepo) list(ctx context.Context, q string, args ...any) ([]model.Design, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing designs: %w", err)
	}
	defer rows.Close()

	designs := []model.Design{}
	for rows.Next() {
		d, err := scanDesign(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning design: %w", err)
		}
		designs = append(designs, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating designs: %w", err)
	}
	return designs, nil
}

func (r *designRepo) CountDesignsByAccount(ctx context.Context, accountID string) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM designs WHERE account_id = $1`, accountID).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting designs of account %s: %w", accountID, err)
	}
	return count, nil
}

func (r *designRepo) UpdateDesignStatus(ctx context.Context, id string, status model.DesignStatus, managerFeedback string) (*model.Design, error) {
	q := `
		UPDATE designs
		SET status = $2,
		    manager_feedback = CASE WHEN $3 = '' THEN manager_feedback ELSE $3 END,
		    updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + designColumns
	d, err := scanDesign(r.pool.QueryRow(ctx, q, id, string(status), managerFeedback))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrDesignNotPending
		}
		return nil, fmt.Errorf("updating status of design %s: %w", id, err)
	}
	return d, nil
}

func (r *designRepo) UpdateAnnotations(ctx context.Context, d *model.Design) (*model.Design, error) {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	q := `
		UPDATE designs
		SET notes = $2, tags = $3, peer_feedback_requested = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + designColumns
	updated, err := scanDesign(r.pool.QueryRow(ctx, q, d.ID, d.Notes, tags, d.PeerFeedbackRequested))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("updating annotations of design %s: %w", d.ID, err)
	}
	return updated, nil
}
