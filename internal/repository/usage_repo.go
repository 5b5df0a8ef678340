package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"brandguard/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrAnalysisLimitReached is returned when an account has no analyses left this month.
var ErrAnalysisLimitReached = errors.New("analysis_limit_reached")

const analysisEvent = "design_analysis"

// reservationTTL bounds how long a reservation can be outstanding. An
// analysis finishes well within it, so older reservations belong to a
// process that died between reserve and commit/release and are dropped.
const reservationTTL = 15 * time.Minute

// UsageRepository tracks the monthly analysis quota of accounts.
//
// A unit of quota is reserved before the model is called and either committed
// once the design is stored or released when the analysis fails. Reserved
// units count against the limit so concurrent analyses cannot overshoot it.
type UsageRepository interface {
	// ReserveAnalysis atomically reserves one analysis. Returns ErrAnalysisLimitReached if none is left.
	ReserveAnalysis(ctx context.Context, accountID string) error
	// CommitAnalysis turns a reservation into a counted analysis and records a usage event.
	CommitAnalysis(ctx context.Context, accountID, designID string) error
	// ReleaseAnalysis gives back a reservation without counting it.
	ReleaseAnalysis(ctx context.Context, accountID string) error
	// CountAnalysesInTimeRange counts committed analyses in the given period.
	CountAnalysesInTimeRange(ctx context.Context, accountID string, start, end time.Time) (int, error)
	// ResetMonthlyUsage zeroes every account's monthly counter and drops outstanding reservations.
	ResetMonthlyUsage(ctx context.Context) (int64, error)
	// SyncAnalysisLimits rewrites analysis_limit from plan where they disagree.
	SyncAnalysisLimits(ctx context.Context) (int64, error)
}

type usageRepo struct {
	pool *pgxpool.Pool
}

// NewUsageRepo creates a new UsageRepository.
func NewUsageRepo(pool *pgxpool.Pool) UsageRepository {
	return &usageRepo{pool: pool}
}

// ReserveAnalysis relies on the row lock taken by UPDATE: concurrent
// reservations for the same account serialize and re-evaluate the WHERE
// clause against the committed counters. When the newest reservation is
// older than reservationTTL, all outstanding ones are stale and start from zero.
func (r *usageRepo) ReserveAnalysis(ctx context.Context, accountID string) error {
	const q = `
		WITH live AS (
			SELECT id,
			       CASE WHEN analysis_reserved_at < NOW() - $2::int * INTERVAL '1 second'
			            THEN 0 ELSE analysis_reserved END AS reserved
			FROM accounts
			WHERE id = $1
			FOR UPDATE
		)
		UPDATE accounts a
		SET analysis_reserved = live.reserved + 1,
		    analysis_reserved_at = NOW(),
		    updated_at = NOW()
		FROM live
		WHERE a.id = live.id
		  AND (a.analysis_limit = -1 OR a.monthly_analysis_count + live.reserved < a.analysis_limit)`
	tag, err := r.pool.Exec(ctx, q, accountID, int(reservationTTL.Seconds()))
	if err != nil {
		return fmt.Errorf("reserving analysis for account %s: %w", accountID, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`, accountID).Scan(&exists); err != nil {
		return fmt.Errorf("checking account %s: %w", accountID, err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrAnalysisLimitReached
}

func (r *usageRepo) CommitAnalysis(ctx context.Context, accountID, designID string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("starting transaction for analysis commit: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	const updateQ = `
		UPDATE accounts
		SET monthly_analysis_count = monthly_analysis_count + 1,
		    analysis_reserved = GREATEST(analysis_reserved - 1, 0),
		    updated_at = NOW()
		WHERE id = $1`
	tag, err := tx.Exec(ctx, updateQ, accountID)
	if err != nil {
		return fmt.Errorf("counting analysis for account %s: %w", accountID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	const insertQ = `INSERT INTO usage_events (account_id, event_type, design_id) VALUES ($1, $2, $3)`
	if _, err := tx.Exec(ctx, insertQ, accountID, analysisEvent, designID); err != nil {
		return fmt.Errorf("recording analysis event for account %s: %w", accountID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing analysis for account %s: %w", accountID, err)
	}
	return nil
}

func (r *usageRepo) ReleaseAnalysis(ctx context.Context, accountID string) error {
	const q = `
		UPDATE accounts
		SET analysis_reserved = GREATEST(analysis_reserved - 1, 0), updated_at = NOW()
		WHERE id = $1`
	if _, err := r.pool.Exec(ctx, q, accountID); err != nil {
		return fmt.Errorf("releasing analysis for account %s: %w", accountID, err)
	}
	return nil
}

func (r *usageRepo) CountAnalysesInTimeRange(ctx context.Context, accountID string, start, end time.Time) (int, error) {
	var count int
	const q = `
		SELECT COUNT(*)
		FROM usage_events
		WHERE account_id = $1
		  AND event_type = $2
		  AND created_at >= $3
		  AND created_at < $4`
	if err := r.pool.QueryRow(ctx, q, accountID, analysisEvent, start, end).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting analysis events for account %s: %w", accountID, err)
	}
	return count, nil
}

func (r *usageRepo) ResetMonthlyUsage(ctx context.Context) (int64, error) {
	const q = `
		UPDATE accounts
		SET monthly_analysis_count = 0, analysis_reserved = 0, updated_at = NOW()
		WHERE monthly_analysis_count <> 0 OR analysis_reserved <> 0`
	tag, err := r.pool.Exec(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("resetting monthly usage: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *usageRepo) SyncAnalysisLimits(ctx context.Context) (int64, error) {
	const q = `
		UPDATE accounts
		SET analysis_limit = CASE plan WHEN $1 THEN $2::int WHEN $3 THEN $4::int WHEN $5 THEN $6::int ELSE $2::int END,
		    updated_at = NOW()
		WHERE analysis_limit IS DISTINCT FROM
		      CASE plan WHEN $1 THEN $2::int WHEN $3 THEN $4::int WHEN $5 THEN $6::int ELSE $2::int END`
	tag, err := r.pool.Exec(ctx, q,
		string(model.PlanFree), model.PlanFree.AnalysisLimit(),
		string(model.PlanPro), model.PlanPro.AnalysisLimit(),
		string(model.PlanEnterprise), model.PlanEnterprise.AnalysisLimit(),
	)
	if err != nil {
		return 0, fmt.Errorf("syncing analysis limits: %w", err)
	}
	return tag.RowsAffected(), nil
}
