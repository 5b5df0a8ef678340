package repository

import (
	"context"
	"errors"
	"fmt"

	"brandguard/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AccountRepository interface {
	// EnsureAccount inserts a if no account with its id exists and returns the stored row.
	EnsureAccount(ctx context.Context, a *model.Account) (*model.Account, error)
	GetAccountByID(ctx context.Context, id string) (*model.Account, error)
	ListAccounts(ctx context.Context, limit, offset int) ([]model.Account, error)
	UpdateProfile(ctx context.Context, id, name string) (*model.Account, error)
	// UpdateRoleAndPlan sets role and plan; the analysis limit is always derived from plan.
	UpdateRoleAndPlan(ctx context.Context, id string, role model.Role, plan model.Plan) (*model.Account, error)
	// UpdateAchievements locks the account row and persists whatever fn leaves in the state.
	UpdateAchievements(ctx context.Context, id string, fn func(*model.AchievementState) error) (*model.AchievementState, error)
	// GrantAchievement adds achievement if absent. granted is false when it was already held.
	GrantAchievement(ctx context.Context, id, achievement string) (granted bool, err error)
}

type accountRepo struct {
	pool *pgxpool.Pool
}

func NewAccountRepo(pool *pgxpool.Pool) AccountRepository {
	return &accountRepo{pool: pool}
}

const accountColumns = `id, email, name, role, plan, monthly_analysis_count, analysis_reserved,
	analysis_limit, achievements, high_score_streak, created_at, updated_at`

func scanAccount(row pgx.Row) (*model.Account, error) {
	var a model.Account
	var role, plan string
	err := row.Scan(&a.ID, &a.Email, &a.Name, &role, &plan, &a.MonthlyAnalysisCount, &a.AnalysisReserved,
		&a.AnalysisLimit, &a.Achievements, &a.HighScoreStreak, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	a.Role = model.Role(role)
	a.Plan = model.Plan(plan)
	if a.Achievements == nil {
		a.Achievements = []string{}
	}
	return &a, nil
}

func (r *accountRepo) EnsureAccount(ctx context.Context, a *model.Account) (*model.Account, error) {
	const insertQ = `
		INSERT INTO accounts (id, email, name, role, plan, analysis_limit)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`
	if _, err := r.pool.Exec(ctx, insertQ, a.ID, a.Email, a.Name, string(a.Role), string(a.Plan), a.Plan.AnalysisLimit()); err != nil {
		return nil, fmt.Errorf("inserting account %s: %w", a.ID, err)
	}
	return r.GetAccountByID(ctx, a.ID)
}

func (r *accountRepo) GetAccountByID(ctx context.Context, id string) (*model.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	a, err := scanAccount(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("getting account %s: %w", id, err)
	}
	return a, nil
}

func (r *accountRepo) ListAccounts(ctx context.Context, limit, offset int) ([]model.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer rows.Close()

	accounts := []model.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating accounts: %w", err)
	}
	return accounts, nil
}

func (r *accountRepo) UpdateProfile(ctx context.Context, id, name string) (*model.Account, error) {
	q := `UPDATE accounts SET name = $2, updated_at = NOW() WHERE id = $1 RETURNING ` + accountColumns
	a, err := scanAccount(r.pool.QueryRow(ctx, q, id, name))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("updating profile of account %s: %w", id, err)
	}
	return a, nil
}

func (r *accountRepo) UpdateRoleAndPlan(ctx context.Context, id string, role model.Role, plan model.Plan) (*model.Account, error) {
	q := `
		UPDATE accounts
		SET role = $2, plan = $3, analysis_limit = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + accountColumns
	a, err := scanAccount(r.pool.QueryRow(ctx, q, id, string(role), string(plan), plan.AnalysisLimit()))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("updating role and plan of account %s: %w", id, err)
	}
	return a, nil
}

func (r *accountRepo) UpdateAchievements(ctx context.Context, id string, fn func(*model.AchievementState) error) (*model.AchievementState, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("starting transaction for achievements: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var state model.AchievementState
	const selectQ = `SELECT achievements, high_score_streak FROM accounts WHERE id = $1 FOR UPDATE`
	if err := tx.QueryRow(ctx, selectQ, id).Scan(&state.Achievements, &state.HighScoreStreak); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("locking achievements of account %s: %w", id, err)
	}
	if err := fn(&state); err != nil {
		return nil, err
	}
	if state.Achievements == nil {
		state.Achievements = []string{}
	}

	const updateQ = `UPDATE accounts SET achievements = $2, high_score_streak = $3, updated_at = NOW() WHERE id = $1`
	if _, err := tx.Exec(ctx, updateQ, id, state.Achievements, state.HighScoreStreak); err != nil {
		return nil, fmt.Errorf("saving achievements of account %s: %w", id, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing achievements of account %s: %w", id, err)
	}
	return &state, nil
}

func (r *accountRepo) GrantAchievement(ctx context.Context, id, achievement string) (bool, error) {
	const q = `
		UPDATE accounts
		SET achievements = array_append(achievements, $2::text), updated_at = NOW()
		WHERE id = $1 AND NOT ($2::text = ANY(achievements))`
	tag, err := r.pool.Exec(ctx, q, id, achievement)
	if err != nil {
		return false, fmt.Errorf("granting %s to account %s: %w", achievement, id, err)
	}
	return tag.RowsAffected() == 1, nil
}
