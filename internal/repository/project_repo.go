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

type ProjectRepository interface {
	CreateProject(ctx context.Context, p *model.Project) (*model.Project, error)
	GetProjectByID(ctx context.Context, id string) (*model.Project, error)
	ListProjectsByOwner(ctx context.Context, ownerID string) ([]model.Project, error)
	ListAllProjects(ctx context.Context) ([]model.Project, error)
	// UpdateProject persists name, description and fingerprint of p.
	UpdateProject(ctx context.Context, p *model.Project) (*model.Project, error)
	// DeleteProject removes the project together with its designs and assets.
	DeleteProject(ctx context.Context, id string) error
}

type projectRepo struct {
	pool *pgxpool.Pool
}

func NewProjectRepo(pool *pgxpool.Pool) ProjectRepository {
	return &projectRepo{pool: pool}
}

const projectColumns = `id, owner_id, name, brand_description, logo_key, brand_fingerprint, created_at, updated_at`

func scanProject(row pgx.Row) (*model.Project, error) {
	var p model.Project
	var fingerprint []byte
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.BrandDescription, &p.LogoKey, &fingerprint, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(fingerprint) > 0 {
		if err := json.Unmarshal(fingerprint, &p.Fingerprint); err != nil {
			return nil, fmt.Errorf("decoding fingerprint of project %s: %w", p.ID, err)
		}
	}
	return &p, nil
}

func (r *projectRepo) CreateProject(ctx context.Context, p *model.Project) (*model.Project, error) {
	fingerprint, err := json.Marshal(p.Fingerprint)
	if err != nil {
		return nil, fmt.Errorf("encoding fingerprint: %w", err)
	}
	q := `
		INSERT INTO projects (id, owner_id, name, brand_description, logo_key, brand_fingerprint)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb)
		RETURNING ` + projectColumns
	created, err := scanProject(r.pool.QueryRow(ctx, q, p.ID, p.OwnerID, p.Name, p.BrandDescription, p.LogoKey, string(fingerprint)))
	if err != nil {
		return nil, fmt.Errorf("inserting project: %w", err)
	}
	return created, nil
}

func (r *projectRepo) GetProjectByID(ctx context.Context, id string) (*model.Project, error) {
	q := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`
	p, err := scanProject(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("getting project %s: %w", id, err)
	}
	return p, nil
}

func (r *projectRepo) ListProjectsByOwner(ctx context.Context, ownerID string) ([]model.Project, error) {
	q := `SELECT ` + projectColumns + ` FROM projects WHERE owner_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, q, ownerID)
}

func (r *projectRepo) ListAllProjects(ctx context.Context) ([]model.Project, error) {
	q := `SELECT ` + projectColumns + ` FROM projects ORDER BY created_at DESC`
	return r.list(ctx, q)
}

func (r *projectRepo) list(ctx context.Context, q string, args ...any) ([]model.Project, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating projects: %w", err)
	}
	return projects, nil
}

func (r *projectRepo) UpdateProject(ctx context.Context, p *model.Project) (*model.Project, error) {
	fingerprint, err := json.Marshal(p.Fingerprint)
	if err != nil {
		return nil, fmt.Errorf("encoding fingerprint: %w", err)
	}
	q := `
		UPDATE projects
		SET name = $2, brand_description = $3, brand_fingerprint = $4::jsonb, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + projectColumns
	updated, err := scanProject(r.pool.QueryRow(ctx, q, p.ID, p.Name, p.BrandDescription, string(fingerprint)))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("updating project %s: %w", p.ID, err)
	}
	return updated, nil
}

func (r *projectRepo) DeleteProject(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("starting transaction for project delete: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM designs WHERE project_id = $1`, id); err != nil {
		return fmt.Errorf("deleting designs of project %s: %w", id, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM assets WHERE project_id = $1`, id); err != nil {
		return fmt.Errorf("deleting assets of project %s: %w", id, err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting project %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing project delete %s: %w", id, err)
	}
	return nil
}
