package repository

import (
	"context"
	"errors"
	"fmt"

	"brandguard/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AssetRepository interface {
	CreateAsset(ctx context.Context, a *model.Asset) (*model.Asset, error)
	GetAssetByID(ctx context.Context, id string) (*model.Asset, error)
	ListAssetsByProject(ctx context.Context, projectID string) ([]model.Asset, error)
	// CompleteTagging writes the derived type, tags and summary of a pending asset.
	// Assets that already left the pending state are not touched.
	CompleteTagging(ctx context.Context, id string, assetType model.AssetType, tags []string, summary string) (*model.Asset, error)
	MarkTaggingFailed(ctx context.Context, id string) error
}

type assetRepo struct {
	pool *pgxpool.Pool
}

func NewAssetRepo(pool *pgxpool.Pool) AssetRepository {
	return &assetRepo{pool: pool}
}

const assetColumns = `id, project_id, name, storage_key, type, tags, ai_summary, tagging_status, created_at`

func scanAsset(row pgx.Row) (*model.Asset, error) {
	var a model.Asset
	var assetType, status string
	if err := row.Scan(&a.ID, &a.ProjectID, &a.Name, &a.StorageKey, &assetType, &a.Tags, &a.AISummary, &status, &a.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	a.Type = model.AssetType(assetType)
	a.TaggingStatus = model.TaggingStatus(status)
	if a.Tags == nil {
		a.Tags = []string{}
	}
	return &a, nil
}

func (r *assetRepo) CreateAsset(ctx context.Context, a *model.Asset) (*model.Asset, error) {
	q := `
		INSERT INTO assets (id, project_id, name, storage_key, tagging_status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + assetColumns
	created, err := scanAsset(r.pool.QueryRow(ctx, q, a.ID, a.ProjectID, a.Name, a.StorageKey, string(model.TaggingPending)))
	if err != nil {
		return nil, fmt.Errorf("inserting asset: %w", err)
	}
	return created, nil
}

func (r *assetRepo) GetAssetByID(ctx context.Context, id string) (*model.Asset, error) {
	q := `SELECT ` + assetColumns + ` FROM assets WHERE id = $1`
	a, err := scanAsset(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("getting asset %s: %w", id, err)
	}
	return a, nil
}

func (r *assetRepo) ListAssetsByProject(ctx context.Context, projectID string) ([]model.Asset, error) {
	q := `SELECT ` + assetColumns + ` FROM assets WHERE project_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing assets of project %s: %w", projectID, err)
	}
	defer rows.Close()

	assets := []model.Asset{}
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning asset: %w", err)
		}
		assets = append(assets, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating assets: %w", err)
	}
	return assets, nil
}

func (r *assetRepo) CompleteTagging(ctx context.Context, id string, assetType model.AssetType, tags []string, summary string) (*model.Asset, error) {
	if tags == nil {
		tags = []string{}
	}
	q := `
		UPDATE assets
		SET type = $2, tags = $3, ai_summary = $4, tagging_status = 'tagged'
		WHERE id = $1 AND tagging_status = 'pending'
		RETURNING ` + assetColumns
	a, err := scanAsset(r.pool.QueryRow(ctx, q, id, string(assetType), tags, summary))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("tagging asset %s: %w", id, err)
	}
	return a, nil
}

func (r *assetRepo) MarkTaggingFailed(ctx context.Context, id string) error {
	const q = `UPDATE assets SET tagging_status = 'failed' WHERE id = $1 AND tagging_status = 'pending'`
	if _, err := r.pool.Exec(ctx, q, id); err != nil {
		return fmt.Errorf("marking asset %s as failed: %w", id, err)
	}
	return nil
}
