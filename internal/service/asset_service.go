package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"brandguard/internal/model"
	"brandguard/internal/rbac"
	"brandguard/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// JobQueue is the queue asset tagging jobs are sent through.
type JobQueue interface {
	Send(ctx context.Context, queue string, payload []byte) error
}

// TaggingJob is the payload of one asset tagging job.
type TaggingJob struct {
	AssetID string `json:"asset_id"`
}

type CreateAssetInput struct {
	AccountID string
	ProjectID string
	Name      string
	Image     model.Image
}

// AssetService stores brand reference assets and derives their tags once.
type AssetService interface {
	CreateAsset(ctx context.Context, in CreateAssetInput) (*model.Asset, error)
	// TagAsset derives type, tags and summary for a pending asset.
	TagAsset(ctx context.Context, assetID string) (*model.Asset, error)
	MarkTaggingFailed(ctx context.Context, assetID string) error
}

type assetService struct {
	accounts    repository.AccountRepository
	projects    repository.ProjectRepository
	assets      repository.AssetRepository
	gateway     ModelGateway
	images      ImageStore
	queue       JobQueue
	queueName   string
	callTimeout time.Duration
	logger      zerolog.Logger
}

func NewAssetService(
	accounts repository.AccountRepository,
	projects repository.ProjectRepository,
	assets repository.AssetRepository,
	gateway ModelGateway,
	images ImageStore,
	queue JobQueue,
	queueName string,
	callTimeout time.Duration,
	logger zerolog.Logger,
) AssetService {
	return &assetService{
		accounts:    accounts,
		projects:    projects,
		assets:      assets,
		gateway:     gateway,
		images:      images,
		queue:       queue,
		queueName:   queueName,
		callTimeout: callTimeout,
		logger:      logger.With().Str("service", "AssetService").Logger(),
	}
}

func (s *assetService) CreateAsset(ctx context.Context, in CreateAssetInput) (*model.Asset, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, newError(KindValidation, "asset name is required")
	}
	if in.Image.IsEmpty() {
		return nil, newError(KindValidation, "asset image is required")
	}
	account, err := loadActor(ctx, s.accounts, in.AccountID)
	if err != nil {
		return nil, err
	}
	project, err := loadProject(ctx, s.projects, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if !rbac.CapabilityFor(account, project).CanManageAssets {
		return nil, newError(KindForbidden, "only brand managers can add assets")
	}

	assetID := uuid.NewString()
	key := assetImageKey(project.ID, assetID, in.Image)
	if err := s.images.Put(ctx, key, in.Image); err != nil {
		return nil, fmt.Errorf("storing asset image: %w", err)
	}
	asset, err := s.assets.CreateAsset(ctx, &model.Asset{
		ID:         assetID,
		ProjectID:  project.ID,
		Name:       name,
		StorageKey: key,
		Tags:       []string{},
	})
	if err != nil {
		if delErr := s.images.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			s.logger.Error().Err(delErr).Str("key", key).Msg("Failed to remove orphaned asset image")
		}
		return nil, fmt.Errorf("creating asset: %w", err)
	}

	payload, err := json.Marshal(TaggingJob{AssetID: asset.ID})
	if err != nil {
		return nil, fmt.Errorf("encoding tagging job: %w", err)
	}
	if err := s.queue.Send(ctx, s.queueName, payload); err != nil {
		// The asset stays pending; it can be re-enqueued later.
		s.logger.Error().Err(err).Str("asset_id", asset.ID).Msg("Failed to enqueue asset tagging")
	}
	return asset, nil
}

func (s *assetService) TagAsset(ctx context.Context, assetID string) (*model.Asset, error) {
	asset, err := s.assets.GetAssetByID(ctx, assetID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(KindNotFound, "asset %s not found", assetID)
		}
		return nil, fmt.Errorf("loading asset %s: %w", assetID, err)
	}
	if asset.TaggingStatus != model.TaggingPending {
		return asset, nil
	}

	img, err := s.images.Get(ctx, asset.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("loading asset image %s: %w", asset.ID, err)
	}
	callCtx, cancel := withCallTimeout(ctx, s.callTimeout)
	tags, err := s.gateway.TagAsset(callCtx, img, asset.Name)
	cancel()
	if err != nil {
		return nil, wrapError(KindUpstream, err, "asset tagging failed")
	}

	tagged, err := s.assets.CompleteTagging(ctx, asset.ID, tags.Type, tags.Tags, tags.Summary)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Another worker got there first.
			return s.assets.GetAssetByID(ctx, asset.ID)
		}
		return nil, fmt.Errorf("saving asset tags %s: %w", asset.ID, err)
	}
	s.logger.Info().Str("asset_id", tagged.ID).Str("type", string(tagged.Type)).Int("tags", len(tagged.Tags)).Msg("Asset tagged")
	return tagged, nil
}

func (s *assetService) MarkTaggingFailed(ctx context.Context, assetID string) error {
	if err := s.assets.MarkTaggingFailed(ctx, assetID); err != nil {
		return fmt.Errorf("marking asset %s failed: %w", assetID, err)
	}
	return nil
}
