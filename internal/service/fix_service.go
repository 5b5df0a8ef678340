package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"brandguard/internal/model"
	"brandguard/internal/rbac"
	"brandguard/internal/repository"

	"github.com/rs/zerolog"
)

// ApplyFixesInput selects the source image either through DesignID or by
// passing Image and Fingerprint directly.
type ApplyFixesInput struct {
	AccountID   string
	DesignID    string
	Image       *model.Image
	Fingerprint *model.BrandFingerprint
	Fixes       []model.Fix
}

// FixService produces corrected previews of a design. Nothing it returns is persisted.
type FixService interface {
	ApplyFixes(ctx context.Context, in ApplyFixesInput) (model.Image, error)
	HighlightDifferences(ctx context.Context, accountID string, original, corrected model.Image) (model.Image, error)
}

type fixService struct {
	accounts    repository.AccountRepository
	projects    repository.ProjectRepository
	designs     repository.DesignRepository
	gateway     ModelGateway
	images      ImageStore
	callTimeout time.Duration
	logger      zerolog.Logger
}

func NewFixService(
	accounts repository.AccountRepository,
	projects repository.ProjectRepository,
	designs repository.DesignRepository,
	gateway ModelGateway,
	images ImageStore,
	callTimeout time.Duration,
	logger zerolog.Logger,
) FixService {
	return &fixService{
		accounts:    accounts,
		projects:    projects,
		designs:     designs,
		gateway:     gateway,
		images:      images,
		callTimeout: callTimeout,
		logger:      logger.With().Str("service", "FixService").Logger(),
	}
}

func validateFixes(fixes []model.Fix) error {
	if len(fixes) == 0 {
		return newError(KindValidation, "at least one fix is required")
	}
	for i, f := range fixes {
		if strings.TrimSpace(f.Description) == "" || !f.Category.Valid() {
			return newError(KindValidation, "fix %d is malformed", i)
		}
	}
	return nil
}

func (s *fixService) ApplyFixes(ctx context.Context, in ApplyFixesInput) (model.Image, error) {
	if in.AccountID == "" {
		return model.Image{}, newError(KindUnauthenticated, "authentication required")
	}
	if err := validateFixes(in.Fixes); err != nil {
		return model.Image{}, err
	}

	source, fingerprint, err := s.resolveSource(ctx, in)
	if err != nil {
		return model.Image{}, err
	}
	if fingerprint.IsZero() {
		return model.Image{}, newError(KindValidation, "brand fingerprint is required")
	}

	callCtx, cancel := withCallTimeout(ctx, s.callTimeout)
	defer cancel()
	corrected, err := s.gateway.ApplyFixes(callCtx, source, fingerprint, in.Fixes)
	if err != nil {
		s.logger.Error().Err(err).Str("account_id", in.AccountID).Msg("Applying fixes failed")
		return model.Image{}, wrapError(KindUpstream, err, "applying fixes failed, please try again")
	}

	granted, err := s.accounts.GrantAchievement(ctx, in.AccountID, model.AchievementQuickFixer)
	if err != nil {
		s.logger.Error().Err(err).Str("account_id", in.AccountID).Msg("Failed to grant quick fixer achievement")
	} else if granted {
		s.logger.Info().Str("account_id", in.AccountID).Msg("Quick fixer achievement unlocked")
	}
	return corrected, nil
}

func (s *fixService) resolveSource(ctx context.Context, in ApplyFixesInput) (model.Image, model.BrandFingerprint, error) {
	if in.DesignID == "" {
		if in.Image == nil || in.Image.IsEmpty() {
			return model.Image{}, model.BrandFingerprint{}, newError(KindValidation, "a design id or a source image is required")
		}
		if in.Fingerprint == nil {
			return model.Image{}, model.BrandFingerprint{}, newError(KindValidation, "brand fingerprint is required")
		}
		return *in.Image, *in.Fingerprint, nil
	}

	account, err := loadActor(ctx, s.accounts, in.AccountID)
	if err != nil {
		return model.Image{}, model.BrandFingerprint{}, err
	}
	design, err := loadDesign(ctx, s.designs, in.DesignID)
	if err != nil {
		return model.Image{}, model.BrandFingerprint{}, err
	}
	project, err := loadProject(ctx, s.projects, design.ProjectID)
	if err != nil {
		return model.Image{}, model.BrandFingerprint{}, err
	}
	if !rbac.CanViewDesign(account, design, project) {
		return model.Image{}, model.BrandFingerprint{}, newError(KindForbidden, "you cannot access this design")
	}

	fingerprint := project.Fingerprint
	if in.Fingerprint != nil {
		fingerprint = *in.Fingerprint
	}
	if in.Image != nil && !in.Image.IsEmpty() {
		return *in.Image, fingerprint, nil
	}
	img, err := s.images.Get(ctx, design.OriginalImageKey)
	if err != nil {
		return model.Image{}, model.BrandFingerprint{}, fmt.Errorf("loading source image of design %s: %w", design.ID, err)
	}
	return img, fingerprint, nil
}

func (s *fixService) HighlightDifferences(ctx context.Context, accountID string, original, corrected model.Image) (model.Image, error) {
	if accountID == "" {
		return model.Image{}, newError(KindUnauthenticated, "authentication required")
	}
	if original.IsEmpty() || corrected.IsEmpty() {
		return model.Image{}, newError(KindValidation, "original and corrected images are required")
	}

	callCtx, cancel := withCallTimeout(ctx, s.callTimeout)
	defer cancel()
	annotated, err := s.gateway.HighlightDifferences(callCtx, original, corrected)
	if err != nil {
		s.logger.Error().Err(err).Str("account_id", accountID).Msg("Highlighting differences failed")
		return model.Image{}, wrapError(KindUpstream, err, "highlighting differences failed, please try again")
	}
	return annotated, nil
}
