package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"brandguard/internal/model"
	"brandguard/internal/rbac"
	"brandguard/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// AnalyzeInput is a design submitted for compliance analysis. Fingerprint
// overrides the project's stored fingerprint when set.
type AnalyzeInput struct {
	AccountID     string
	ProjectID     string
	Image         model.Image
	DesignContext string
	Fingerprint   *model.BrandFingerprint
}

// ComplianceResult is the outcome of a successful analysis.
type ComplianceResult struct {
	DesignID string      `json:"design_id"`
	Score    int         `json:"compliance_score"`
	Feedback string      `json:"feedback"`
	Fixes    []model.Fix `json:"fixes"`
}

// AnalysisService runs compliance analyses and records them as designs.
type AnalysisService interface {
	Analyze(ctx context.Context, in AnalyzeInput) (*ComplianceResult, error)
}

type analysisService struct {
	accounts    repository.AccountRepository
	projects    repository.ProjectRepository
	designs     repository.DesignRepository
	quota       QuotaEnforcer
	gateway     ModelGateway
	images      ImageStore
	observers   []DesignObserver
	callTimeout time.Duration
	newID       func() string
	logger      zerolog.Logger
}

// NewAnalysisService creates an AnalysisService. Observers run in order after
// each design is stored; their failures are logged and never fail the analysis.
func NewAnalysisService(
	accounts repository.AccountRepository,
	projects repository.ProjectRepository,
	designs repository.DesignRepository,
	quota QuotaEnforcer,
	gateway ModelGateway,
	images ImageStore,
	callTimeout time.Duration,
	logger zerolog.Logger,
	observers ...DesignObserver,
) AnalysisService {
	return &analysisService{
		accounts:    accounts,
		projects:    projects,
		designs:     designs,
		quota:       quota,
		gateway:     gateway,
		images:      images,
		observers:   observers,
		callTimeout: callTimeout,
		newID:       uuid.NewString,
		logger:      logger.With().Str("service", "AnalysisService").Logger(),
	}
}

func (s *analysisService) Analyze(ctx context.Context, in AnalyzeInput) (*ComplianceResult, error) {
	if in.AccountID == "" {
		return nil, newError(KindUnauthenticated, "authentication required")
	}
	if in.Image.IsEmpty() {
		return nil, newError(KindValidation, "design image is required")
	}
	if strings.TrimSpace(in.DesignContext) == "" {
		return nil, newError(KindValidation, "design context is required")
	}

	account, err := loadActor(ctx, s.accounts, in.AccountID)
	if err != nil {
		return nil, err
	}
	project, err := loadProject(ctx, s.projects, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if !rbac.CapabilityFor(account, project).CanAnalyze {
		return nil, newError(KindForbidden, "only the project owner or a brand manager can analyze designs")
	}

	fingerprint := project.Fingerprint
	if in.Fingerprint != nil {
		fingerprint = *in.Fingerprint
	}
	if fingerprint.IsZero() {
		return nil, newError(KindValidation, "brand fingerprint is required")
	}

	if err := s.quota.CheckAndReserve(ctx, account.ID); err != nil {
		return nil, err
	}

	req := DesignRequest{
		Image:         in.Image,
		Fingerprint:   fingerprint,
		DesignContext: in.DesignContext,
		Strictness:    model.StrictnessFor(in.DesignContext),
	}
	score, fixes, err := s.runModelCalls(ctx, req)
	if err != nil {
		s.quota.Release(ctx, account.ID)
		s.logger.Error().Err(err).Str("account_id", account.ID).Str("project_id", project.ID).Msg("Analysis failed")
		return nil, wrapError(KindUpstream, err, "analysis failed, please try again")
	}

	design, err := s.record(ctx, account, project, in, score, fixes)
	if err != nil {
		s.quota.Release(ctx, account.ID)
		return nil, err
	}

	for _, o := range s.observers {
		if err := o.DesignRecorded(ctx, design); err != nil {
			s.logger.Error().Err(err).Str("design_id", design.ID).Msg("Design observer failed")
		}
	}
	if err := s.quota.Commit(ctx, account.ID, design.ID); err != nil {
		s.logger.Error().Err(err).Str("account_id", account.ID).Str("design_id", design.ID).Msg("Failed to commit analysis quota")
	}

	return &ComplianceResult{
		DesignID: design.ID,
		Score:    design.ComplianceScore,
		Feedback: design.Feedback,
		Fixes:    design.SuggestedFixes,
	}, nil
}

// runModelCalls scores the design and asks for fixes concurrently. Both
// calls must succeed.
func (s *analysisService) runModelCalls(ctx context.Context, req DesignRequest) (*ScoreResult, []model.Fix, error) {
	ctx, cancel := withCallTimeout(ctx, s.callTimeout)
	defer cancel()

	var (
		score *ScoreResult
		fixes []model.Fix
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.gateway.Score(gctx, req)
		if err != nil {
			return fmt.Errorf("scoring design: %w", err)
		}
		score = r
		return nil
	})
	g.Go(func() error {
		f, err := s.gateway.SuggestFixes(gctx, req)
		if err != nil {
			return fmt.Errorf("suggesting fixes: %w", err)
		}
		fixes = f
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if fixes == nil {
		fixes = []model.Fix{}
	}
	return score, fixes, nil
}

// record stores the source image and the design row. The image is removed
// again if the row cannot be written.
func (s *analysisService) record(ctx context.Context, account *model.Account, project *model.Project, in AnalyzeInput, score *ScoreResult, fixes []model.Fix) (*model.Design, error) {
	designID := s.newID()
	key := designImageKey(project.ID, designID, in.Image)
	if err := s.images.Put(ctx, key, in.Image); err != nil {
		return nil, fmt.Errorf("storing design image: %w", err)
	}

	design, err := s.designs.CreateDesign(ctx, &model.Design{
		ID:               designID,
		ProjectID:        project.ID,
		AccountID:        account.ID,
		SubmitterName:    account.Name,
		OriginalImageKey: key,
		DesignContext:    in.DesignContext,
		ComplianceScore:  score.Score,
		Feedback:         score.Feedback,
		SuggestedFixes:   fixes,
		Status:           model.DesignPending,
		Tags:             []string{},
	})
	if err != nil {
		if delErr := s.images.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			s.logger.Error().Err(delErr).Str("key", key).Msg("Failed to remove orphaned design image")
		}
		return nil, fmt.Errorf("storing design: %w", err)
	}
	return design, nil
}
