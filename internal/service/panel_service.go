package service

import (
	"context"
	"strings"
	"time"

	"brandguard/internal/model"
	"brandguard/internal/repository"

	"github.com/rs/zerolog"
)

// PanelService serves the embedded panel. Callers are identified only by
// project id: there are no role checks, no quota and nothing is stored.
type PanelService interface {
	Score(ctx context.Context, projectID string, img model.Image, designContext string) (*ScoreResult, error)
	SuggestFixes(ctx context.Context, projectID string, img model.Image, designContext string) ([]model.Fix, error)
	ApplyFixes(ctx context.Context, projectID string, img model.Image, fixes []model.Fix) (model.Image, error)
	Ask(ctx context.Context, projectID, question string, design *model.Image) (string, error)
}

type panelService struct {
	projects    repository.ProjectRepository
	gateway     ModelGateway
	callTimeout time.Duration
	logger      zerolog.Logger
}

func NewPanelService(projects repository.ProjectRepository, gateway ModelGateway, callTimeout time.Duration, logger zerolog.Logger) PanelService {
	return &panelService{
		projects:    projects,
		gateway:     gateway,
		callTimeout: callTimeout,
		logger:      logger.With().Str("service", "PanelService").Logger(),
	}
}

func (s *panelService) request(ctx context.Context, projectID string, img model.Image, designContext string) (DesignRequest, error) {
	if img.IsEmpty() {
		return DesignRequest{}, newError(KindValidation, "design image is required")
	}
	if strings.TrimSpace(designContext) == "" {
		return DesignRequest{}, newError(KindValidation, "design context is required")
	}
	fp, err := s.fingerprint(ctx, projectID)
	if err != nil {
		return DesignRequest{}, err
	}
	return DesignRequest{
		Image:         img,
		Fingerprint:   fp,
		DesignContext: designContext,
		Strictness:    model.StrictnessFor(designContext),
	}, nil
}

func (s *panelService) fingerprint(ctx context.Context, projectID string) (model.BrandFingerprint, error) {
	project, err := loadProject(ctx, s.projects, projectID)
	if err != nil {
		return model.BrandFingerprint{}, err
	}
	if project.Fingerprint.IsZero() {
		return model.BrandFingerprint{}, newError(KindValidation, "project has no brand fingerprint")
	}
	return project.Fingerprint, nil
}

func (s *panelService) Score(ctx context.Context, projectID string, img model.Image, designContext string) (*ScoreResult, error) {
	req, err := s.request(ctx, projectID, img, designContext)
	if err != nil {
		return nil, err
	}
	callCtx, cancel := withCallTimeout(ctx, s.callTimeout)
	defer cancel()
	score, err := s.gateway.Score(callCtx, req)
	if err != nil {
		s.logger.Error().Err(err).Str("project_id", projectID).Msg("Panel scoring failed")
		return nil, wrapError(KindUpstream, err, "analysis failed, please try again")
	}
	return score, nil
}

func (s *panelService) SuggestFixes(ctx context.Context, projectID string, img model.Image, designContext string) ([]model.Fix, error) {
	req, err := s.request(ctx, projectID, img, designContext)
	if err != nil {
		return nil, err
	}
	callCtx, cancel := withCallTimeout(ctx, s.callTimeout)
	defer cancel()
	fixes, err := s.gateway.SuggestFixes(callCtx, req)
	if err != nil {
		s.logger.Error().Err(err).Str("project_id", projectID).Msg("Panel fix suggestion failed")
		return nil, wrapError(KindUpstream, err, "analysis failed, please try again")
	}
	return fixes, nil
}

func (s *panelService) ApplyFixes(ctx context.Context, projectID string, img model.Image, fixes []model.Fix) (model.Image, error) {
	if err := validateFixes(fixes); err != nil {
		return model.Image{}, err
	}
	if img.IsEmpty() {
		return model.Image{}, newError(KindValidation, "design image is required")
	}
	fp, err := s.fingerprint(ctx, projectID)
	if err != nil {
		return model.Image{}, err
	}
	callCtx, cancel := withCallTimeout(ctx, s.callTimeout)
	defer cancel()
	corrected, err := s.gateway.ApplyFixes(callCtx, img, fp, fixes)
	if err != nil {
		s.logger.Error().Err(err).Str("project_id", projectID).Msg("Panel fix application failed")
		return model.Image{}, wrapError(KindUpstream, err, "applying fixes failed, please try again")
	}
	return corrected, nil
}

func (s *panelService) Ask(ctx context.Context, projectID, question string, design *model.Image) (string, error) {
	question, err := validateQuestion(question)
	if err != nil {
		return "", err
	}
	fp, err := s.fingerprint(ctx, projectID)
	if err != nil {
		return "", err
	}
	return askAssistant(ctx, s.gateway, s.callTimeout, s.logger, AssistantQuery{Fingerprint: fp, Question: question, Design: design})
}
