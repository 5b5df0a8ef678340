package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"brandguard/internal/model"
	"brandguard/internal/rbac"
	"brandguard/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	maxPromptRunes   = 2000
	maxQuestionRunes = 2000
)

// ToolboxService generates on-brand material from a project's fingerprint.
// Nothing it returns is persisted and it does not consume analysis quota.
type ToolboxService interface {
	ExtractColors(ctx context.Context, accountID, projectID string, img model.Image) (*ColorExtraction, error)
	// GenerateTemplates produces one template per model.TemplateKinds entry,
	// in that order. Any failed kind fails the whole call.
	GenerateTemplates(ctx context.Context, accountID, projectID string) ([]model.Template, error)
	GenerateLayout(ctx context.Context, accountID, projectID string, req LayoutRequest) (model.Image, error)
	PromptToDesign(ctx context.Context, accountID, projectID, prompt string) (model.Image, error)
	Ask(ctx context.Context, accountID, projectID, question string, design *model.Image) (string, error)
}

type toolboxService struct {
	accounts    repository.AccountRepository
	projects    repository.ProjectRepository
	gateway     ModelGateway
	callTimeout time.Duration
	logger      zerolog.Logger
}

func NewToolboxService(
	accounts repository.AccountRepository,
	projects repository.ProjectRepository,
	gateway ModelGateway,
	callTimeout time.Duration,
	logger zerolog.Logger,
) ToolboxService {
	return &toolboxService{
		accounts:    accounts,
		projects:    projects,
		gateway:     gateway,
		callTimeout: callTimeout,
		logger:      logger.With().Str("service", "ToolboxService").Logger(),
	}
}

// fingerprint authorizes the caller against the project and returns its
// fingerprint. need selects the capability required beyond authentication.
func (s *toolboxService) fingerprint(ctx context.Context, accountID, projectID string, need func(rbac.Capabilities) bool) (model.BrandFingerprint, error) {
	account, err := loadActor(ctx, s.accounts, accountID)
	if err != nil {
		return model.BrandFingerprint{}, err
	}
	project, err := loadProject(ctx, s.projects, projectID)
	if err != nil {
		return model.BrandFingerprint{}, err
	}
	if !need(rbac.CapabilityFor(account, project)) {
		return model.BrandFingerprint{}, newError(KindForbidden, "you cannot use the brand toolbox on this project")
	}
	if project.Fingerprint.IsZero() {
		return model.BrandFingerprint{}, newError(KindValidation, "project has no brand fingerprint")
	}
	return project.Fingerprint, nil
}

func canView(c rbac.Capabilities) bool { return c.CanViewProject }

func (s *toolboxService) ExtractColors(ctx context.Context, accountID, projectID string, img model.Image) (*ColorExtraction, error) {
	if img.IsEmpty() {
		return nil, newError(KindValidation, "image is required")
	}
	fp, err := s.fingerprint(ctx, accountID, projectID, canView)
	if err != nil {
		return nil, err
	}
	callCtx, cancel := withCallTimeout(ctx, s.callTimeout)
	defer cancel()
	colors, err := s.gateway.ExtractColors(callCtx, img, fp)
	if err != nil {
		s.logger.Error().Err(err).Str("project_id", projectID).Msg("Color extraction failed")
		return nil, wrapError(KindUpstream, err, "color extraction failed, please try again")
	}
	return colors, nil
}

func (s *toolboxService) GenerateTemplates(ctx context.Context, accountID, projectID string) ([]model.Template, error) {
	fp, err := s.fingerprint(ctx, accountID, projectID, func(c rbac.Capabilities) bool { return c.CanEditGuidelines })
	if err != nil {
		return nil, err
	}

	templates := make([]model.Template, len(model.TemplateKinds))
	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range model.TemplateKinds {
		g.Go(func() error {
			callCtx, cancel := withCallTimeout(gctx, s.callTimeout)
			defer cancel()
			img, err := s.gateway.GenerateTemplate(callCtx, fp, kind)
			if err != nil {
				return fmt.Errorf("generating %s template: %w", kind, err)
			}
			templates[i] = model.Template{Kind: kind, Image: img}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Str("project_id", projectID).Msg("Template generation failed")
		return nil, wrapError(KindUpstream, err, "template generation failed, please try again")
	}
	s.logger.Info().Str("project_id", projectID).Int("templates", len(templates)).Msg("Templates generated")
	return templates, nil
}

func (s *toolboxService) GenerateLayout(ctx context.Context, accountID, projectID string, req LayoutRequest) (model.Image, error) {
	req.Headline = strings.TrimSpace(req.Headline)
	req.BodyText = strings.TrimSpace(req.BodyText)
	req.ImagePrompt = strings.TrimSpace(req.ImagePrompt)
	if req.Headline == "" && req.BodyText == "" && req.ImagePrompt == "" {
		return model.Image{}, newError(KindValidation, "a headline, body text or image prompt is required")
	}
	fp, err := s.fingerprint(ctx, accountID, projectID, canView)
	if err != nil {
		return model.Image{}, err
	}
	callCtx, cancel := withCallTimeout(ctx, s.callTimeout)
	defer cancel()
	img, err := s.gateway.GenerateLayout(callCtx, fp, req)
	if err != nil {
		s.logger.Error().Err(err).Str("project_id", projectID).Msg("Layout generation failed")
		return model.Image{}, wrapError(KindUpstream, err, "layout generation failed, please try again")
	}
	return img, nil
}

func (s *toolboxService) PromptToDesign(ctx context.Context, accountID, projectID, prompt string) (model.Image, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return model.Image{}, newError(KindValidation, "prompt is required")
	}
	if utf8.RuneCountInString(prompt) > maxPromptRunes {
		return model.Image{}, newError(KindValidation, "prompt must be at most %d characters", maxPromptRunes)
	}
	fp, err := s.fingerprint(ctx, accountID, projectID, canView)
	if err != nil {
		return model.Image{}, err
	}
	callCtx, cancel := withCallTimeout(ctx, s.callTimeout)
	defer cancel()
	img, err := s.gateway.PromptToDesign(callCtx, fp, prompt)
	if err != nil {
		s.logger.Error().Err(err).Str("project_id", projectID).Msg("Design generation failed")
		return model.Image{}, wrapError(KindUpstream, err, "design generation failed, please try again")
	}
	return img, nil
}

func (s *toolboxService) Ask(ctx context.Context, accountID, projectID, question string, design *model.Image) (string, error) {
	question, err := validateQuestion(question)
	if err != nil {
		return "", err
	}
	fp, err := s.fingerprint(ctx, accountID, projectID, canView)
	if err != nil {
		return "", err
	}
	return askAssistant(ctx, s.gateway, s.callTimeout, s.logger, AssistantQuery{Fingerprint: fp, Question: question, Design: design})
}

func validateQuestion(question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", newError(KindValidation, "question is required")
	}
	if utf8.RuneCountInString(question) > maxQuestionRunes {
		return "", newError(KindValidation, "question must be at most %d characters", maxQuestionRunes)
	}
	return question, nil
}

// askAssistant is shared by the authenticated toolbox and the embedded panel.
func askAssistant(ctx context.Context, gateway ModelGateway, timeout time.Duration, logger zerolog.Logger, q AssistantQuery) (string, error) {
	if q.Design != nil && q.Design.IsEmpty() {
		q.Design = nil
	}
	callCtx, cancel := withCallTimeout(ctx, timeout)
	defer cancel()
	answer, err := gateway.AskAssistant(callCtx, q)
	if err != nil {
		logger.Error().Err(err).Msg("Brand assistant failed")
		return "", wrapError(KindUpstream, err, "the brand assistant is unavailable, please try again")
	}
	return answer, nil
}
