package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"brandguard/internal/model"
	"brandguard/internal/rbac"
	"brandguard/internal/repository"

	"github.com/rs/zerolog"
)

// ReviewInput moves a pending design to a terminal status.
type ReviewInput struct {
	DesignID        string
	ReviewerID      string
	Status          model.DesignStatus
	ManagerFeedback string
}

// DesignView is a design together with a short-lived link to its image.
type DesignView struct {
	model.Design
	OriginalImageURL string `json:"original_image_url"`
}

// DesignService covers the review workflow and read access to designs.
type DesignService interface {
	Review(ctx context.Context, in ReviewInput) (*model.Design, error)
	AnnotateDesign(ctx context.Context, designID, accountID string, annotations model.DesignAnnotations) (*model.Design, error)
	GetDesign(ctx context.Context, designID, accountID string) (*DesignView, error)
	ListDesigns(ctx context.Context, projectID, accountID string, mineOnly bool) ([]model.Design, error)
}

type designService struct {
	accounts  repository.AccountRepository
	projects  repository.ProjectRepository
	designs   repository.DesignRepository
	images    ImageStore
	observers []ReviewObserver
	logger    zerolog.Logger
}

func NewDesignService(
	accounts repository.AccountRepository,
	projects repository.ProjectRepository,
	designs repository.DesignRepository,
	images ImageStore,
	logger zerolog.Logger,
	observers ...ReviewObserver,
) DesignService {
	return &designService{
		accounts:  accounts,
		projects:  projects,
		designs:   designs,
		images:    images,
		observers: observers,
		logger:    logger.With().Str("service", "DesignService").Logger(),
	}
}

func (s *designService) Review(ctx context.Context, in ReviewInput) (*model.Design, error) {
	if in.ReviewerID == "" {
		return nil, newError(KindUnauthenticated, "authentication required")
	}
	if in.Status != model.DesignApproved && in.Status != model.DesignRejected {
		return nil, newError(KindValidation, "status must be approved or rejected")
	}
	feedback := strings.TrimSpace(in.ManagerFeedback)
	if in.Status == model.DesignRejected && feedback == "" {
		return nil, newError(KindValidation, "feedback is required when rejecting a design")
	}

	reviewer, err := loadActor(ctx, s.accounts, in.ReviewerID)
	if err != nil {
		return nil, err
	}
	if !rbac.CapabilityFor(reviewer, nil).CanReview {
		return nil, newError(KindForbidden, "only brand managers can review designs")
	}

	design, err := loadDesign(ctx, s.designs, in.DesignID)
	if err != nil {
		return nil, err
	}
	if !design.Status.CanTransitionTo(in.Status) {
		return nil, newError(KindInvalidState, "design has already been %s", design.Status)
	}

	updated, err := s.designs.UpdateDesignStatus(ctx, design.ID, in.Status, feedback)
	if err != nil {
		if errors.Is(err, repository.ErrDesignNotPending) {
			return nil, newError(KindInvalidState, "design has already been reviewed")
		}
		return nil, fmt.Errorf("reviewing design %s: %w", design.ID, err)
	}

	s.logger.Info().Str("design_id", updated.ID).Str("status", string(updated.Status)).Str("reviewer_id", reviewer.ID).Msg("Design reviewed")
	for _, o := range s.observers {
		if err := o.DesignReviewed(ctx, updated, reviewer.ID); err != nil {
			s.logger.Error().Err(err).Str("design_id", updated.ID).Msg("Review observer failed")
		}
	}
	return updated, nil
}

func (s *designService) AnnotateDesign(ctx context.Context, designID, accountID string, annotations model.DesignAnnotations) (*model.Design, error) {
	if accountID == "" {
		return nil, newError(KindUnauthenticated, "authentication required")
	}
	if annotations.IsEmpty() {
		return nil, newError(KindValidation, "nothing to update")
	}
	account, err := loadActor(ctx, s.accounts, accountID)
	if err != nil {
		return nil, err
	}
	design, err := loadDesign(ctx, s.designs, designID)
	if err != nil {
		return nil, err
	}
	if !rbac.CanAnnotate(account, design) {
		return nil, newError(KindForbidden, "only the submitter can annotate this design")
	}

	annotations.Apply(design)
	updated, err := s.designs.UpdateAnnotations(ctx, design)
	if err != nil {
		return nil, fmt.Errorf("annotating design %s: %w", design.ID, err)
	}
	return updated, nil
}

func (s *designService) GetDesign(ctx context.Context, designID, accountID string) (*DesignView, error) {
	account, err := loadActor(ctx, s.accounts, accountID)
	if err != nil {
		return nil, err
	}
	design, err := loadDesign(ctx, s.designs, designID)
	if err != nil {
		return nil, err
	}
	project, err := loadProject(ctx, s.projects, design.ProjectID)
	if err != nil {
		return nil, err
	}
	if !rbac.CanViewDesign(account, design, project) {
		return nil, newError(KindForbidden, "you cannot access this design")
	}

	view := &DesignView{Design: *design}
	url, err := s.images.PresignGet(ctx, design.OriginalImageKey)
	if err != nil {
		s.logger.Error().Err(err).Str("design_id", design.ID).Msg("Failed to presign design image")
	} else {
		view.OriginalImageURL = url
	}
	return view, nil
}

func (s *designService) ListDesigns(ctx context.Context, projectID, accountID string, mineOnly bool) ([]model.Design, error) {
	account, err := loadActor(ctx, s.accounts, accountID)
	if err != nil {
		return nil, err
	}
	project, err := loadProject(ctx, s.projects, projectID)
	if err != nil {
		return nil, err
	}

	if mineOnly {
		designs, err := s.designs.ListDesignsByAccountInProject(ctx, project.ID, account.ID)
		if err != nil {
			return nil, fmt.Errorf("listing designs: %w", err)
		}
		return designs, nil
	}
	if !rbac.CapabilityFor(account, project).CanViewProject {
		return nil, newError(KindForbidden, "you cannot access this project")
	}
	designs, err := s.designs.ListDesignsByProject(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("listing designs: %w", err)
	}
	return designs, nil
}
