package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"brandguard/internal/model"
	"brandguard/internal/rbac"
	"brandguard/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type CreateProjectInput struct {
	AccountID        string
	Name             string
	BrandDescription string
	Logo             model.Image
}

// UpdateProjectInput carries a combined metadata and guideline edit. A nil
// Fingerprint leaves the guidelines untouched.
type UpdateProjectInput struct {
	ProjectID        string
	AccountID        string
	Name             string
	BrandDescription string
	Fingerprint      *model.BrandFingerprint
}

type ProjectDetails struct {
	Project *model.Project `json:"project"`
	Designs []model.Design `json:"designs"`
	Assets  []model.Asset  `json:"assets"`
}

// ProjectService owns projects and their brand fingerprints.
type ProjectService interface {
	CreateProject(ctx context.Context, in CreateProjectInput) (*model.Project, error)
	ListProjects(ctx context.Context, accountID string) ([]model.Project, error)
	GetProjectDetails(ctx context.Context, projectID, accountID string) (*ProjectDetails, error)
	UpdateProject(ctx context.Context, in UpdateProjectInput) (*model.Project, error)
	DeleteProject(ctx context.Context, projectID, accountID string) error
	DetectConflicts(ctx context.Context, accountID string, fp model.BrandFingerprint) ([]model.Conflict, error)
}

type projectService struct {
	accounts    repository.AccountRepository
	projects    repository.ProjectRepository
	designs     repository.DesignRepository
	assets      repository.AssetRepository
	gateway     ModelGateway
	images      ImageStore
	validate    *validator.Validate
	callTimeout time.Duration
	logger      zerolog.Logger
}

func NewProjectService(
	accounts repository.AccountRepository,
	projects repository.ProjectRepository,
	designs repository.DesignRepository,
	assets repository.AssetRepository,
	gateway ModelGateway,
	images ImageStore,
	callTimeout time.Duration,
	logger zerolog.Logger,
) ProjectService {
	return &projectService{
		accounts:    accounts,
		projects:    projects,
		designs:     designs,
		assets:      assets,
		gateway:     gateway,
		images:      images,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		callTimeout: callTimeout,
		logger:      logger.With().Str("service", "ProjectService").Logger(),
	}
}

func (s *projectService) validateFingerprint(fp *model.BrandFingerprint) error {
	if fp.IsZero() {
		return newError(KindValidation, "brand fingerprint cannot be empty")
	}
	if err := s.validate.Struct(fp); err != nil {
		return wrapError(KindValidation, err, "brand fingerprint is invalid")
	}
	return nil
}

func (s *projectService) CreateProject(ctx context.Context, in CreateProjectInput) (*model.Project, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, newError(KindValidation, "project name is required")
	}
	if in.Logo.IsEmpty() {
		return nil, newError(KindValidation, "logo is required")
	}
	account, err := loadActor(ctx, s.accounts, in.AccountID)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := withCallTimeout(ctx, s.callTimeout)
	fingerprint, err := s.gateway.AnalyzeBrand(callCtx, in.Logo, in.BrandDescription)
	cancel()
	if err != nil {
		s.logger.Error().Err(err).Str("account_id", account.ID).Msg("Brand analysis failed")
		return nil, wrapError(KindUpstream, err, "brand analysis failed, please try again")
	}

	projectID := uuid.NewString()
	key := logoImageKey(projectID, in.Logo)
	if err := s.images.Put(ctx, key, in.Logo); err != nil {
		return nil, fmt.Errorf("storing logo: %w", err)
	}

	project, err := s.projects.CreateProject(ctx, &model.Project{
		ID:               projectID,
		OwnerID:          account.ID,
		Name:             strings.TrimSpace(in.Name),
		BrandDescription: in.BrandDescription,
		LogoKey:          key,
		Fingerprint:      *fingerprint,
	})
	if err != nil {
		if delErr := s.images.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			s.logger.Error().Err(delErr).Str("key", key).Msg("Failed to remove orphaned logo")
		}
		return nil, fmt.Errorf("creating project: %w", err)
	}
	s.logger.Info().Str("project_id", project.ID).Str("owner_id", account.ID).Msg("Project created")
	return project, nil
}

func (s *projectService) ListProjects(ctx context.Context, accountID string) ([]model.Project, error) {
	account, err := loadActor(ctx, s.accounts, accountID)
	if err != nil {
		return nil, err
	}
	var projects []model.Project
	if account.Role.IsManager() {
		projects, err = s.projects.ListAllProjects(ctx)
	} else {
		projects, err = s.projects.ListProjectsByOwner(ctx, account.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return projects, nil
}

func (s *projectService) GetProjectDetails(ctx context.Context, projectID, accountID string) (*ProjectDetails, error) {
	account, err := loadActor(ctx, s.accounts, accountID)
	if err != nil {
		return nil, err
	}
	project, err := loadProject(ctx, s.projects, projectID)
	if err != nil {
		return nil, err
	}
	if !rbac.CapabilityFor(account, project).CanViewProject {
		return nil, newError(KindForbidden, "you cannot access this project")
	}

	designs, err := s.designs.ListDesignsByProject(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("listing designs: %w", err)
	}
	assets, err := s.assets.ListAssetsByProject(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("listing assets: %w", err)
	}
	return &ProjectDetails{Project: project, Designs: designs, Assets: assets}, nil
}

// UpdateProject applies name and description for owners and managers.
// Fingerprint changes from callers without guideline rights are dropped
// without failing the request.
func (s *projectService) UpdateProject(ctx context.Context, in UpdateProjectInput) (*model.Project, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, newError(KindValidation, "project name is required")
	}
	account, err := loadActor(ctx, s.accounts, in.AccountID)
	if err != nil {
		return nil, err
	}
	project, err := loadProject(ctx, s.projects, in.ProjectID)
	if err != nil {
		return nil, err
	}
	caps := rbac.CapabilityFor(account, project)
	if !caps.CanEditMetadata {
		return nil, newError(KindForbidden, "only the project owner or a brand manager can edit this project")
	}

	updated := *project
	updated.Name = strings.TrimSpace(in.Name)
	updated.BrandDescription = in.BrandDescription
	if in.Fingerprint != nil {
		if caps.CanEditGuidelines {
			if err := s.validateFingerprint(in.Fingerprint); err != nil {
				return nil, err
			}
			updated.Fingerprint = *in.Fingerprint
		} else {
			s.logger.Debug().Str("project_id", project.ID).Str("account_id", account.ID).Msg("Ignoring fingerprint change from non-manager")
		}
	}

	saved, err := s.projects.UpdateProject(ctx, &updated)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(KindNotFound, "project %s not found", project.ID)
		}
		return nil, fmt.Errorf("updating project %s: %w", project.ID, err)
	}
	return saved, nil
}

func (s *projectService) DeleteProject(ctx context.Context, projectID, accountID string) error {
	account, err := loadActor(ctx, s.accounts, accountID)
	if err != nil {
		return err
	}
	project, err := loadProject(ctx, s.projects, projectID)
	if err != nil {
		return err
	}
	if !rbac.CapabilityFor(account, project).CanDeleteProject {
		return newError(KindForbidden, "only the project owner or an admin can delete this project")
	}

	if err := s.projects.DeleteProject(ctx, project.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newError(KindNotFound, "project %s not found", project.ID)
		}
		return fmt.Errorf("deleting project %s: %w", project.ID, err)
	}
	if err := s.images.DeletePrefix(context.WithoutCancel(ctx), projectPrefix(project.ID)); err != nil {
		s.logger.Error().Err(err).Str("project_id", project.ID).Msg("Failed to delete project images")
	}
	s.logger.Info().Str("project_id", project.ID).Str("account_id", account.ID).Msg("Project deleted")
	return nil
}

// DetectConflicts reviews a candidate fingerprint. It never blocks a save.
func (s *projectService) DetectConflicts(ctx context.Context, accountID string, fp model.BrandFingerprint) ([]model.Conflict, error) {
	account, err := loadActor(ctx, s.accounts, accountID)
	if err != nil {
		return nil, err
	}
	if !rbac.CapabilityFor(account, nil).CanDetectConflicts {
		return nil, newError(KindForbidden, "only brand managers can check guidelines for conflicts")
	}
	if err := s.validateFingerprint(&fp); err != nil {
		return nil, err
	}

	callCtx, cancel := withCallTimeout(ctx, s.callTimeout)
	defer cancel()
	conflicts, err := s.gateway.DetectConflicts(callCtx, fp)
	if err != nil {
		s.logger.Error().Err(err).Str("account_id", account.ID).Msg("Conflict detection failed")
		return nil, wrapError(KindUpstream, err, "conflict detection failed, please try again")
	}
	return conflicts, nil
}
