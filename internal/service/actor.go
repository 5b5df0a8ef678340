package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"brandguard/internal/model"
	"brandguard/internal/repository"
)

// loadActor resolves the authenticated account behind a request.
func loadActor(ctx context.Context, accounts repository.AccountRepository, accountID string) (*model.Account, error) {
	if accountID == "" {
		return nil, newError(KindUnauthenticated, "authentication required")
	}
	account, err := accounts.GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(KindUnauthenticated, "account is not registered")
		}
		return nil, fmt.Errorf("loading account %s: %w", accountID, err)
	}
	return account, nil
}

func loadProject(ctx context.Context, projects repository.ProjectRepository, projectID string) (*model.Project, error) {
	if projectID == "" {
		return nil, newError(KindValidation, "project id is required")
	}
	project, err := projects.GetProjectByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(KindNotFound, "project %s not found", projectID)
		}
		return nil, fmt.Errorf("loading project %s: %w", projectID, err)
	}
	return project, nil
}

func loadDesign(ctx context.Context, designs repository.DesignRepository, designID string) (*model.Design, error) {
	if designID == "" {
		return nil, newError(KindValidation, "design id is required")
	}
	design, err := designs.GetDesignByID(ctx, designID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(KindNotFound, "design %s not found", designID)
		}
		return nil, fmt.Errorf("loading design %s: %w", designID, err)
	}
	return design, nil
}

// withCallTimeout bounds a single model gateway round trip.
func withCallTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
