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

const maxAccountPage = 100

// AdminAccountUpdate changes the role and/or plan of another account. Nil
// fields are left unchanged.
type AdminAccountUpdate struct {
	Role *model.Role
	Plan *model.Plan
}

type AccountService interface {
	EnsureAccount(ctx context.Context, accountID, email, name string) (*model.Account, error)
	GetAccount(ctx context.Context, accountID string) (*model.Account, error)
	UpdateProfile(ctx context.Context, accountID, name string) (*model.Account, error)
	ListAccounts(ctx context.Context, actorID string, limit, offset int) ([]model.Account, error)
	UpdateAccountByAdmin(ctx context.Context, actorID, targetID string, update AdminAccountUpdate) (*model.Account, error)
}

type accountService struct {
	accounts repository.AccountRepository
	logger   zerolog.Logger
}

func NewAccountService(accounts repository.AccountRepository, logger zerolog.Logger) AccountService {
	return &accountService{
		accounts: accounts,
		logger:   logger.With().Str("service", "AccountService").Logger(),
	}
}

// EnsureAccount registers the caller on first sign in and returns the stored
// account otherwise.
func (s *accountService) EnsureAccount(ctx context.Context, accountID, email, name string) (*model.Account, error) {
	if accountID == "" {
		return nil, newError(KindUnauthenticated, "authentication required")
	}
	account, err := s.accounts.EnsureAccount(ctx, model.NewAccount(accountID, email, name))
	if err != nil {
		return nil, fmt.Errorf("ensuring account %s: %w", accountID, err)
	}
	return account, nil
}

func (s *accountService) GetAccount(ctx context.Context, accountID string) (*model.Account, error) {
	return loadActor(ctx, s.accounts, accountID)
}

func (s *accountService) UpdateProfile(ctx context.Context, accountID, name string) (*model.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, newError(KindValidation, "name is required")
	}
	if _, err := loadActor(ctx, s.accounts, accountID); err != nil {
		return nil, err
	}
	account, err := s.accounts.UpdateProfile(ctx, accountID, name)
	if err != nil {
		return nil, fmt.Errorf("updating profile of %s: %w", accountID, err)
	}
	return account, nil
}

func (s *accountService) ListAccounts(ctx context.Context, actorID string, limit, offset int) ([]model.Account, error) {
	actor, err := loadActor(ctx, s.accounts, actorID)
	if err != nil {
		return nil, err
	}
	if !rbac.CapabilityFor(actor, nil).CanAdministerAccounts {
		return nil, newError(KindForbidden, "only admins can list accounts")
	}
	if limit <= 0 || limit > maxAccountPage {
		limit = maxAccountPage
	}
	offset = max(offset, 0)

	accounts, err := s.accounts.ListAccounts(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	return accounts, nil
}

// UpdateAccountByAdmin changes role and plan. The analysis limit is always
// recomputed from the resulting plan.
func (s *accountService) UpdateAccountByAdmin(ctx context.Context, actorID, targetID string, update AdminAccountUpdate) (*model.Account, error) {
	if update.Role == nil && update.Plan == nil {
		return nil, newError(KindValidation, "nothing to update")
	}
	if update.Role != nil && !update.Role.Valid() {
		return nil, newError(KindValidation, "unknown role %q", *update.Role)
	}
	if update.Plan != nil && !update.Plan.Valid() {
		return nil, newError(KindValidation, "unknown subscription plan %q", *update.Plan)
	}

	actor, err := loadActor(ctx, s.accounts, actorID)
	if err != nil {
		return nil, err
	}
	if !rbac.CapabilityFor(actor, nil).CanAdministerAccounts {
		return nil, newError(KindForbidden, "only admins can change accounts")
	}

	target, err := s.accounts.GetAccountByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(KindNotFound, "account %s not found", targetID)
		}
		return nil, fmt.Errorf("loading account %s: %w", targetID, err)
	}

	role, plan := target.Role, target.Plan
	if update.Role != nil {
		role = *update.Role
	}
	if update.Plan != nil {
		plan = *update.Plan
	}
	updated, err := s.accounts.UpdateRoleAndPlan(ctx, target.ID, role, plan)
	if err != nil {
		return nil, fmt.Errorf("updating account %s: %w", target.ID, err)
	}
	s.logger.Info().
		Str("actor_id", actor.ID).
		Str("account_id", updated.ID).
		Str("role", string(updated.Role)).
		Str("plan", string(updated.Plan)).
		Int("analysis_limit", updated.AnalysisLimit).
		Msg("Account updated by admin")
	return updated, nil
}
