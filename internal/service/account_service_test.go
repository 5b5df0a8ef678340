package service

import (
	"context"
	"errors"
	"testing"

	"brandguard/internal/model"
)

func TestEnsureAccountIsIdempotent(t *testing.T) {
	store := newMemStore()
	svc := NewAccountService(store, nopLogger)
	ctx := context.Background()

	a, err := svc.EnsureAccount(ctx, "u1", "u1@example.com", "User One")
	if err != nil {
		t.Fatalf("EnsureAccount: %v", err)
	}
	if a.Role != model.RoleMember || a.Plan != model.PlanFree || a.AnalysisLimit != 5 {
		t.Errorf("unexpected new account %+v", a)
	}

	_, _ = store.UpdateRoleAndPlan(ctx, "u1", model.RoleBrandManager, model.PlanPro)
	again, err := svc.EnsureAccount(ctx, "u1", "u1@example.com", "User One")
	if err != nil {
		t.Fatalf("EnsureAccount: %v", err)
	}
	if again.Role != model.RoleBrandManager {
		t.Error("existing account must not be reset")
	}

	if _, err := svc.EnsureAccount(ctx, "", "", ""); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("err = %v, want unauthenticated", err)
	}
}

func TestUpdateAccountByAdmin(t *testing.T) {
	store := newMemStore()
	store.addAccount("adm", model.RoleAdmin, model.PlanEnterprise)
	store.addAccount("mgr", model.RoleBrandManager, model.PlanPro)
	store.addAccount("u", model.RoleMember, model.PlanFree)
	svc := NewAccountService(store, nopLogger)
	ctx := context.Background()

	pro := model.PlanPro
	enterprise := model.PlanEnterprise
	bogus := model.Plan("platinum")
	manager := model.RoleBrandManager

	if _, err := svc.UpdateAccountByAdmin(ctx, "mgr", "u", AdminAccountUpdate{Plan: &pro}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("manager err = %v, want forbidden", err)
	}
	if _, err := svc.UpdateAccountByAdmin(ctx, "adm", "u", AdminAccountUpdate{Plan: &bogus}); !errors.Is(err, ErrValidation) {
		t.Fatalf("bogus plan err = %v, want validation_error", err)
	}
	if _, err := svc.UpdateAccountByAdmin(ctx, "adm", "ghost", AdminAccountUpdate{Plan: &pro}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown target err = %v, want not_found", err)
	}

	a, err := svc.UpdateAccountByAdmin(ctx, "adm", "u", AdminAccountUpdate{Plan: &pro})
	if err != nil {
		t.Fatalf("UpdateAccountByAdmin: %v", err)
	}
	if a.AnalysisLimit != 100 || a.Role != model.RoleMember {
		t.Errorf("limit=%d role=%s, want 100 member", a.AnalysisLimit, a.Role)
	}

	a, err = svc.UpdateAccountByAdmin(ctx, "adm", "u", AdminAccountUpdate{Role: &manager, Plan: &enterprise})
	if err != nil {
		t.Fatalf("UpdateAccountByAdmin: %v", err)
	}
	if a.AnalysisLimit != model.UnlimitedAnalyses || a.Role != model.RoleBrandManager {
		t.Errorf("limit=%d role=%s", a.AnalysisLimit, a.Role)
	}
}

func TestListAccountsRequiresAdmin(t *testing.T) {
	store := newMemStore()
	store.addAccount("adm", model.RoleAdmin, model.PlanEnterprise)
	store.addAccount("u", model.RoleMember, model.PlanFree)
	svc := NewAccountService(store, nopLogger)

	if _, err := svc.ListAccounts(context.Background(), "u", 10, 0); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want forbidden", err)
	}
	accounts, err := svc.ListAccounts(context.Background(), "adm", 0, -3)
	if err != nil || len(accounts) != 2 {
		t.Fatalf("accounts = %d, err = %v", len(accounts), err)
	}
}
