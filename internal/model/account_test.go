package model

import "testing"

func TestPlanAnalysisLimit(t *testing.T) {
	tests := []struct {
		plan Plan
		want int
	}{
		{PlanFree, 5},
		{PlanPro, 100},
		{PlanEnterprise, UnlimitedAnalyses},
		{Plan("platinum"), 5},
	}
	for _, tt := range tests {
		if got := tt.plan.AnalysisLimit(); got != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.plan, tt.want, got)
		}
	}
}

func TestSetPlanRecomputesLimit(t *testing.T) {
	a := NewAccount("acc-1", "a@example.com", "A")
	if a.AnalysisLimit != 5 || a.Role != RoleMember {
		t.Fatalf("unexpected defaults: %+v", a)
	}
	a.SetPlan(PlanEnterprise)
	if a.AnalysisLimit != UnlimitedAnalyses {
		t.Fatalf("expected unlimited, got %d", a.AnalysisLimit)
	}
	a.SetPlan(PlanPro)
	if a.AnalysisLimit != 100 {
		t.Fatalf("expected 100, got %d", a.AnalysisLimit)
	}
}

func TestRemainingAnalyses(t *testing.T) {
	a := NewAccount("acc-1", "", "")
	a.MonthlyAnalysisCount = 3
	a.AnalysisReserved = 1
	if got := a.RemainingAnalyses(); got != 1 {
		t.Fatalf("expected 1 remaining, got %d", got)
	}
	a.MonthlyAnalysisCount = 7
	if got := a.RemainingAnalyses(); got != 0 {
		t.Fatalf("expected 0 remaining, got %d", got)
	}
	a.SetPlan(PlanEnterprise)
	if got := a.RemainingAnalyses(); got != UnlimitedAnalyses {
		t.Fatalf("expected unlimited, got %d", got)
	}
}

func TestRoleIsManager(t *testing.T) {
	if RoleMember.IsManager() {
		t.Error("member must not be a manager")
	}
	if !RoleBrandManager.IsManager() || !RoleAdmin.IsManager() {
		t.Error("brand_manager and admin must be managers")
	}
	if Role("owner").Valid() {
		t.Error("unknown role must be invalid")
	}
}
