package model

import (
	"slices"
	"time"
)

type Role string

const (
	RoleMember       Role = "member"
	RoleBrandManager Role = "brand_manager"
	RoleAdmin        Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleBrandManager, RoleAdmin:
		return true
	}
	return false
}

// IsManager reports whether the role carries brand management rights.
func (r Role) IsManager() bool {
	return r == RoleBrandManager || r == RoleAdmin
}

type Plan string

const (
	PlanFree       Plan = "free"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// UnlimitedAnalyses marks a plan without a monthly cap.
const UnlimitedAnalyses = -1

var planLimits = map[Plan]int{
	PlanFree:       5,
	PlanPro:        100,
	PlanEnterprise: UnlimitedAnalyses,
}

func (p Plan) Valid() bool {
	_, ok := planLimits[p]
	return ok
}

// AnalysisLimit is the monthly analysis cap for the plan. Unknown plans get
// the free allowance.
func (p Plan) AnalysisLimit() int {
	if limit, ok := planLimits[p]; ok {
		return limit
	}
	return planLimits[PlanFree]
}

// Account represents a registered user of the dashboard.
type Account struct {
	ID                   string    `db:"id" json:"id"`
	Email                string    `db:"email" json:"email"`
	Name                 string    `db:"name" json:"name"`
	Role                 Role      `db:"role" json:"role"`
	Plan                 Plan      `db:"plan" json:"subscription_plan"`
	MonthlyAnalysisCount int       `db:"monthly_analysis_count" json:"monthly_analysis_count"`
	AnalysisReserved     int       `db:"analysis_reserved" json:"-"`
	AnalysisLimit        int       `db:"analysis_limit" json:"analysis_limit"`
	Achievements         []string  `db:"achievements" json:"achievements"`
	HighScoreStreak      int       `db:"high_score_streak" json:"high_score_streak"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}

// NewAccount returns a member account on the free plan.
func NewAccount(id, email, name string) *Account {
	a := &Account{ID: id, Email: email, Name: name, Role: RoleMember, Achievements: []string{}}
	a.SetPlan(PlanFree)
	return a
}

// SetPlan changes the plan and recomputes the limit from it.
func (a *Account) SetPlan(p Plan) {
	a.Plan = p
	a.AnalysisLimit = p.AnalysisLimit()
}

func (a *Account) HasAchievement(id string) bool {
	return slices.Contains(a.Achievements, id)
}

// RemainingAnalyses returns how many analyses are left this month, or
// UnlimitedAnalyses.
func (a *Account) RemainingAnalyses() int {
	if a.AnalysisLimit == UnlimitedAnalyses {
		return UnlimitedAnalyses
	}
	return max(a.AnalysisLimit-a.MonthlyAnalysisCount-a.AnalysisReserved, 0)
}
