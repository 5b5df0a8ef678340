package dto

import "brandguard/internal/model"

// AccountCreateDTO is the optional profile sent on first sign in. Claims from
// the token are used when fields are empty.
type AccountCreateDTO struct {
	Name  string `json:"name" validate:"omitempty,max=200"`
	Email string `json:"email" validate:"omitempty,email"`
}

type AccountProfileUpdateDTO struct {
	Name string `json:"name" validate:"required,max=200"`
}

// AdminAccountUpdateDTO changes another account's role and/or plan.
type AdminAccountUpdateDTO struct {
	Role             *model.Role `json:"role,omitempty" validate:"omitempty,oneof=member brand_manager admin"`
	SubscriptionPlan *model.Plan `json:"subscription_plan,omitempty" validate:"omitempty,oneof=free pro enterprise"`
}

// AccountResponseDTO adds the derived quota view to an account.
type AccountResponseDTO struct {
	*model.Account
	RemainingAnalyses int `json:"remaining_analyses"`
}

func NewAccountResponse(a *model.Account) AccountResponseDTO {
	return AccountResponseDTO{Account: a, RemainingAnalyses: a.RemainingAnalyses()}
}
