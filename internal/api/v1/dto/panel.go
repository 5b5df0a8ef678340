package dto

import "brandguard/internal/model"

// PanelDesignDTO is sent by the embedded panel, which has no session and
// identifies the project explicitly.
type PanelDesignDTO struct {
	ProjectID     string `json:"project_id" validate:"required"`
	Image         string `json:"image" validate:"required,startswith=data:"`
	DesignContext string `json:"design_context" validate:"required,max=200"`
}

type PanelApplyFixesDTO struct {
	ProjectID string      `json:"project_id" validate:"required"`
	Image     string      `json:"image" validate:"required,startswith=data:"`
	Fixes     []model.Fix `json:"fixes" validate:"required,min=1,dive"`
}

type PanelScoreResponseDTO struct {
	ComplianceScore int    `json:"compliance_score"`
	Feedback        string `json:"feedback"`
}

type PanelFixesResponseDTO struct {
	Fixes []model.Fix `json:"fixes"`
}
