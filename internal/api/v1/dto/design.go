package dto

import "brandguard/internal/model"

// AnalyzeDesignDTO submits a design for compliance analysis.
type AnalyzeDesignDTO struct {
	Image            string                  `json:"image" validate:"required,startswith=data:"`
	DesignContext    string                  `json:"design_context" validate:"required,max=200"`
	BrandFingerprint *model.BrandFingerprint `json:"brand_fingerprint,omitempty"`
}

type ReviewDesignDTO struct {
	Status          model.DesignStatus `json:"status" validate:"required,oneof=approved rejected"`
	ManagerFeedback string             `json:"manager_feedback" validate:"max=5000"`
}

type AnnotateDesignDTO struct {
	Notes                 *string   `json:"notes,omitempty" validate:"omitempty,max=5000"`
	Tags                  *[]string `json:"tags,omitempty" validate:"omitempty,max=50,dive,max=100"`
	PeerFeedbackRequested *bool     `json:"peer_feedback_requested,omitempty"`
}
