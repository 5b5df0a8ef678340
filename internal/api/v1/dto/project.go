package dto

import "brandguard/internal/model"

// ProjectCreateDTO creates a project. Logo is a data URI; the fingerprint is
// derived from it.
type ProjectCreateDTO struct {
	Name             string `json:"name" validate:"required,max=200"`
	BrandDescription string `json:"brand_description" validate:"max=5000"`
	Logo             string `json:"logo" validate:"required,startswith=data:"`
}

// ProjectUpdateDTO edits a project. BrandFingerprint is applied only for
// brand managers and admins.
type ProjectUpdateDTO struct {
	Name             string                  `json:"name" validate:"required,max=200"`
	BrandDescription string                  `json:"brand_description" validate:"max=5000"`
	BrandFingerprint *model.BrandFingerprint `json:"brand_fingerprint,omitempty"`
}

type ConflictCheckDTO struct {
	BrandFingerprint model.BrandFingerprint `json:"brand_fingerprint" validate:"required"`
}

type ConflictResponseDTO struct {
	Conflicts []model.Conflict `json:"conflicts"`
}

type AssetCreateDTO struct {
	Name  string `json:"name" validate:"required,max=200"`
	Image string `json:"image" validate:"required,startswith=data:"`
}
