package dto

import "brandguard/internal/model"

// ApplyFixesDTO requests a corrected preview. Either DesignID or Image (plus
// BrandFingerprint) selects the source.
type ApplyFixesDTO struct {
	DesignID         string                  `json:"design_id" validate:"required_without=Image"`
	Image            string                  `json:"image" validate:"omitempty,startswith=data:"`
	BrandFingerprint *model.BrandFingerprint `json:"brand_fingerprint,omitempty"`
	Fixes            []model.Fix             `json:"fixes" validate:"required,min=1,dive"`
}

type HighlightDifferencesDTO struct {
	OriginalImage  string `json:"original_image" validate:"required,startswith=data:"`
	CorrectedImage string `json:"corrected_image" validate:"required,startswith=data:"`
}

// ImageResponseDTO carries a generated image as a data URI.
type ImageResponseDTO struct {
	Image string `json:"image"`
}
