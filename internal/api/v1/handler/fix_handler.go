package handler

import (
	"net/http"

	"brandguard/internal/api/v1/dto"
	"brandguard/internal/middleware"
	"brandguard/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// FixHandler serves corrected previews and visual diffs
type FixHandler struct {
	fixService    service.FixService
	validate      *validator.Validate
	maxImageBytes int64
	logger        zerolog.Logger
}

// NewFixHandler creates a new FixHandler
func NewFixHandler(fixService service.FixService, validate *validator.Validate, maxImageBytes int64, logger zerolog.Logger) *FixHandler {
	return &FixHandler{fixService: fixService, validate: validate, maxImageBytes: maxImageBytes, logger: logger}
}

// RegisterRoutes mounts fix routes
func (h *FixHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("POST /fixes/apply", authMw(http.HandlerFunc(h.applyFixes)))
	mux.Handle("POST /differences", authMw(http.HandlerFunc(h.highlightDifferences)))
}

// applyFixes godoc
// @Summary Apply suggested fixes
// @Description Returns a corrected preview. Nothing is stored.
// @Tags fixes
// @Accept json
// @Produce json
// @Param request body dto.ApplyFixesDTO true "Source and fixes"
// @Success 200 {object} dto.ImageResponseDTO
// @Failure 400 {object} dto.ErrorResponseDTO
// @Failure 403 {object} dto.ErrorResponseDTO
// @Failure 502 {object} dto.ErrorResponseDTO
// @Router /fixes/apply [post]
func (h *FixHandler) applyFixes(w http.ResponseWriter, r *http.Request) {
	var req dto.ApplyFixesDTO
	if !decodeAndValidate(w, r, h.validate, bodyLimit(h.maxImageBytes, 1), &req) {
		return
	}
	in := service.ApplyFixesInput{
		AccountID:   middleware.AccountID(r.Context()),
		DesignID:    req.DesignID,
		Fingerprint: req.BrandFingerprint,
		Fixes:       req.Fixes,
	}
	if req.Image != "" {
		img, ok := parseImage(w, "image", req.Image, h.maxImageBytes)
		if !ok {
			return
		}
		in.Image = &img
	}
	corrected, err := h.fixService.ApplyFixes(r.Context(), in)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ImageResponseDTO{Image: corrected.DataURI()})
}

// highlightDifferences godoc
// @Summary Highlight differences
// @Description Annotates what changed between an original and a corrected image.
// @Tags fixes
// @Accept json
// @Produce json
// @Param request body dto.HighlightDifferencesDTO true "Images"
// @Success 200 {object} dto.ImageResponseDTO
// @Failure 400 {object} dto.ErrorResponseDTO
// @Failure 502 {object} dto.ErrorResponseDTO
// @Router /differences [post]
func (h *FixHandler) highlightDifferences(w http.ResponseWriter, r *http.Request) {
	var req dto.HighlightDifferencesDTO
	if !decodeAndValidate(w, r, h.validate, bodyLimit(h.maxImageBytes, 2), &req) {
		return
	}
	original, ok := parseImage(w, "original_image", req.OriginalImage, h.maxImageBytes)
	if !ok {
		return
	}
	corrected, ok := parseImage(w, "corrected_image", req.CorrectedImage, h.maxImageBytes)
	if !ok {
		return
	}
	annotated, err := h.fixService.HighlightDifferences(r.Context(), middleware.AccountID(r.Context()), original, corrected)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ImageResponseDTO{Image: annotated.DataURI()})
}
