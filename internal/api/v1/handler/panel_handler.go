package handler

import (
	"net/http"

	"brandguard/internal/api/v1/dto"
	"brandguard/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// PanelHandler serves the embedded panel. Routes are unauthenticated.
type PanelHandler struct {
	panelService  service.PanelService
	validate      *validator.Validate
	maxImageBytes int64
	logger        zerolog.Logger
}

func NewPanelHandler(panelService service.PanelService, validate *validator.Validate, maxImageBytes int64, logger zerolog.Logger) *PanelHandler {
	return &PanelHandler{panelService: panelService, validate: validate, maxImageBytes: maxImageBytes, logger: logger}
}

func (h *PanelHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /panel/score", h.score)
	mux.HandleFunc("POST /panel/fixes", h.suggestFixes)
	mux.HandleFunc("POST /panel/apply-fixes", h.applyFixes)
	mux.HandleFunc("POST /panel/assistant", h.ask)
}

// score godoc
// @Summary Score a design from the embedded panel
// @Tags panel
// @Accept json
// @Produce json
// @Param request body dto.PanelDesignDTO true "Design"
// @Success 200 {object} dto.PanelScoreResponseDTO
// @Failure 400 {object} dto.ErrorResponseDTO
// @Failure 404 {object} dto.ErrorResponseDTO
// @Failure 502 {object} dto.ErrorResponseDTO
// @Router /panel/score [post]
func (h *PanelHandler) score(w http.ResponseWriter, r *http.Request) {
	var req dto.PanelDesignDTO
	if !decodeAndValidate(w, r, h.validate, bodyLimit(h.maxImageBytes, 1), &req) {
		return
	}
	img, ok := parseImage(w, "image", req.Image, h.maxImageBytes)
	if !ok {
		return
	}
	res, err := h.panelService.Score(r.Context(), req.ProjectID, img, req.DesignContext)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.PanelScoreResponseDTO{ComplianceScore: res.Score, Feedback: res.Feedback})
}

// suggestFixes godoc
// @Summary Suggest fixes from the embedded panel
// @Tags panel
// @Accept json
// @Produce json
// @Param request body dto.PanelDesignDTO true "Design"
// @Success 200 {object} dto.PanelFixesResponseDTO
// @Router /panel/fixes [post]
func (h *PanelHandler) suggestFixes(w http.ResponseWriter, r *http.Request) {
	var req dto.PanelDesignDTO
	if !decodeAndValidate(w, r, h.validate, bodyLimit(h.maxImageBytes, 1), &req) {
		return
	}
	img, ok := parseImage(w, "image", req.Image, h.maxImageBytes)
	if !ok {
		return
	}
	fixes, err := h.panelService.SuggestFixes(r.Context(), req.ProjectID, img, req.DesignContext)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.PanelFixesResponseDTO{Fixes: fixes})
}

// applyFixes godoc
// @Summary Apply fixes from the embedded panel
// @Tags panel
// @Accept json
// @Produce json
// @Param request body dto.PanelApplyFixesDTO true "Design and fixes"
// @Success 200 {object} dto.ImageResponseDTO
// @Router /panel/apply-fixes [post]
func (h *PanelHandler) applyFixes(w http.ResponseWriter, r *http.Request) {
	var req dto.PanelApplyFixesDTO
	if !decodeAndValidate(w, r, h.validate, bodyLimit(h.maxImageBytes, 1), &req) {
		return
	}
	img, ok := parseImage(w, "image", req.Image, h.maxImageBytes)
	if !ok {
		return
	}
	corrected, err := h.panelService.ApplyFixes(r.Context(), req.ProjectID, img, req.Fixes)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ImageResponseDTO{Image: corrected.DataURI()})
}

// ask godoc
// @Summary Ask the brand assistant from the embedded panel
// @Tags panel
// @Accept json
// @Produce json
// @Param request body dto.PanelAssistantDTO true "Question"
// @Success 200 {object} dto.AssistantResponseDTO
// @Router /panel/assistant [post]
func (h *PanelHandler) ask(w http.ResponseWriter, r *http.Request) {
	var req dto.PanelAssistantDTO
	if !decodeAndValidate(w, r, h.validate, bodyLimit(h.maxImageBytes, 1), &req) {
		return
	}
	design, ok := optionalImage(w, req.Image, h.maxImageBytes)
	if !ok {
		return
	}
	answer, err := h.panelService.Ask(r.Context(), req.ProjectID, req.Query, design)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.AssistantResponseDTO{Response: answer})
}
