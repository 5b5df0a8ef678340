package handler

import (
	"net/http"

	"brandguard/internal/api/v1/dto"
	"brandguard/internal/middleware"
	"brandguard/internal/model"
	"brandguard/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// ToolboxHandler serves brand-driven generation tools for a project
type ToolboxHandler struct {
	toolboxService service.ToolboxService
	validate       *validator.Validate
	maxImageBytes  int64
	logger         zerolog.Logger
}

// NewToolboxHandler creates a new ToolboxHandler
func NewToolboxHandler(toolboxService service.ToolboxService, validate *validator.Validate, maxImageBytes int64, logger zerolog.Logger) *ToolboxHandler {
	return &ToolboxHandler{toolboxService: toolboxService, validate: validate, maxImageBytes: maxImageBytes, logger: logger}
}

// RegisterRoutes mounts toolbox routes
func (h *ToolboxHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("POST /projects/{projectId}/toolbox/colors", authMw(http.HandlerFunc(h.extractColors)))
	mux.Handle("POST /projects/{projectId}/toolbox/templates", authMw(http.HandlerFunc(h.generateTemplates)))
	mux.Handle("POST /projects/{projectId}/toolbox/layout", authMw(http.HandlerFunc(h.generateLayout)))
	mux.Handle("POST /projects/{projectId}/toolbox/designs", authMw(http.HandlerFunc(h.promptToDesign)))
	mux.Handle("POST /projects/{projectId}/assistant", authMw(http.HandlerFunc(h.ask)))
}

// extractColors godoc
// @Summary Extract colors from an image
// @Description Returns the dominant colors of an image and how they fit the project's brand.
// @Tags toolbox
// @Accept json
// @Produce json
// @Param projectId path string true "Project ID"
// @Param request body dto.ExtractColorsDTO true "Image"
// @Success 200 {object} dto.ExtractColorsResponseDTO
// @Failure 400 {object} dto.ErrorResponseDTO
// @Failure 403 {object} dto.ErrorResponseDTO
// @Failure 502 {object} dto.ErrorResponseDTO
// @Router /projects/{projectId}/toolbox/colors [post]
func (h *ToolboxHandler) extractColors(w http.ResponseWriter, r *http.Request) {
	var req dto.ExtractColorsDTO
	if !decodeAndValidate(w, r, h.validate, bodyLimit(h.maxImageBytes, 1), &req) {
		return
	}
	img, ok := parseImage(w, "image", req.Image, h.maxImageBytes)
	if !ok {
		return
	}
	res, err := h.toolboxService.ExtractColors(r.Context(), middleware.AccountID(r.Context()), r.PathValue("projectId"), img)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ExtractColorsResponseDTO{ExtractedColors: res.Colors, ComplianceFeedback: res.Feedback})
}

// generateTemplates godoc
// @Summary Generate brand templates
// @Description Generates one starter template per supported kind. Brand managers only.
// @Tags toolbox
// @Produce json
// @Param projectId path string true "Project ID"
// @Success 200 {object} dto.TemplatesResponseDTO
// @Failure 403 {object} dto.ErrorResponseDTO
// @Failure 502 {object} dto.ErrorResponseDTO
// @Router /projects/{projectId}/toolbox/templates [post]
func (h *ToolboxHandler) generateTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.toolboxService.GenerateTemplates(r.Context(), middleware.AccountID(r.Context()), r.PathValue("projectId"))
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	out := make([]dto.TemplateDTO, 0, len(templates))
	for _, t := range templates {
		out = append(out, dto.TemplateDTO{TemplateName: string(t.Kind), Image: t.Image.DataURI()})
	}
	writeJSON(w, http.StatusOK, dto.TemplatesResponseDTO{Templates: out})
}

// generateLayout godoc
// @Summary Generate a layout
// @Description Composes an on-brand design from a headline, body text and image prompt. At least one is required.
// @Tags toolbox
// @Accept json
// @Produce json
// @Param projectId path string true "Project ID"
// @Param request body dto.GenerateLayoutDTO true "Content"
// @Success 200 {object} dto.ImageResponseDTO
// @Failure 400 {object} dto.ErrorResponseDTO
// @Failure 502 {object} dto.ErrorResponseDTO
// @Router /projects/{projectId}/toolbox/layout [post]
func (h *ToolboxHandler) generateLayout(w http.ResponseWriter, r *http.Request) {
	var req dto.GenerateLayoutDTO
	if !decodeAndValidate(w, r, h.validate, 64<<10, &req) {
		return
	}
	img, err := h.toolboxService.GenerateLayout(r.Context(), middleware.AccountID(r.Context()), r.PathValue("projectId"), service.LayoutRequest{
		Headline:    req.Headline,
		BodyText:    req.BodyText,
		ImagePrompt: req.ImagePrompt,
	})
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ImageResponseDTO{Image: img.DataURI()})
}

// promptToDesign godoc
// @Summary Generate a design from a prompt
// @Tags toolbox
// @Accept json
// @Produce json
// @Param projectId path string true "Project ID"
// @Param request body dto.PromptToDesignDTO true "Prompt"
// @Success 200 {object} dto.ImageResponseDTO
// @Failure 400 {object} dto.ErrorResponseDTO
// @Failure 502 {object} dto.ErrorResponseDTO
// @Router /projects/{projectId}/toolbox/designs [post]
func (h *ToolboxHandler) promptToDesign(w http.ResponseWriter, r *http.Request) {
	var req dto.PromptToDesignDTO
	if !decodeAndValidate(w, r, h.validate, 64<<10, &req) {
		return
	}
	img, err := h.toolboxService.PromptToDesign(r.Context(), middleware.AccountID(r.Context()), r.PathValue("projectId"), req.Prompt)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ImageResponseDTO{Image: img.DataURI()})
}

// ask godoc
// @Summary Ask the brand assistant
// @Tags toolbox
// @Accept json
// @Produce json
// @Param projectId path string true "Project ID"
// @Param request body dto.AssistantDTO true "Question"
// @Success 200 {object} dto.AssistantResponseDTO
// @Failure 400 {object} dto.ErrorResponseDTO
// @Failure 502 {object} dto.ErrorResponseDTO
// @Router /projects/{projectId}/assistant [post]
func (h *ToolboxHandler) ask(w http.ResponseWriter, r *http.Request) {
	var req dto.AssistantDTO
	if !decodeAndValidate(w, r, h.validate, bodyLimit(h.maxImageBytes, 1), &req) {
		return
	}
	design, ok := optionalImage(w, req.Image, h.maxImageBytes)
	if !ok {
		return
	}
	answer, err := h.toolboxService.Ask(r.Context(), middleware.AccountID(r.Context()), r.PathValue("projectId"), req.Query, design)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.AssistantResponseDTO{Response: answer})
}

// optionalImage parses uri when present. A nil image means none was sent.
func optionalImage(w http.ResponseWriter, uri string, maxImageBytes int64) (*model.Image, bool) {
	if uri == "" {
		return nil, true
	}
	img, ok := parseImage(w, "image", uri, maxImageBytes)
	if !ok {
		return nil, false
	}
	return &img, true
}
