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

// DesignHandler handles design submission, review and annotation
type DesignHandler struct {
	analysisService service.AnalysisService
	designService   service.DesignService
	validate        *validator.Validate
	maxImageBytes   int64
	logger          zerolog.Logger
}

// NewDesignHandler creates a new DesignHandler
func NewDesignHandler(analysisService service.AnalysisService, designService service.DesignService, validate *validator.Validate, maxImageBytes int64, logger zerolog.Logger) *DesignHandler {
	return &DesignHandler{
		analysisService: analysisService,
		designService:   designService,
		validate:        validate,
		maxImageBytes:   maxImageBytes,
		logger:          logger,
	}
}

// RegisterRoutes mounts design routes
func (h *DesignHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("POST /projects/{projectId}/designs", authMw(http.HandlerFunc(h.analyzeDesign)))
	mux.Handle("GET /projects/{projectId}/designs", authMw(http.HandlerFunc(h.listDesigns)))
	mux.Handle("GET /designs/{designId}", authMw(http.HandlerFunc(h.getDesign)))
	mux.Handle("POST /designs/{designId}/review", authMw(http.HandlerFunc(h.reviewDesign)))
	mux.Handle("PATCH /designs/{designId}/annotations", authMw(http.HandlerFunc(h.annotateDesign)))
}

// analyzeDesign godoc
// @Summary Analyze a design
// @Description Scores the design against the project's brand fingerprint and suggests fixes. Consumes one analysis from the monthly quota.
// @Tags designs
// @Accept json
// @Produce json
// @Param projectId path string true "Project ID"
// @Param design body dto.AnalyzeDesignDTO true "Design"
// @Success 201 {object} service.ComplianceResult
// @Failure 400 {object} dto.ErrorResponseDTO
// @Failure 403 {object} dto.ErrorResponseDTO
// @Failure 429 {object} dto.ErrorResponseDTO "Monthly analysis limit reached"
// @Failure 502 {object} dto.ErrorResponseDTO "Analysis failed"
// @Router /projects/{projectId}/designs [post]
func (h *DesignHandler) analyzeDesign(w http.ResponseWriter, r *http.Request) {
	var req dto.AnalyzeDesignDTO
	if !decodeAndValidate(w, r, h.validate, bodyLimit(h.maxImageBytes, 1), &req) {
		return
	}
	img, ok := parseImage(w, "image", req.Image, h.maxImageBytes)
	if !ok {
		return
	}
	res, err := h.analysisService.Analyze(r.Context(), service.AnalyzeInput{
		AccountID:     middleware.AccountID(r.Context()),
		ProjectID:     r.PathValue("projectId"),
		Image:         img,
		DesignContext: req.DesignContext,
		Fingerprint:   req.BrandFingerprint,
	})
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// listDesigns godoc
// @Summary List designs of a project
// @Tags designs
// @Produce json
// @Param projectId path string true "Project ID"
// @Param mine query bool false "Only the caller's designs"
// @Success 200 {array} model.Design
// @Failure 403 {object} dto.ErrorResponseDTO
// @Failure 404 {object} dto.ErrorResponseDTO
// @Router /projects/{projectId}/designs [get]
func (h *DesignHandler) listDesigns(w http.ResponseWriter, r *http.Request) {
	mine := r.URL.Query().Get("mine") == "true"
	designs, err := h.designService.ListDesigns(r.Context(), r.PathValue("projectId"), middleware.AccountID(r.Context()), mine)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, designs)
}

// getDesign godoc
// @Summary Get a design
// @Tags designs
// @Produce json
// @Param designId path string true "Design ID"
// @Success 200 {object} service.DesignView
// @Failure 403 {object} dto.ErrorResponseDTO
// @Failure 404 {object} dto.ErrorResponseDTO
// @Router /designs/{designId} [get]
func (h *DesignHandler) getDesign(w http.ResponseWriter, r *http.Request) {
	view, err := h.designService.GetDesign(r.Context(), r.PathValue("designId"), middleware.AccountID(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// reviewDesign godoc
// @Summary Review a design
// @Description Brand managers and admins. Pending designs move to approved or rejected exactly once; rejecting requires feedback.
// @Tags designs
// @Accept json
// @Produce json
// @Param designId path string true "Design ID"
// @Param review body dto.ReviewDesignDTO true "Decision"
// @Success 200 {object} model.Design
// @Failure 400 {object} dto.ErrorResponseDTO
// @Failure 403 {object} dto.ErrorResponseDTO
// @Failure 409 {object} dto.ErrorResponseDTO "Design already reviewed"
// @Router /designs/{designId}/review [post]
func (h *DesignHandler) reviewDesign(w http.ResponseWriter, r *http.Request) {
	var req dto.ReviewDesignDTO
	if !decodeAndValidate(w, r, h.validate, 64<<10, &req) {
		return
	}
	design, err := h.designService.Review(r.Context(), service.ReviewInput{
		DesignID:        r.PathValue("designId"),
		ReviewerID:      middleware.AccountID(r.Context()),
		Status:          req.Status,
		ManagerFeedback: req.ManagerFeedback,
	})
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, design)
}

// annotateDesign godoc
// @Summary Annotate your own design
// @Description Notes, tags and the peer feedback flag. Submitter only, in any status.
// @Tags designs
// @Accept json
// @Produce json
// @Param designId path string true "Design ID"
// @Param annotations body dto.AnnotateDesignDTO true "Annotations"
// @Success 200 {object} model.Design
// @Failure 400 {object} dto.ErrorResponseDTO
// @Failure 403 {object} dto.ErrorResponseDTO
// @Router /designs/{designId}/annotations [patch]
func (h *DesignHandler) annotateDesign(w http.ResponseWriter, r *http.Request) {
	var req dto.AnnotateDesignDTO
	if !decodeAndValidate(w, r, h.validate, 64<<10, &req) {
		return
	}
	design, err := h.designService.AnnotateDesign(r.Context(), r.PathValue("designId"), middleware.AccountID(r.Context()), model.DesignAnnotations{
		Notes:                 req.Notes,
		Tags:                  req.Tags,
		PeerFeedbackRequested: req.PeerFeedbackRequested,
	})
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, design)
}
