package handler

import (
	"net/http"

	"brandguard/internal/api/v1/dto"
	"brandguard/internal/middleware"
	"brandguard/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// ProjectHandler handles projects, their fingerprints and assets
type ProjectHandler struct {
	projectService service.ProjectService
	assetService   service.AssetService
	validate       *validator.Validate
	maxImageBytes  int64
	logger         zerolog.Logger
}

// NewProjectHandler creates a new ProjectHandler
func NewProjectHandler(projectService service.ProjectService, assetService service.AssetService, validate *validator.Validate, maxImageBytes int64, logger zerolog.Logger) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		assetService:   assetService,
		validate:       validate,
		maxImageBytes:  maxImageBytes,
		logger:         logger,
	}
}

// RegisterRoutes mounts project routes
func (h *ProjectHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("POST /projects", authMw(http.HandlerFunc(h.createProject)))
	mux.Handle("GET /projects", authMw(http.HandlerFunc(h.listProjects)))
	mux.Handle("GET /projects/{projectId}", authMw(http.HandlerFunc(h.getProject)))
	mux.Handle("PUT /projects/{projectId}", authMw(http.HandlerFunc(h.updateProject)))
	mux.Handle("DELETE /projects/{projectId}", authMw(http.HandlerFunc(h.deleteProject)))
	mux.Handle("POST /projects/{projectId}/assets", authMw(http.HandlerFunc(h.createAsset)))
	mux.Handle("POST /brand/conflicts", authMw(http.HandlerFunc(h.detectConflicts)))
}

// createProject godoc
// @Summary Create a project
// @Description Derives the initial brand fingerprint from the logo and description.
// @Tags projects
// @Accept json
// @Produce json
// @Param project body dto.ProjectCreateDTO true "Project"
// @Success 201 {object} model.Project
// @Failure 400 {object} dto.ErrorResponseDTO
// @Failure 401 {object} dto.ErrorResponseDTO
// @Failure 502 {object} dto.ErrorResponseDTO
// @Router /projects [post]
func (h *ProjectHandler) createProject(w http.ResponseWriter, r *http.Request) {
	var req dto.ProjectCreateDTO
	if !decodeAndValidate(w, r, h.validate, bodyLimit(h.maxImageBytes, 1), &req) {
		return
	}
	logo, ok := parseImage(w, "logo", req.Logo, h.maxImageBytes)
	if !ok {
		return
	}
	project, err := h.projectService.CreateProject(r.Context(), service.CreateProjectInput{
		AccountID:        middleware.AccountID(r.Context()),
		Name:             req.Name,
		BrandDescription: req.BrandDescription,
		Logo:             logo,
	})
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

// listProjects godoc
// @Summary List projects
// @Description Owned projects, or every project for brand managers and admins.
// @Tags projects
// @Produce json
// @Success 200 {array} model.Project
// @Failure 401 {object} dto.ErrorResponseDTO
// @Router /projects [get]
func (h *ProjectHandler) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projectService.ListProjects(r.Context(), middleware.AccountID(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

// getProject godoc
// @Summary Get project details
// @Tags projects
// @Produce json
// @Param projectId path string true "Project ID"
// @Success 200 {object} service.ProjectDetails
// @Failure 403 {object} dto.ErrorResponseDTO
// @Failure 404 {object} dto.ErrorResponseDTO
// @Router /projects/{projectId} [get]
func (h *ProjectHandler) getProject(w http.ResponseWriter, r *http.Request) {
	details, err := h.projectService.GetProjectDetails(r.Context(), r.PathValue("projectId"), middleware.AccountID(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// updateProject godoc
// @Summary Update a project
// @Description Owners may change name and description. Fingerprint changes are applied for brand managers and admins only and are ignored otherwise.
// @Tags projects
// @Accept json
// @Produce json
// @Param projectId path string true "Project ID"
// @Param project body dto.ProjectUpdateDTO true "Changes"
// @Success 200 {object} model.Project
// @Failure 400 {object} dto.ErrorResponseDTO
// @Failure 403 {object} dto.ErrorResponseDTO
// @Failure 404 {object} dto.ErrorResponseDTO
// @Router /projects/{projectId} [put]
func (h *ProjectHandler) updateProject(w http.ResponseWriter, r *http.Request) {
	var req dto.ProjectUpdateDTO
	if !decodeAndValidate(w, r, h.validate, 64<<10, &req) {
		return
	}
	project, err := h.projectService.UpdateProject(r.Context(), service.UpdateProjectInput{
		ProjectID:        r.PathValue("projectId"),
		AccountID:        middleware.AccountID(r.Context()),
		Name:             req.Name,
		BrandDescription: req.BrandDescription,
		Fingerprint:      req.BrandFingerprint,
	})
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// deleteProject godoc
// @Summary Delete a project
// @Description Owner or admin. Removes designs, assets and stored images.
// @Tags projects
// @Param projectId path string true "Project ID"
// @Success 204
// @Failure 403 {object} dto.ErrorResponseDTO
// @Failure 404 {object} dto.ErrorResponseDTO
// @Router /projects/{projectId} [delete]
func (h *ProjectHandler) deleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.projectService.DeleteProject(r.Context(), r.PathValue("projectId"), middleware.AccountID(r.Context())); err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// createAsset godoc
// @Summary Add a brand asset
// @Description Brand managers and admins. Tagging runs asynchronously.
// @Tags assets
// @Accept json
// @Produce json
// @Param projectId path string true "Project ID"
// @Param asset body dto.AssetCreateDTO true "Asset"
// @Success 202 {object} model.Asset
// @Failure 400 {object} dto.ErrorResponseDTO
// @Failure 403 {object} dto.ErrorResponseDTO
// @Router /projects/{projectId}/assets [post]
func (h *ProjectHandler) createAsset(w http.ResponseWriter, r *http.Request) {
	var req dto.AssetCreateDTO
	if !decodeAndValidate(w, r, h.validate, bodyLimit(h.maxImageBytes, 1), &req) {
		return
	}
	img, ok := parseImage(w, "image", req.Image, h.maxImageBytes)
	if !ok {
		return
	}
	asset, err := h.assetService.CreateAsset(r.Context(), service.CreateAssetInput{
		AccountID: middleware.AccountID(r.Context()),
		ProjectID: r.PathValue("projectId"),
		Name:      req.Name,
		Image:     img,
	})
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, asset)
}

// detectConflicts godoc
// @Summary Check a fingerprint for conflicts
// @Description Brand managers and admins. Reports warnings and critical issues without saving anything.
// @Tags projects
// @Accept json
// @Produce json
// @Param fingerprint body dto.ConflictCheckDTO true "Candidate fingerprint"
// @Success 200 {object} dto.ConflictResponseDTO
// @Failure 403 {object} dto.ErrorResponseDTO
// @Failure 502 {object} dto.ErrorResponseDTO
// @Router /brand/conflicts [post]
func (h *ProjectHandler) detectConflicts(w http.ResponseWriter, r *http.Request) {
	var req dto.ConflictCheckDTO
	if !decodeAndValidate(w, r, h.validate, 64<<10, &req) {
		return
	}
	conflicts, err := h.projectService.DetectConflicts(r.Context(), middleware.AccountID(r.Context()), req.BrandFingerprint)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ConflictResponseDTO{Conflicts: conflicts})
}
