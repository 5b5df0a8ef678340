package handler

import (
	"net/http"
	"strconv"

	"brandguard/internal/api/v1/dto"
	"brandguard/internal/middleware"
	"brandguard/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// AccountHandler handles account and admin endpoints
type AccountHandler struct {
	accountService service.AccountService
	validate       *validator.Validate
	logger         zerolog.Logger
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accountService service.AccountService, validate *validator.Validate, logger zerolog.Logger) *AccountHandler {
	return &AccountHandler{accountService: accountService, validate: validate, logger: logger}
}

// RegisterRoutes mounts account routes
func (h *AccountHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("POST /accounts", authMw(http.HandlerFunc(h.createAccount)))
	mux.Handle("GET /accounts/me", authMw(http.HandlerFunc(h.getMe)))
	mux.Handle("PATCH /accounts/me", authMw(http.HandlerFunc(h.updateMe)))
	mux.Handle("GET /admin/accounts", authMw(http.HandlerFunc(h.listAccounts)))
	mux.Handle("PUT /admin/accounts/{accountId}", authMw(http.HandlerFunc(h.updateAccount)))
}

// createAccount godoc
// @Summary Register the caller
// @Description Creates the account for the authenticated identity on first sign in. Returns the existing account otherwise.
// @Tags accounts
// @Accept json
// @Produce json
// @Param account body dto.AccountCreateDTO false "Profile"
// @Success 200 {object} dto.AccountResponseDTO
// @Failure 400 {object} dto.ErrorResponseDTO
// @Failure 401 {object} dto.ErrorResponseDTO
// @Router /accounts [post]
func (h *AccountHandler) createAccount(w http.ResponseWriter, r *http.Request) {
	var req dto.AccountCreateDTO
	if r.ContentLength > 0 {
		if !decodeAndValidate(w, r, h.validate, 16<<10, &req) {
			return
		}
	}
	ctx := r.Context()
	email, _ := ctx.Value(middleware.EmailContextKey).(string)
	name, _ := ctx.Value(middleware.NameContextKey).(string)
	if req.Email != "" {
		email = req.Email
	}
	if req.Name != "" {
		name = req.Name
	}

	account, err := h.accountService.EnsureAccount(ctx, middleware.AccountID(ctx), email, name)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewAccountResponse(account))
}

// getMe godoc
// @Summary Get the caller's account
// @Tags accounts
// @Produce json
// @Success 200 {object} dto.AccountResponseDTO
// @Failure 401 {object} dto.ErrorResponseDTO
// @Router /accounts/me [get]
func (h *AccountHandler) getMe(w http.ResponseWriter, r *http.Request) {
	account, err := h.accountService.GetAccount(r.Context(), middleware.AccountID(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewAccountResponse(account))
}

// updateMe godoc
// @Summary Update the caller's profile
// @Tags accounts
// @Accept json
// @Produce json
// @Param profile body dto.AccountProfileUpdateDTO true "Profile"
// @Success 200 {object} dto.AccountResponseDTO
// @Failure 400 {object} dto.ErrorResponseDTO
// @Failure 401 {object} dto.ErrorResponseDTO
// @Router /accounts/me [patch]
func (h *AccountHandler) updateMe(w http.ResponseWriter, r *http.Request) {
	var req dto.AccountProfileUpdateDTO
	if !decodeAndValidate(w, r, h.validate, 16<<10, &req) {
		return
	}
	account, err := h.accountService.UpdateProfile(r.Context(), middleware.AccountID(r.Context()), req.Name)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewAccountResponse(account))
}

// listAccounts godoc
// @Summary List accounts
// @Description Admin only.
// @Tags admin
// @Produce json
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {array} model.Account
// @Failure 403 {object} dto.ErrorResponseDTO
// @Router /admin/accounts [get]
func (h *AccountHandler) listAccounts(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	accounts, err := h.accountService.ListAccounts(r.Context(), middleware.AccountID(r.Context()), limit, offset)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

// updateAccount godoc
// @Summary Change an account's role or plan
// @Description Admin only. The analysis limit is recomputed from the plan.
// @Tags admin
// @Accept json
// @Produce json
// @Param accountId path string true "Account ID"
// @Param update body dto.AdminAccountUpdateDTO true "Role and plan"
// @Success 200 {object} dto.AccountResponseDTO
// @Failure 400 {object} dto.ErrorResponseDTO
// @Failure 403 {object} dto.ErrorResponseDTO
// @Failure 404 {object} dto.ErrorResponseDTO
// @Router /admin/accounts/{accountId} [put]
func (h *AccountHandler) updateAccount(w http.ResponseWriter, r *http.Request) {
	var req dto.AdminAccountUpdateDTO
	if !decodeAndValidate(w, r, h.validate, 16<<10, &req) {
		return
	}
	account, err := h.accountService.UpdateAccountByAdmin(r.Context(), middleware.AccountID(r.Context()), r.PathValue("accountId"), service.AdminAccountUpdate{
		Role: req.Role,
		Plan: req.SubscriptionPlan,
	})
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewAccountResponse(account))
}
