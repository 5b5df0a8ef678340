package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"brandguard/internal/api/v1/dto"
	"brandguard/internal/model"
	"brandguard/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

var kindStatus = map[service.ErrorKind]int{
	service.KindUnauthenticated: http.StatusUnauthorized,
	service.KindForbidden:       http.StatusForbidden,
	service.KindValidation:      http.StatusBadRequest,
	service.KindNotFound:        http.StatusNotFound,
	service.KindQuotaExceeded:   http.StatusTooManyRequests,
	service.KindUpstream:        http.StatusBadGateway,
	service.KindInvalidState:    http.StatusConflict,
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind service.ErrorKind, message string) {
	writeJSON(w, status, dto.ErrorResponseDTO{Error: string(kind), Message: message})
}

// writeServiceError maps a service error onto its HTTP status. Errors without
// a kind are logged and reported as internal errors.
func writeServiceError(w http.ResponseWriter, logger zerolog.Logger, r *http.Request, err error) {
	kind := service.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		logger.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("Request failed")
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponseDTO{Error: "internal_error", Message: "internal error"})
		return
	}
	if status >= http.StatusInternalServerError {
		logger.Warn().Err(err).Str("path", r.URL.Path).Msg("Upstream failure")
	}
	writeError(w, status, kind, service.MessageOf(err))
}

// decodeAndValidate reads a JSON body of at most maxBytes into dst and validates it.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, validate *validator.Validate, maxBytes int64, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, service.KindValidation, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, service.KindValidation, "invalid JSON payload: "+err.Error())
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, service.KindValidation, "validation failed: "+err.Error())
		return false
	}
	return true
}

// parseImage decodes a data URI field and enforces the size limit.
func parseImage(w http.ResponseWriter, field, uri string, maxImageBytes int64) (model.Image, bool) {
	img, err := model.ParseDataURI(uri)
	if err != nil {
		writeError(w, http.StatusBadRequest, service.KindValidation, fmt.Sprintf("%s: %v", field, err))
		return model.Image{}, false
	}
	if int64(len(img.Data)) > maxImageBytes {
		writeError(w, http.StatusRequestEntityTooLarge, service.KindValidation, field+": image too large")
		return model.Image{}, false
	}
	return img, true
}

// bodyLimit is the request size that fits n data URI images of maxImageBytes.
func bodyLimit(maxImageBytes int64, n int) int64 {
	return int64(n)*(maxImageBytes*4/3+1024) + 64<<10
}
