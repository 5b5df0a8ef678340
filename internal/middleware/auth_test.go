package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"brandguard/internal/util"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

func TestAuthMiddleware(t *testing.T) {
	const secret = "test-secret"
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, util.Claims{
		Email: "lee@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "acc-42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}

	var gotID, gotEmail string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = AccountID(r.Context())
		gotEmail, _ = r.Context().Value(EmailContextKey).(string)
		w.WriteHeader(http.StatusNoContent)
	})
	h := AuthMiddleware(secret, zerolog.Nop())(next)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + signed, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/projects", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
		})
	}
	if gotID != "acc-42" || gotEmail != "lee@example.com" {
		t.Fatalf("context not populated: id=%q email=%q", gotID, gotEmail)
	}
}
