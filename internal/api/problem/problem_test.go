package problem

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestWriteExposesDetailInDevelopment(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	rec := httptest.NewRecorder()

	Write(rec, req, http.StatusBadRequest, TypeValidation, "Invalid request", errors.New("missing field email"), "development")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	require.Equal(t, TypeValidation, body["type"])
	require.Equal(t, "Invalid request", body["title"])
	require.Equal(t, "missing field email", body["detail"])
	require.Equal(t, "/api/v1/auth/login", body["instance"])
}

func TestWriteHidesDetailInProduction(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	rec := httptest.NewRecorder()

	Write(rec, req, http.StatusInternalServerError, TypeServerError, "Server error", errors.New("disk exploded"), "production")

	body := decode(t, rec)
	require.Equal(t, http.StatusText(http.StatusInternalServerError), body["detail"])
	require.NotContains(t, rec.Body.String(), "disk exploded")
}

func TestWriteExplicitDetailWins(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	rec := httptest.NewRecorder()

	Write(rec, req, http.StatusBadRequest, TypeValidation, "Invalid credentials",
		errors.New("bcrypt mismatch"), "production",
		WithDetail("Invalid credentials"))

	body := decode(t, rec)
	require.Equal(t, "Invalid credentials", body["detail"])
}

func TestWriteLoginExtensions(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)

	rec := httptest.NewRecorder()
	Write(rec, req, http.StatusBadRequest, TypeValidation, "Invalid credentials", errors.New("bad password"), "test",
		WithAttempts(2))
	body := decode(t, rec)
	require.Equal(t, float64(2), body["attempts"])
	require.NotContains(t, body, "lockUntil")

	rec = httptest.NewRecorder()
	Write(rec, req, http.StatusTooManyRequests, TypeAccountLocked, "Account temporarily locked", errors.New("locked"), "test",
		WithLockUntil(1767225600))
	body = decode(t, rec)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, float64(1767225600), body["lockUntil"])
	require.NotContains(t, body, "attempts")
}
