// Package problem renders API errors as RFC 7807 application/problem+json
// responses and logs them through the request-scoped logger.
package problem

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
)

const contentType = "application/problem+json"

// Problem type URIs for the error taxonomy.
const (
	TypeValidation      = "https://saudievents.local/problems/validation-error"
	TypeUnauthenticated = "https://saudievents.local/problems/unauthenticated"
	TypeUnauthorized    = "https://saudievents.local/problems/unauthorized"
	TypeNotFound        = "https://saudievents.local/problems/not-found"
	TypeConflict        = "https://saudievents.local/problems/conflict"
	TypeAccountLocked   = "https://saudievents.local/problems/account-locked"
	TypeServerError     = "https://saudievents.local/problems/server-error"
)

type ProblemDetails struct {
	Type     string                 `json:"type"`
	Title    string                 `json:"title"`
	Status   int                    `json:"status"`
	Detail   string                 `json:"detail,omitempty"`
	Instance string                 `json:"instance,omitempty"`
	Errors   map[string]interface{} `json:"errors,omitempty"`

	// Extension members for the login flow: failed attempt count on invalid
	// credentials, unlock deadline (epoch seconds) on a locked account.
	Attempts  int   `json:"attempts,omitempty"`
	LockUntil int64 `json:"lockUntil,omitempty"`
}

type Option func(*ProblemDetails)

func WithDetail(detail string) Option {
	return func(p *ProblemDetails) {
		p.Detail = detail
	}
}

func WithErrors(errs map[string]interface{}) Option {
	return func(p *ProblemDetails) {
		p.Errors = errs
	}
}

func WithAttempts(attempts int) Option {
	return func(p *ProblemDetails) {
		p.Attempts = attempts
	}
}

func WithLockUntil(deadline int64) Option {
	return func(p *ProblemDetails) {
		p.LockUntil = deadline
	}
}

// Write renders a problem response. In production the underlying error text
// is hidden behind the generic status text; development and test expose it.
// Server errors log at error level, client errors at warn.
func Write(w http.ResponseWriter, r *http.Request, status int, typ, title string, err error, env string, opts ...Option) {
	p := ProblemDetails{
		Type:   typ,
		Title:  title,
		Status: status,
	}

	for _, opt := range opts {
		opt(&p)
	}

	if p.Detail == "" && err != nil {
		if env == "development" || env == "test" {
			p.Detail = err.Error()
		} else {
			p.Detail = http.StatusText(status)
		}
	}

	if p.Instance == "" && r != nil {
		p.Instance = r.URL.Path
	}

	if err != nil && r != nil {
		logger := zerolog.Ctx(r.Context())
		event := logger.Warn()
		if status >= 500 {
			event = logger.Error()
		}
		event.
			Err(err).
			Int("status", status).
			Str("type", typ).
			Str("path", r.URL.Path).
			Str("method", r.Method).
			Msg(title)
	}

	WriteProblem(w, p)
}

func WriteProblem(w http.ResponseWriter, p ProblemDetails) {
	payload, err := json.Marshal(p)
	if err != nil {
		fallback := fmt.Sprintf("{\"type\":\"about:blank\",\"title\":\"%s\",\"status\":500}", http.StatusText(http.StatusInternalServerError))
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(fallback))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(p.Status)
	_, _ = w.Write(payload)
}
