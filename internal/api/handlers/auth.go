package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/saudievents/server/internal/api/problem"
	"github.com/saudievents/server/internal/domain/accounts"
	"github.com/saudievents/server/internal/store"
)

// AuthHandler exposes registration and login.
type AuthHandler struct {
	Accounts *accounts.Service
	Env      string
}

func NewAuthHandler(service *accounts.Service, env string) *AuthHandler {
	return &AuthHandler{Accounts: service, Env: env}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Type     string `json:"type"`
	OrgName  string `json:"orgName"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	account, err := h.Accounts.Register(r.Context(), accounts.RegisterParams{
		Email:       req.Email,
		Password:    req.Password,
		AccountType: req.Type,
		OrgName:     req.OrgName,
	})
	if err != nil {
		switch {
		case errors.Is(err, accounts.ErrEmailTaken):
			problem.Write(w, r, http.StatusConflict, problem.TypeConflict, "Email already registered", err, h.Env)
		case errors.Is(err, store.ErrWriteFailed):
			problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		default:
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"user": account})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	result, err := h.Accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		var credErr *accounts.CredentialsError
		var lockErr *accounts.LockedError
		switch {
		case errors.As(err, &lockErr):
			problem.Write(w, r, http.StatusTooManyRequests, problem.TypeAccountLocked,
				"Account temporarily locked", err, h.Env,
				problem.WithDetail("Account temporarily locked. Try again later."),
				problem.WithLockUntil(lockErr.LockUntil))
		case errors.As(err, &credErr):
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation,
				"Invalid credentials", err, h.Env,
				problem.WithDetail("Invalid credentials"),
				problem.WithAttempts(credErr.Attempts))
		case errors.Is(err, store.ErrWriteFailed):
			problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		default:
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": result.Token,
		"user": accounts.Account{
			ID:          result.Claims.UserID,
			Email:       result.Claims.Email,
			AccountType: result.Claims.AccountType,
			OrgName:     result.Claims.OrgName,
		},
	})
}
