package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/saudievents/server/internal/api/middleware"
	"github.com/saudievents/server/internal/api/problem"
	"github.com/saudievents/server/internal/blob"
	"github.com/saudievents/server/internal/domain/events"
	"github.com/saudievents/server/internal/store"
)

// EventsHandler exposes event CRUD, the like/save ledgers, and the
// saved/liked queries.
type EventsHandler struct {
	Service *events.Service
	Blobs   blob.Store
	Env     string
}

func NewEventsHandler(service *events.Service, blobs blob.Store, env string) *EventsHandler {
	return &EventsHandler{Service: service, Blobs: blobs, Env: env}
}

func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	mineOnly := r.URL.Query().Get("mine") == "true"
	claims := middleware.SessionClaims(r)
	if mineOnly && claims == nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthenticated, "Unauthenticated", errors.New("mine=true requires a bearer token"), h.Env)
		return
	}

	items, err := h.Service.List(r.Context(), claims, mineOnly)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": items})
}

func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", events.ValidationError{Field: "id", Message: "must be a positive integer"}, h.Env)
		return
	}

	item, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"event": item})
}

func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	input, err := h.parseEventInput(r)
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	item, err := h.Service.Create(r.Context(), middleware.SessionClaims(r), input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"event": item})
}

func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", events.ValidationError{Field: "id", Message: "must be a positive integer"}, h.Env)
		return
	}

	input, err := h.parseEventInput(r)
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	item, err := h.Service.Update(r.Context(), middleware.SessionClaims(r), id, input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"event": item})
}

func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", events.ValidationError{Field: "id", Message: "must be a positive integer"}, h.Env)
		return
	}

	if err := h.Service.Delete(r.Context(), middleware.SessionClaims(r), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type actorRequest struct {
	Email string `json:"email"`
}

// actorEmail pulls the acting email from the JSON body, falling back to the
// email query parameter.
func actorEmail(r *http.Request) string {
	var req actorRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if req.Email != "" {
		return req.Email
	}
	return r.URL.Query().Get("email")
}

func (h *EventsHandler) Like(w http.ResponseWriter, r *http.Request) {
	h.ledgerOp(w, r, actorEmail(r), h.Service.Like)
}

func (h *EventsHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	h.ledgerOp(w, r, actorEmail(r), h.Service.Unlike)
}

// Save and Unsave take the actor from the verified session claims; a
// client-supplied email is never trusted for the saved ledger.
func (h *EventsHandler) Save(w http.ResponseWriter, r *http.Request) {
	h.ledgerOp(w, r, claimsEmail(r), h.Service.Save)
}

func (h *EventsHandler) Unsave(w http.ResponseWriter, r *http.Request) {
	h.ledgerOp(w, r, claimsEmail(r), h.Service.Unsave)
}

func claimsEmail(r *http.Request) string {
	if claims := middleware.SessionClaims(r); claims != nil {
		return claims.Email
	}
	return ""
}

func (h *EventsHandler) ledgerOp(w http.ResponseWriter, r *http.Request, email string, op func(ctx context.Context, id int64, email string) (int, error)) {
	id, ok := pathID(r)
	if !ok {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", events.ValidationError{Field: "id", Message: "must be a positive integer"}, h.Env)
		return
	}

	likes, err := op(r.Context(), id, email)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "likes": likes})
}

func (h *EventsHandler) Saved(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.ListSavedFor(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": items})
}

func (h *EventsHandler) Liked(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.ListLikedFor(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": items})
}

// parseEventInput decodes either a JSON body or a multipart form with an
// optional image file, storing the image through the blob store.
func (h *EventsHandler) parseEventInput(r *http.Request) (events.EventInput, error) {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		var input events.EventInput
		var body struct {
			Title       string  `json:"title"`
			Category    string  `json:"category"`
			Description string  `json:"description"`
			Location    string  `json:"location"`
			Date        string  `json:"date"`
			Price       float64 `json:"price"`
			Capacity    int     `json:"capacity"`
			Image       string  `json:"image"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return input, err
		}
		input = events.EventInput{
			Title:       body.Title,
			Category:    body.Category,
			Description: body.Description,
			Location:    body.Location,
			Date:        body.Date,
			Price:       body.Price,
			Capacity:    body.Capacity,
			Image:       body.Image,
		}
		return input, nil
	}

	if err := r.ParseMultipartForm(8 << 20); err != nil {
		return events.EventInput{}, err
	}

	price, _ := strconv.ParseFloat(r.FormValue("price"), 64)
	capacity, _ := strconv.Atoi(r.FormValue("capacity"))
	input := events.EventInput{
		Title:       r.FormValue("title"),
		Category:    r.FormValue("category"),
		Description: r.FormValue("description"),
		Location:    r.FormValue("location"),
		Date:        r.FormValue("date"),
		Price:       price,
		Capacity:    capacity,
		Image:       r.FormValue("image"),
	}

	file, header, err := r.FormFile("image")
	if err == nil {
		defer func() { _ = file.Close() }()
		url, storeErr := h.Blobs.Store(header.Filename, file)
		if storeErr != nil {
			return events.EventInput{}, storeErr
		}
		input.Image = url
	} else if !errors.Is(err, http.ErrMissingFile) {
		return events.EventInput{}, err
	}

	return input, nil
}

func (h *EventsHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr events.ValidationError
	switch {
	case errors.Is(err, events.ErrNotFound):
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Not found", err, h.Env)
	case errors.Is(err, events.ErrNotOrganization), errors.Is(err, events.ErrNotOwner):
		problem.Write(w, r, http.StatusForbidden, problem.TypeUnauthorized, "Forbidden", err, h.Env)
	case errors.As(err, &validationErr):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
	case errors.Is(err, store.ErrWriteFailed):
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
	default:
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
	}
}
