// Package events manages published event listings: organization-owned CRUD
// and the per-event like/save ledgers. Authorization (account type and
// ownership) is evaluated here, not in the HTTP layer; the middleware only
// establishes identity.
package events

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/saudievents/server/internal/auth"
	"github.com/saudievents/server/internal/store"
)

// EventInput is the payload for creating or replacing an event listing.
// Image carries the uploaded image URL, already stored by the blob store.
type EventInput struct {
	Title       string  `validate:"required"`
	Category    string  `validate:"required"`
	Description string  `validate:"required"`
	Location    string  `validate:"required"`
	Date        string  `validate:"required"`
	Price       float64 `validate:"gte=0"`
	Capacity    int     `validate:"gte=1"`
	Image       string
}

// View is an event decorated with its organizer's display name.
type View struct {
	store.Event
	OrganizerName string `json:"organizerName,omitempty"`
}

// Service implements event operations over the document store.
type Service struct {
	store    *store.Store
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewService(st *store.Store, logger zerolog.Logger) *Service {
	return &Service{
		store:    st,
		validate: validator.New(),
		logger:   logger.With().Str("component", "events").Logger(),
	}
}

// Create publishes a new event owned by the calling organization.
func (s *Service) Create(ctx context.Context, claims *auth.Claims, input EventInput) (View, error) {
	if claims == nil || !auth.IsOrganization(claims.AccountType) {
		return View{}, ErrNotOrganization
	}
	if err := s.validate.Struct(input); err != nil {
		return View{}, ValidationError{Field: "event", Message: "title, category, description, location, date, and capacity are required"}
	}

	var created store.Event
	err := s.store.Update(func(doc *store.Document) error {
		created = store.Event{
			ID:          doc.NextEventID(),
			OrganizerID: claims.UserID,
			Title:       input.Title,
			Category:    input.Category,
			Description: input.Description,
			Location:    input.Location,
			Date:        input.Date,
			Price:       input.Price,
			Capacity:    input.Capacity,
			Image:       input.Image,
			LikedBy:     []string{},
			SavedBy:     []string{},
		}
		doc.Events = append(doc.Events, created)
		return nil
	})
	if err != nil {
		return View{}, err
	}

	s.logger.Info().
		Int64("event_id", created.ID).
		Int64("organizer_id", claims.UserID).
		Str("title", created.Title).
		Msg("event created")

	return View{Event: created, OrganizerName: claims.OrgName}, nil
}

// Update replaces an event's listing fields. A zero price or capacity keeps
// the prior value, as does an empty image, so partial form submissions do
// not wipe existing data.
func (s *Service) Update(ctx context.Context, claims *auth.Claims, id int64, input EventInput) (View, error) {
	if claims == nil || !auth.IsOrganization(claims.AccountType) {
		return View{}, ErrNotOrganization
	}
	if input.Title == "" || input.Category == "" || input.Description == "" || input.Location == "" || input.Date == "" {
		return View{}, ValidationError{Field: "event", Message: "title, category, description, location, and date are required"}
	}

	var updated store.Event
	err := s.store.Update(func(doc *store.Document) error {
		ev := doc.EventByID(id)
		if ev == nil {
			return ErrNotFound
		}
		if ev.OrganizerID != claims.UserID {
			return ErrNotOwner
		}

		ev.Title = input.Title
		ev.Category = input.Category
		ev.Description = input.Description
		ev.Location = input.Location
		ev.Date = input.Date
		if input.Price > 0 {
			ev.Price = input.Price
		}
		if input.Capacity > 0 {
			ev.Capacity = input.Capacity
		}
		if input.Image != "" {
			ev.Image = input.Image
		}
		updated = *ev
		return nil
	})
	if err != nil {
		return View{}, err
	}

	s.logger.Info().Int64("event_id", id).Int64("organizer_id", claims.UserID).Msg("event updated")
	return View{Event: updated, OrganizerName: claims.OrgName}, nil
}

// Delete removes an event owned by the calling organization.
func (s *Service) Delete(ctx context.Context, claims *auth.Claims, id int64) error {
	if claims == nil || !auth.IsOrganization(claims.AccountType) {
		return ErrNotOrganization
	}

	err := s.store.Update(func(doc *store.Document) error {
		for i := range doc.Events {
			if doc.Events[i].ID != id {
				continue
			}
			if doc.Events[i].OrganizerID != claims.UserID {
				return ErrNotOwner
			}
			doc.Events = append(doc.Events[:i], doc.Events[i+1:]...)
			return nil
		}
		return ErrNotFound
	})
	if err != nil {
		return err
	}

	s.logger.Info().Int64("event_id", id).Int64("organizer_id", claims.UserID).Msg("event deleted")
	return nil
}

// List returns all events, each decorated with its organizer name. With
// mineOnly set the result is restricted to the viewer's own events; the
// handler guarantees a verified identity in that case.
func (s *Service) List(ctx context.Context, viewer *auth.Claims, mineOnly bool) ([]View, error) {
	var views []View
	err := s.store.View(func(doc *store.Document) error {
		for i := range doc.Events {
			ev := doc.Events[i]
			if mineOnly && (viewer == nil || ev.OrganizerID != viewer.UserID) {
				continue
			}
			views = append(views, decorate(doc, ev))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if views == nil {
		views = []View{}
	}
	return views, nil
}

// Get returns a single event by ID.
func (s *Service) Get(ctx context.Context, id int64) (View, error) {
	var view View
	err := s.store.View(func(doc *store.Document) error {
		ev := doc.EventByID(id)
		if ev == nil {
			return ErrNotFound
		}
		view = decorate(doc, *ev)
		return nil
	})
	if err != nil {
		return View{}, err
	}
	return view, nil
}

// Like records that email liked the event. Repeated likes from the same
// actor are no-ops. Returns the derived like count.
func (s *Service) Like(ctx context.Context, id int64, email string) (int, error) {
	if email == "" {
		return 0, ValidationError{Field: "email", Message: "email is required"}
	}
	return s.mutateLedger(id, func(ev *store.Event) {
		ev.LikedBy, _ = addMember(ev.LikedBy, email)
		recountLikes(ev)
	})
}

// Unlike removes email from the event's liked set; the counter floors at 0.
func (s *Service) Unlike(ctx context.Context, id int64, email string) (int, error) {
	if email == "" {
		return 0, ValidationError{Field: "email", Message: "email is required"}
	}
	return s.mutateLedger(id, func(ev *store.Event) {
		ev.LikedBy, _ = removeMember(ev.LikedBy, email)
		recountLikes(ev)
	})
}

// Save records the event in email's saved set. The actor email always comes
// from verified session claims, never from the request body.
func (s *Service) Save(ctx context.Context, id int64, email string) (int, error) {
	if email == "" {
		return 0, ValidationError{Field: "email", Message: "email is required"}
	}
	return s.mutateLedger(id, func(ev *store.Event) {
		ev.SavedBy, _ = addMember(ev.SavedBy, email)
	})
}

// Unsave removes the event from email's saved set.
func (s *Service) Unsave(ctx context.Context, id int64, email string) (int, error) {
	if email == "" {
		return 0, ValidationError{Field: "email", Message: "email is required"}
	}
	return s.mutateLedger(id, func(ev *store.Event) {
		ev.SavedBy, _ = removeMember(ev.SavedBy, email)
	})
}

// mutateLedger runs one read-modify-write cycle against a single event and
// returns its resulting like count.
func (s *Service) mutateLedger(id int64, fn func(ev *store.Event)) (int, error) {
	likes := 0
	err := s.store.Update(func(doc *store.Document) error {
		ev := doc.EventByID(id)
		if ev == nil {
			return ErrNotFound
		}
		fn(ev)
		likes = ev.Likes
		return nil
	})
	if err != nil {
		return 0, err
	}
	return likes, nil
}

// ListSavedFor returns the events whose saved set contains email.
func (s *Service) ListSavedFor(ctx context.Context, email string) ([]View, error) {
	return s.listByMembership(email, func(ev store.Event) []string { return ev.SavedBy })
}

// ListLikedFor returns the events whose liked set contains email.
func (s *Service) ListLikedFor(ctx context.Context, email string) ([]View, error) {
	return s.listByMembership(email, func(ev store.Event) []string { return ev.LikedBy })
}

func (s *Service) listByMembership(email string, set func(ev store.Event) []string) ([]View, error) {
	if email == "" {
		return nil, ValidationError{Field: "email", Message: "email query parameter is required"}
	}

	views := []View{}
	err := s.store.View(func(doc *store.Document) error {
		for i := range doc.Events {
			ev := doc.Events[i]
			for _, member := range set(ev) {
				if member == email {
					views = append(views, decorate(doc, ev))
					break
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}

// decorate attaches the organizer's display name to an event copy.
func decorate(doc *store.Document, ev store.Event) View {
	view := View{Event: ev}
	if org := doc.UserByID(ev.OrganizerID); org != nil {
		view.OrganizerName = org.OrgName
	}
	// The copies handed out must not alias the document's sets.
	view.LikedBy = append([]string(nil), ev.LikedBy...)
	view.SavedBy = append([]string(nil), ev.SavedBy...)
	return view
}
