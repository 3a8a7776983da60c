package events

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/saudievents/server/internal/auth"
	"github.com/saudievents/server/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "db.json"), zerolog.Nop())
	require.NoError(t, err)
	return NewService(st, zerolog.Nop()), st
}

func orgClaims(id int64, name string) *auth.Claims {
	return &auth.Claims{
		UserID:      id,
		Email:       fmt.Sprintf("org%d@example.com", id),
		AccountType: "organization",
		OrgName:     name,
	}
}

func userClaims(id int64) *auth.Claims {
	return &auth.Claims{
		UserID:      id,
		Email:       fmt.Sprintf("user%d@example.com", id),
		AccountType: "user",
	}
}

func seedOrganizer(t *testing.T, st *store.Store, claims *auth.Claims) {
	t.Helper()
	err := st.Update(func(doc *store.Document) error {
		doc.Users = append(doc.Users, store.User{
			ID:          claims.UserID,
			Email:       claims.Email,
			AccountType: claims.AccountType,
			OrgName:     claims.OrgName,
		})
		if doc.LastIDs.Users < claims.UserID {
			doc.LastIDs.Users = claims.UserID
		}
		return nil
	})
	require.NoError(t, err)
}

func validInput() EventInput {
	return EventInput{
		Title:       "Jeddah Food Festival",
		Category:    "food",
		Description: "A weekend of street food and live cooking.",
		Location:    "Jeddah Corniche",
		Date:        "2026-04-10",
		Price:       25,
		Capacity:    500,
	}
}

func TestCreateRequiresOrganization(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, nil, validInput())
	require.ErrorIs(t, err, ErrNotOrganization)

	_, err = svc.Create(ctx, userClaims(1), validInput())
	require.ErrorIs(t, err, ErrNotOrganization)
}

func TestCreateValidatesInput(t *testing.T) {
	svc, _ := newTestService(t)

	input := validInput()
	input.Title = ""
	_, err := svc.Create(context.Background(), orgClaims(1, "Org"), input)
	var vErr ValidationError
	require.ErrorAs(t, err, &vErr)

	input = validInput()
	input.Capacity = 0
	_, err = svc.Create(context.Background(), orgClaims(1, "Org"), input)
	require.ErrorAs(t, err, &vErr)
}

func TestCreateAndGet(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	org := orgClaims(1, "Riyadh Events Co")
	seedOrganizer(t, st, org)

	created, err := svc.Create(ctx, org, validInput())
	require.NoError(t, err)
	require.Equal(t, int64(1), created.ID)
	require.Equal(t, org.UserID, created.OrganizerID)
	require.Equal(t, "Riyadh Events Co", created.OrganizerName)
	require.Empty(t, created.LikedBy)
	require.Zero(t, created.Likes)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.Title, got.Title)
	require.Equal(t, "Riyadh Events Co", got.OrganizerName)

	_, err = svc.Get(ctx, 999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateKeepsPriorValuesOnZero(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	org := orgClaims(1, "Org")
	seedOrganizer(t, st, org)

	input := validInput()
	input.Image = "/uploads/original.jpg"
	created, err := svc.Create(ctx, org, input)
	require.NoError(t, err)

	// A form resubmission with no price, capacity, or image must not wipe
	// the existing values.
	update := validInput()
	update.Title = "Jeddah Food Festival 2026"
	update.Price = 0
	update.Capacity = 0
	update.Image = ""
	updated, err := svc.Update(ctx, org, created.ID, update)
	require.NoError(t, err)
	require.Equal(t, "Jeddah Food Festival 2026", updated.Title)
	require.Equal(t, float64(25), updated.Price)
	require.Equal(t, 500, updated.Capacity)
	require.Equal(t, "/uploads/original.jpg", updated.Image)
}

func TestUpdateOwnershipAndExistence(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	owner := orgClaims(1, "Owner")
	other := orgClaims(2, "Other")
	seedOrganizer(t, st, owner)
	seedOrganizer(t, st, other)

	created, err := svc.Create(ctx, owner, validInput())
	require.NoError(t, err)

	_, err = svc.Update(ctx, other, created.ID, validInput())
	require.ErrorIs(t, err, ErrNotOwner)

	_, err = svc.Update(ctx, owner, 999, validInput())
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Update(ctx, userClaims(3), created.ID, validInput())
	require.ErrorIs(t, err, ErrNotOrganization)
}

func TestDelete(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	owner := orgClaims(1, "Owner")
	other := orgClaims(2, "Other")
	seedOrganizer(t, st, owner)
	seedOrganizer(t, st, other)

	created, err := svc.Create(ctx, owner, validInput())
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(ctx, other, created.ID), ErrNotOwner)
	require.NoError(t, svc.Delete(ctx, owner, created.ID))
	require.ErrorIs(t, svc.Delete(ctx, owner, created.ID), ErrNotFound)

	_, err = svc.Get(ctx, created.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListMineOnly(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	first := orgClaims(1, "First")
	second := orgClaims(2, "Second")
	seedOrganizer(t, st, first)
	seedOrganizer(t, st, second)

	_, err := svc.Create(ctx, first, validInput())
	require.NoError(t, err)
	_, err = svc.Create(ctx, second, validInput())
	require.NoError(t, err)

	all, err := svc.List(ctx, nil, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "First", all[0].OrganizerName)
	require.Equal(t, "Second", all[1].OrganizerName)

	mine, err := svc.List(ctx, first, true)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, first.UserID, mine[0].OrganizerID)

	none, err := svc.List(ctx, nil, true)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestLikeIsIdempotent(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	org := orgClaims(1, "Org")
	seedOrganizer(t, st, org)

	created, err := svc.Create(ctx, org, validInput())
	require.NoError(t, err)

	likes, err := svc.Like(ctx, created.ID, "fan@example.com")
	require.NoError(t, err)
	require.Equal(t, 1, likes)

	// Liking again from the same actor changes nothing.
	likes, err = svc.Like(ctx, created.ID, "fan@example.com")
	require.NoError(t, err)
	require.Equal(t, 1, likes)

	likes, err = svc.Like(ctx, created.ID, "other@example.com")
	require.NoError(t, err)
	require.Equal(t, 2, likes)
}

func TestUnlikeFloorsAtZero(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	org := orgClaims(1, "Org")
	seedOrganizer(t, st, org)

	created, err := svc.Create(ctx, org, validInput())
	require.NoError(t, err)

	// Unliking without a prior like is a no-op, not a negative count.
	likes, err := svc.Unlike(ctx, created.ID, "fan@example.com")
	require.NoError(t, err)
	require.Zero(t, likes)

	_, err = svc.Like(ctx, created.ID, "fan@example.com")
	require.NoError(t, err)
	likes, err = svc.Unlike(ctx, created.ID, "fan@example.com")
	require.NoError(t, err)
	require.Zero(t, likes)

	likes, err = svc.Unlike(ctx, created.ID, "fan@example.com")
	require.NoError(t, err)
	require.Zero(t, likes)
}

func TestLedgerRequiresEmail(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	org := orgClaims(1, "Org")
	seedOrganizer(t, st, org)

	created, err := svc.Create(ctx, org, validInput())
	require.NoError(t, err)

	var vErr ValidationError
	_, err = svc.Like(ctx, created.ID, "")
	require.ErrorAs(t, err, &vErr)
	_, err = svc.Unlike(ctx, created.ID, "")
	require.ErrorAs(t, err, &vErr)
	_, err = svc.Save(ctx, created.ID, "")
	require.ErrorAs(t, err, &vErr)
	_, err = svc.Unsave(ctx, created.ID, "")
	require.ErrorAs(t, err, &vErr)

	_, err = svc.Like(ctx, 999, "fan@example.com")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSaveAndListSaved(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	org := orgClaims(1, "Org")
	seedOrganizer(t, st, org)

	first, err := svc.Create(ctx, org, validInput())
	require.NoError(t, err)
	second, err := svc.Create(ctx, org, validInput())
	require.NoError(t, err)

	_, err = svc.Save(ctx, first.ID, "fan@example.com")
	require.NoError(t, err)
	_, err = svc.Save(ctx, second.ID, "fan@example.com")
	require.NoError(t, err)
	_, err = svc.Save(ctx, first.ID, "fan@example.com")
	require.NoError(t, err)

	saved, err := svc.ListSavedFor(ctx, "fan@example.com")
	require.NoError(t, err)
	require.Len(t, saved, 2)

	_, err = svc.Unsave(ctx, second.ID, "fan@example.com")
	require.NoError(t, err)
	saved, err = svc.ListSavedFor(ctx, "fan@example.com")
	require.NoError(t, err)
	require.Len(t, saved, 1)
	require.Equal(t, first.ID, saved[0].ID)

	empty, err := svc.ListSavedFor(ctx, "nobody@example.com")
	require.NoError(t, err)
	require.Empty(t, empty)

	var vErr ValidationError
	_, err = svc.ListSavedFor(ctx, "")
	require.ErrorAs(t, err, &vErr)
}

func TestListLikedFor(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	org := orgClaims(1, "Org")
	seedOrganizer(t, st, org)

	created, err := svc.Create(ctx, org, validInput())
	require.NoError(t, err)
	_, err = svc.Like(ctx, created.ID, "fan@example.com")
	require.NoError(t, err)

	liked, err := svc.ListLikedFor(ctx, "fan@example.com")
	require.NoError(t, err)
	require.Len(t, liked, 1)
	require.Equal(t, created.ID, liked[0].ID)
	require.Equal(t, "Org", liked[0].OrganizerName)
}

func TestConcurrentLikesConverge(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	org := orgClaims(1, "Org")
	seedOrganizer(t, st, org)

	created, err := svc.Create(ctx, org, validInput())
	require.NoError(t, err)

	const actors = 25
	var g errgroup.Group
	for i := 0; i < actors; i++ {
		email := fmt.Sprintf("fan%d@example.com", i)
		g.Go(func() error {
			_, err := svc.Like(ctx, created.ID, email)
			return err
		})
	}
	require.NoError(t, g.Wait())

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, actors, got.Likes)
	require.Len(t, got.LikedBy, actors)
}
