package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/orma-app/orma/internal/model"
	"github.com/orma-app/orma/internal/store"
)

// Run exercises a minimal compliance suite against a store.Store
// implementation. Implementations should provide a clean, isolated store
// and return it from makeStore.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	authorID := "u-" + uuid.New().String()
	local := time.Now().UTC().Add(-time.Second)

	// Append assigns id and created_at.
	in := &model.MarkInput{
		Text:           "ciao",
		Position:       model.Position{Lat: 41.9, Lng: 12.5},
		AuthorID:       authorID,
		AuthorLabel:    "Test Author",
		CreatedAtLocal: local,
	}
	mk, err := s.Marks().Append(ctx, in)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if mk.ID == "" {
		t.Fatalf("Append: empty id")
	}
	if mk.CreatedAt == nil {
		t.Fatalf("Append: created_at not assigned")
	}
	if mk.CreatedAt.Before(mk.CreatedAtLocal) {
		t.Fatalf("Append: created_at %v before created_at_local %v", mk.CreatedAt, mk.CreatedAtLocal)
	}

	// Round trip preserves text, author and position.
	got, err := s.Marks().GetByID(ctx, mk.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Text != "ciao" || got.AuthorID != authorID {
		t.Fatalf("GetByID: got %+v", got)
	}
	if got.Position == nil || got.Position.Lat != 41.9 || got.Position.Lng != 12.5 {
		t.Fatalf("GetByID: position %+v", got.Position)
	}

	if _, err := s.Marks().GetByID(ctx, uuid.New().String()); err != model.ErrNotFound {
		t.Fatalf("GetByID missing: err=%v, want ErrNotFound", err)
	}

	// Validation failures never hit the table.
	if _, err := s.Marks().Append(ctx, &model.MarkInput{Text: "  ", Position: model.Position{Lat: 1, Lng: 1}, AuthorID: authorID, CreatedAtLocal: local}); err == nil {
		t.Fatalf("Append empty text: expected error")
	}
	if _, err := s.Marks().Append(ctx, &model.MarkInput{Text: "x", Position: model.Position{Lat: 91, Lng: 0}, AuthorID: authorID, CreatedAtLocal: local}); err == nil {
		t.Fatalf("Append invalid position: expected error")
	}

	// Newest-first ordering and limit.
	for i, text := range []string{"two", "three", "four"} {
		time.Sleep(5 * time.Millisecond) // monotonic created_at ordering
		if _, err := s.Marks().Append(ctx, &model.MarkInput{
			Text:           text,
			Position:       model.Position{Lat: 45.0 + float64(i), Lng: 7.0},
			AuthorID:       authorID,
			AuthorLabel:    "Test Author",
			CreatedAtLocal: time.Now().UTC(),
		}); err != nil {
			t.Fatalf("Append %q: %v", text, err)
		}
	}
	lst, err := s.Marks().List(ctx, model.ListMarksRequest{Limit: 2})
	if err != nil || len(lst) != 2 {
		t.Fatalf("List limit: n=%d err=%v", len(lst), err)
	}
	if lst[0].Text != "four" || lst[1].Text != "three" {
		t.Fatalf("List order: got %q, %q", lst[0].Text, lst[1].Text)
	}

	// Author + since filter (quota window query).
	since := time.Now().UTC().Add(-24 * time.Hour)
	byAuthor, err := s.Marks().List(ctx, model.ListMarksRequest{AuthorID: authorID, Since: &since, Limit: 3})
	if err != nil {
		t.Fatalf("List by author: %v", err)
	}
	if len(byAuthor) != 3 {
		t.Fatalf("List by author: n=%d, want capped 3", len(byAuthor))
	}
	otherAuthor, err := s.Marks().List(ctx, model.ListMarksRequest{AuthorID: "nobody", Since: &since})
	if err != nil || len(otherAuthor) != 0 {
		t.Fatalf("List other author: n=%d err=%v", len(otherAuthor), err)
	}
}

// RunFallbackOrdering verifies the createdAtLocal ordering path against rows
// whose created_at never propagated. clearCreatedAt must null out created_at
// for every row in the store.
func RunFallbackOrdering(t *testing.T, makeStore func(t *testing.T) store.Store, clearCreatedAt func(t *testing.T, s store.Store)) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	for i, text := range []string{"oldest", "middle", "newest"} {
		if _, err := s.Marks().Append(ctx, &model.MarkInput{
			Text:           text,
			Position:       model.Position{Lat: 41.9, Lng: 12.5},
			AuthorID:       "u-fallback",
			CreatedAtLocal: base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("Append %q: %v", text, err)
		}
	}
	clearCreatedAt(t, s)

	lst, err := s.Marks().List(ctx, model.ListMarksRequest{OrderBy: model.OrderByCreatedAtLocal})
	if err != nil {
		t.Fatalf("List fallback: %v", err)
	}
	if len(lst) != 3 {
		t.Fatalf("List fallback: n=%d", len(lst))
	}
	for i, want := range []string{"newest", "middle", "oldest"} {
		if lst[i].Text != want {
			t.Fatalf("List fallback order[%d]: got %q want %q", i, lst[i].Text, want)
		}
		if lst[i].CreatedAt != nil {
			t.Fatalf("List fallback: created_at still set on %q", lst[i].Text)
		}
	}
}
