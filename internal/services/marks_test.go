package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/orma-app/orma/internal/events"
	"github.com/orma-app/orma/internal/model"
	"github.com/orma-app/orma/internal/store"
)

// --- Fakes ---

type fakeStore struct {
	marks fakeMarks
}

func (f *fakeStore) Marks() store.Marks               { return &f.marks }
func (f *fakeStore) HealthPing(context.Context) error { return nil }

type fakeMarks struct {
	rows     []*model.Mark
	lastList model.ListMarksRequest
}

func (f *fakeMarks) Append(_ context.Context, in *model.MarkInput) (*model.Mark, error) {
	now := time.Now().UTC()
	pos := in.Position
	m := &model.Mark{
		ID:             uuid.New().String(),
		Text:           in.Text,
		Position:       &pos,
		AuthorID:       in.AuthorID,
		AuthorLabel:    in.AuthorLabel,
		AuthorPhotoURL: in.AuthorPhotoURL,
		CreatedAt:      &now,
		CreatedAtLocal: in.CreatedAtLocal,
	}
	f.rows = append(f.rows, m)
	return m, nil
}

func (f *fakeMarks) List(_ context.Context, req model.ListMarksRequest) ([]*model.Mark, error) {
	f.lastList = req
	var out []*model.Mark
	for _, m := range f.rows {
		if req.AuthorID != "" && m.AuthorID != req.AuthorID {
			continue
		}
		if req.Since != nil && m.EffectiveTime().Before(*req.Since) {
			continue
		}
		out = append(out, m)
		if req.Limit > 0 && len(out) == req.Limit {
			break
		}
	}
	return out, nil
}

func (f *fakeMarks) GetByID(_ context.Context, id string) (*model.Mark, error) {
	for _, m := range f.rows {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, model.ErrNotFound
}

// --- Tests ---

func TestCreateMarkStampsAuthorAndPublishes(t *testing.T) {
	fs := &fakeStore{}
	bus := events.NewBus(4)
	ch, cancel := bus.Subscribe()
	defer cancel()

	svc := NewMarkService(fs, bus, 3, 24*time.Hour)
	p := &model.Principal{ID: "u1", DisplayName: "Alice", PhotoURL: "https://img/a"}
	in := &model.MarkInput{
		Text:           "ciao",
		Position:       model.Position{Lat: 45.46, Lng: 9.19},
		CreatedAtLocal: time.Now().UTC(),
	}

	m, err := svc.CreateMark(context.Background(), p, in)
	if err != nil {
		t.Fatalf("CreateMark error: %v", err)
	}
	if m.AuthorID != "u1" || m.AuthorLabel != "Alice" || m.AuthorPhotoURL != "https://img/a" {
		t.Fatalf("author fields not stamped from principal: %+v", m)
	}
	if m.CreatedAt == nil {
		t.Fatalf("expected store-assigned createdAt")
	}

	select {
	case ev := <-ch:
		if ev.Kind != events.EventMarkCreated || ev.MarkID != m.ID {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatalf("no event published")
	}
}

func TestCreateMarkRejectsInvalidInput(t *testing.T) {
	svc := NewMarkService(&fakeStore{}, nil, 3, 24*time.Hour)
	p := &model.Principal{ID: "u1", DisplayName: "Alice"}

	_, err := svc.CreateMark(context.Background(), p, &model.MarkInput{
		Text:           "   ",
		Position:       model.Position{Lat: 45, Lng: 9},
		CreatedAtLocal: time.Now().UTC(),
	})
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("want validation error for blank text, got %v", err)
	}

	_, err = svc.CreateMark(context.Background(), p, &model.MarkInput{
		Text:           "ok",
		Position:       model.Position{Lat: 91, Lng: 9},
		CreatedAtLocal: time.Now().UTC(),
	})
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("want validation error for out-of-range lat, got %v", err)
	}
}

func TestQuotaStatusCountsWindow(t *testing.T) {
	fs := &fakeStore{}
	svc := NewMarkService(fs, nil, 3, 24*time.Hour)
	p := &model.Principal{ID: "u1", DisplayName: "Alice"}

	st, err := svc.QuotaStatus(context.Background(), "u1")
	if err != nil {
		t.Fatalf("QuotaStatus error: %v", err)
	}
	if !st.Allowed || st.Remaining != 3 {
		t.Fatalf("fresh author: want allowed with 3 remaining, got %+v", st)
	}

	for i := 0; i < 2; i++ {
		if _, err := svc.CreateMark(context.Background(), p, &model.MarkInput{
			Text:           "mark",
			Position:       model.Position{Lat: 45, Lng: 9},
			CreatedAtLocal: time.Now().UTC(),
		}); err != nil {
			t.Fatalf("CreateMark error: %v", err)
		}
	}

	st, err = svc.QuotaStatus(context.Background(), "u1")
	if err != nil {
		t.Fatalf("QuotaStatus error: %v", err)
	}
	if !st.Allowed || st.Remaining != 1 {
		t.Fatalf("two prior marks: want allowed with 1 remaining, got %+v", st)
	}
	if fs.marks.lastList.Limit != 3 {
		t.Fatalf("quota query should cap at the ceiling, got limit %d", fs.marks.lastList.Limit)
	}

	if _, err := svc.CreateMark(context.Background(), p, &model.MarkInput{
		Text:           "third",
		Position:       model.Position{Lat: 45, Lng: 9},
		CreatedAtLocal: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("CreateMark error: %v", err)
	}

	st, err = svc.QuotaStatus(context.Background(), "u1")
	if err != nil {
		t.Fatalf("QuotaStatus error: %v", err)
	}
	if st.Allowed || st.Remaining != 0 {
		t.Fatalf("at the ceiling: want exhausted quota, got %+v", st)
	}
}

func TestQuotaIsAdvisoryNotEnforced(t *testing.T) {
	fs := &fakeStore{}
	svc := NewMarkService(fs, nil, 1, 24*time.Hour)
	p := &model.Principal{ID: "u1", DisplayName: "Alice"}

	for i := 0; i < 2; i++ {
		if _, err := svc.CreateMark(context.Background(), p, &model.MarkInput{
			Text:           "over",
			Position:       model.Position{Lat: 45, Lng: 9},
			CreatedAtLocal: time.Now().UTC(),
		}); err != nil {
			t.Fatalf("CreateMark should not enforce quota, got %v", err)
		}
	}
	if len(fs.marks.rows) != 2 {
		t.Fatalf("both writes should land, got %d rows", len(fs.marks.rows))
	}
}
