package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orma-app/orma/internal/model"
)

// --- Fakes ---

type fakeGeoStore struct {
	mu        sync.Mutex
	marks     []*Mark
	appendErr error
	queryErr  error
	byAuthErr error
}

func (f *fakeGeoStore) Append(_ context.Context, in MarkInput) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return "", f.appendErr
	}
	now := time.Now().UTC()
	pos := in.Position
	id := fmt.Sprintf("mark-%d", len(f.marks)+1)
	f.marks = append(f.marks, &Mark{
		ID:             id,
		Text:           in.Text,
		Position:       &pos,
		AuthorID:       in.AuthorID,
		AuthorLabel:    in.AuthorLabel,
		CreatedAt:      &now,
		CreatedAtLocal: in.CreatedAtLocal,
	})
	return id, nil
}

func (f *fakeGeoStore) QueryRecent(_ context.Context, limit int) ([]*Mark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	out := make([]*Mark, 0, len(f.marks))
	for i := len(f.marks) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.marks[i])
	}
	return out, nil
}

func (f *fakeGeoStore) QueryByAuthorSince(_ context.Context, authorID string, since time.Time, limit int) ([]*Mark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.byAuthErr != nil {
		return nil, f.byAuthErr
	}
	var out []*Mark
	for _, m := range f.marks {
		if m.AuthorID != authorID || m.EffectiveTime().Before(since) {
			continue
		}
		out = append(out, m)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeGeoStore) Subscribe(context.Context, int) (*Subscription, error) {
	panic("unused")
}

type fakeWidget struct {
	mu     sync.Mutex
	points []fakePoint
	clears int
}

type fakePoint struct {
	lat, lng float64
	label    string
}

func (w *fakeWidget) AddPoint(lat, lng float64, label string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.points = append(w.points, fakePoint{lat, lng, label})
}

func (w *fakeWidget) ClearPoints() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.points = nil
	w.clears++
}

type fixedLocator struct {
	pos Position
	err error
}

func (l fixedLocator) CurrentPosition(context.Context) (Position, error) { return l.pos, l.err }

func newController(store GeoStore, widget MapWidget, author Author) *MarkSubmissionController {
	return NewMarkSubmissionController(
		store,
		NewRateLimiter(store),
		NewMarkRenderer(widget),
		nil,
		author,
	)
}

// --- Tests ---

func TestSubmitHappyPath(t *testing.T) {
	fs := &fakeGeoStore{}
	w := &fakeWidget{}
	c := newController(fs, w, Author{ID: "u1", Label: "Alice"})

	require.NoError(t, c.PickLocation(45.4642, 9.19))

	id, status, err := c.Submit(context.Background(), "  una panchina nascosta  ")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, StateConfirmed, c.State())
	assert.Equal(t, 2, status.Remaining)

	require.Len(t, fs.marks, 1)
	stored := fs.marks[0]
	assert.Equal(t, "una panchina nascosta", stored.Text, "text must be trimmed before write")
	assert.Equal(t, "u1", stored.AuthorID)

	// Jittered position stays within the bound of the picked location.
	assert.InDelta(t, 45.4642, stored.Position.Lat, jitterMaxDegrees)
	assert.True(t, stored.Position.Valid())

	// One optimistic point plus the reconciliation redraw of the same mark.
	w.mu.Lock()
	defer w.mu.Unlock()
	assert.Equal(t, 1, w.clears, "reconciliation does one replace-all")
	require.Len(t, w.points, 1)
	assert.Contains(t, w.points[0].label, "una panchina nascosta")
}

func TestSubmitRejectsEmptyText(t *testing.T) {
	// The quota trap proves validation rejects before any quota read.
	fs := &fakeGeoStore{byAuthErr: errors.New("quota must not be consulted")}
	c := newController(fs, &fakeWidget{}, Author{ID: "u1", Label: "Alice"})
	require.NoError(t, c.PickLocation(45, 9))

	_, _, err := c.Submit(context.Background(), "   \n\t ")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, StateRejected, c.State())
	assert.Empty(t, fs.marks, "nothing written on validation failure")
}

func TestSubmitRejectsWithoutLocation(t *testing.T) {
	c := newController(&fakeGeoStore{}, &fakeWidget{}, Author{ID: "u1"})

	_, _, err := c.Submit(context.Background(), "testo valido")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestSubmitQuotaExceeded(t *testing.T) {
	fs := &fakeGeoStore{}
	c := newController(fs, &fakeWidget{}, Author{ID: "u1", Label: "Alice"})

	// Fill the window to the ceiling.
	for i := 0; i < DefaultQuotaMax; i++ {
		require.NoError(t, c.PickLocation(45, 9))
		_, _, err := c.Submit(context.Background(), fmt.Sprintf("mark %d", i))
		require.NoError(t, err)
	}

	require.NoError(t, c.PickLocation(45, 9))
	_, status, err := c.Submit(context.Background(), "one too many")
	var qerr *QuotaExceededError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, 0, status.Remaining)
	assert.Equal(t, StateRejected, c.State())
	assert.Len(t, fs.marks, DefaultQuotaMax, "no append past the ceiling")
}

func TestSubmitWithTwoPriorMarks(t *testing.T) {
	fs := &fakeGeoStore{}
	c := newController(fs, &fakeWidget{}, Author{ID: "u1", Label: "Alice"})

	for i := 0; i < 2; i++ {
		require.NoError(t, c.PickLocation(45, 9))
		_, _, err := c.Submit(context.Background(), fmt.Sprintf("prior %d", i))
		require.NoError(t, err)
	}

	// Third submission is the last allowed one.
	require.NoError(t, c.PickLocation(45.001, 9.001))
	id, status, err := c.Submit(context.Background(), "l'ultimo")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.False(t, status.Allowed)
	assert.Equal(t, 0, status.Remaining)
	assert.Len(t, fs.marks, 3)
}

func TestSubmitWriteFailure(t *testing.T) {
	fs := &fakeGeoStore{appendErr: errors.New("connection reset")}
	w := &fakeWidget{}
	c := newController(fs, w, Author{ID: "u1", Label: "Alice"})
	require.NoError(t, c.PickLocation(45, 9))

	_, _, err := c.Submit(context.Background(), "non arriverà")
	var werr *WriteError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, StateRejected, c.State())
	assert.Empty(t, w.points, "no optimistic render on write failure")
}

func TestSubmitReadFailureKeepsDisplay(t *testing.T) {
	fs := &fakeGeoStore{}
	w := &fakeWidget{}
	c := newController(fs, w, Author{ID: "u1", Label: "Alice"})
	require.NoError(t, c.PickLocation(45, 9))

	// Sabotage only the read-back; quota checks use QueryByAuthorSince.
	fs.queryErr = errors.New("store unavailable")

	id, _, err := c.Submit(context.Background(), "scritto ma non riletto")
	var rerr *ReadError
	require.ErrorAs(t, err, &rerr)
	assert.NotEmpty(t, id, "the write itself succeeded")
	assert.Equal(t, StateConfirmed, c.State())

	w.mu.Lock()
	defer w.mu.Unlock()
	require.Len(t, w.points, 1, "optimistic point survives the failed read-back")
	assert.Equal(t, 0, w.clears, "display never cleared on read failure")
}

func TestSubmitSkipsReconcileWithLiveSubscription(t *testing.T) {
	fs := &fakeGeoStore{}
	w := &fakeWidget{}
	c := newController(fs, w, Author{ID: "u1", Label: "Alice"})
	c.SetLiveSubscription(true)
	require.NoError(t, c.PickLocation(45, 9))

	// A read failure must not surface when the subscription reconciles.
	fs.queryErr = errors.New("store unavailable")

	_, _, err := c.Submit(context.Background(), "live mode")
	require.NoError(t, err)

	w.mu.Lock()
	defer w.mu.Unlock()
	assert.Equal(t, 0, w.clears)
	assert.Len(t, w.points, 1)
}

func TestPickLocationRejectsOutOfRange(t *testing.T) {
	c := newController(&fakeGeoStore{}, &fakeWidget{}, Author{ID: "u1"})
	var verr *ValidationError
	require.ErrorAs(t, c.PickLocation(91, 0), &verr)
	require.ErrorAs(t, c.PickLocation(0, 181), &verr)
}

func TestPickCurrentPositionLocatorFailure(t *testing.T) {
	c := NewMarkSubmissionController(
		&fakeGeoStore{},
		NewRateLimiter(&fakeGeoStore{}),
		nil,
		fixedLocator{err: errors.New("timeout")},
		Author{ID: "u1"},
	)

	err := c.PickCurrentPosition(context.Background())
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	var gerr *GeolocationError
	assert.ErrorAs(t, err, &gerr, "geolocation cause stays in the chain")
}

func TestPickCurrentPositionSuccess(t *testing.T) {
	fs := &fakeGeoStore{}
	c := NewMarkSubmissionController(
		fs,
		NewRateLimiter(fs),
		NewMarkRenderer(&fakeWidget{}),
		fixedLocator{pos: Position{Lat: 41.9, Lng: 12.49}},
		Author{ID: "u1", Label: "Alice"},
	)

	require.NoError(t, c.PickCurrentPosition(context.Background()))
	_, _, err := c.Submit(context.Background(), "da geolocalizzazione")
	require.NoError(t, err)
	require.Len(t, fs.marks, 1)
	assert.InDelta(t, 41.9, fs.marks[0].Position.Lat, jitterMaxDegrees)
}

func TestValidationErrorsAreModelAgnostic(t *testing.T) {
	// Controller errors are the client taxonomy, not the server's.
	c := newController(&fakeGeoStore{}, &fakeWidget{}, Author{ID: "u1"})
	require.NoError(t, c.PickLocation(45, 9))
	_, _, err := c.Submit(context.Background(), " ")
	assert.False(t, errors.Is(err, model.ErrValidation))
	assert.True(t, strings.Contains(err.Error(), "validation"))
}
