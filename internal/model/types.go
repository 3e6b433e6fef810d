package model

import (
	"encoding/json"
	"math"
	"strings"
	"time"
)

// Position is a WGS-84 coordinate pair.
type Position struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether both coordinates are finite and within
// geographic range (lat in [-90,90], lng in [-180,180]).
func (p Position) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || math.IsNaN(p.Lng) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Mark is an immutable geotagged note. CreatedAt is assigned by the store
// at write time and may lag a read that races the write; CreatedAtLocal is
// the client-assigned fallback ordering key.
type Mark struct {
	ID             string     `json:"id"`
	Text           string     `json:"text"`
	Position       *Position  `json:"position,omitempty"`
	AuthorID       string     `json:"authorId"`
	AuthorLabel    string     `json:"authorLabel"`
	AuthorPhotoURL string     `json:"authorPhotoURL,omitempty"`
	CreatedAt      *time.Time `json:"createdAt,omitempty"`
	CreatedAtLocal time.Time  `json:"createdAtLocal"`
}

// HasPosition reports whether the mark carries a usable coordinate.
// Marks without one are skipped by renderers rather than rejected,
// so older documents with unrecognized location encodings still list.
func (m *Mark) HasPosition() bool {
	return m.Position != nil && m.Position.Valid()
}

// MarkInput is the write-side shape of a Mark before the store has
// assigned an ID and authoritative timestamp.
type MarkInput struct {
	Text           string    `json:"text"`
	Position       Position  `json:"position"`
	AuthorID       string    `json:"authorId"`
	AuthorLabel    string    `json:"authorLabel"`
	AuthorPhotoURL string    `json:"authorPhotoURL,omitempty"`
	CreatedAtLocal time.Time `json:"createdAtLocal"`
}

// Validate checks the persistence invariants: non-empty trimmed text,
// valid position, non-empty author.
func (in *MarkInput) Validate() error {
	if strings.TrimSpace(in.Text) == "" {
		return ErrEmptyText
	}
	if !in.Position.Valid() {
		return ErrInvalidPosition
	}
	if in.AuthorID == "" {
		return ErrMissingAuthor
	}
	return nil
}

// OrderKey selects which timestamp a list query sorts on.
type OrderKey string

const (
	// OrderByCreatedAt sorts on the store-assigned timestamp.
	OrderByCreatedAt OrderKey = "createdAt"
	// OrderByCreatedAtLocal sorts on the client-assigned timestamp. This is
	// the documented fallback for rows whose createdAt has not propagated.
	OrderByCreatedAtLocal OrderKey = "createdAtLocal"
)

// ListMarksRequest captures the filters of a marks query. Zero values mean
// "no filter"; OrderBy defaults to OrderByCreatedAt.
type ListMarksRequest struct {
	AuthorID string
	Since    *time.Time
	Limit    int
	OrderBy  OrderKey
}

// Principal identifies an authenticated author.
type Principal struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL,omitempty"`
}

// QuotaStatus is the advisory result of a quota check.
type QuotaStatus struct {
	Allowed   bool `json:"allowed"`
	Remaining int  `json:"remaining"`
}

// markWire mirrors Mark on the wire but keeps the alternate location
// encodings older documents used, so decoding stays lenient.
type markWire struct {
	ID             string          `json:"id"`
	Text           string          `json:"text"`
	Position       *Position       `json:"position,omitempty"`
	Location       *geoPoint       `json:"location,omitempty"`
	Coords         json.RawMessage `json:"coords,omitempty"`
	AuthorID       string          `json:"authorId"`
	AuthorLabel    string          `json:"authorLabel"`
	AuthorPhotoURL string          `json:"authorPhotoURL,omitempty"`
	CreatedAt      *time.Time      `json:"createdAt,omitempty"`
	CreatedAtLocal time.Time       `json:"createdAtLocal"`
}

type geoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// UnmarshalJSON normalizes the three historical position encodings
// (direct position object, nested geo-point, bare [lat,lng] pair) into
// Mark.Position. Unrecognized shapes leave Position nil.
func (m *Mark) UnmarshalJSON(data []byte) error {
	var w markWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	m.ID = w.ID
	m.Text = w.Text
	m.AuthorID = w.AuthorID
	m.AuthorLabel = w.AuthorLabel
	m.AuthorPhotoURL = w.AuthorPhotoURL
	m.CreatedAt = w.CreatedAt
	m.CreatedAtLocal = w.CreatedAtLocal
	m.Position = normalizePosition(&w)
	return nil
}

func normalizePosition(w *markWire) *Position {
	if w.Position != nil && w.Position.Valid() {
		return w.Position
	}
	if w.Location != nil {
		p := Position{Lat: w.Location.Latitude, Lng: w.Location.Longitude}
		if p.Valid() {
			return &p
		}
	}
	if len(w.Coords) > 0 {
		var pair []float64
		if err := json.Unmarshal(w.Coords, &pair); err == nil && len(pair) == 2 {
			p := Position{Lat: pair[0], Lng: pair[1]}
			if p.Valid() {
				return &p
			}
		}
	}
	return nil
}

// EffectiveTime returns the timestamp a caller should order or display by:
// the authoritative CreatedAt when present, else CreatedAtLocal.
func (m *Mark) EffectiveTime() time.Time {
	if m.CreatedAt != nil {
		return *m.CreatedAt
	}
	return m.CreatedAtLocal
}
