package model

import (
	"encoding/json"
	"testing"
)

func decodeMark(t *testing.T, body string) *Mark {
	t.Helper()
	var m Mark
	if err := json.Unmarshal([]byte(body), &m); err != nil {
		t.Fatalf("unmarshal mark: %v", err)
	}
	return &m
}

func TestMarkUnmarshalFlatPosition(t *testing.T) {
	m := decodeMark(t, `{"id":"m1","text":"hi","authorId":"u1","position":{"lat":45.5,"lng":9.2},"createdAtLocal":"2026-08-28T12:00:00Z"}`)
	if !m.HasPosition() {
		t.Fatalf("want position from flat encoding")
	}
	if m.Position.Lat != 45.5 || m.Position.Lng != 9.2 {
		t.Fatalf("got position %+v", m.Position)
	}
}

func TestMarkUnmarshalGeoPointLocation(t *testing.T) {
	m := decodeMark(t, `{"id":"m2","text":"hi","authorId":"u1","location":{"latitude":41.9,"longitude":12.5},"createdAtLocal":"2026-08-28T12:00:00Z"}`)
	if !m.HasPosition() {
		t.Fatalf("want position from geo-point location encoding")
	}
	if m.Position.Lat != 41.9 || m.Position.Lng != 12.5 {
		t.Fatalf("got position %+v", m.Position)
	}
}

func TestMarkUnmarshalCoordsPair(t *testing.T) {
	m := decodeMark(t, `{"id":"m3","text":"hi","authorId":"u1","coords":[40.8,14.2],"createdAtLocal":"2026-08-28T12:00:00Z"}`)
	if !m.HasPosition() {
		t.Fatalf("want position from [lat,lng] pair encoding")
	}
	if m.Position.Lat != 40.8 || m.Position.Lng != 14.2 {
		t.Fatalf("got position %+v", m.Position)
	}
}

func TestMarkUnmarshalFlatPositionWins(t *testing.T) {
	m := decodeMark(t, `{"id":"m4","text":"hi","authorId":"u1","position":{"lat":1,"lng":2},"location":{"latitude":3,"longitude":4},"createdAtLocal":"2026-08-28T12:00:00Z"}`)
	if m.Position.Lat != 1 || m.Position.Lng != 2 {
		t.Fatalf("flat position should take precedence, got %+v", m.Position)
	}
}

func TestMarkUnmarshalUnrecognizedPosition(t *testing.T) {
	for name, body := range map[string]string{
		"absent":         `{"id":"m5","text":"hi","authorId":"u1","createdAtLocal":"2026-08-28T12:00:00Z"}`,
		"out of range":   `{"id":"m6","text":"hi","authorId":"u1","position":{"lat":91,"lng":0},"createdAtLocal":"2026-08-28T12:00:00Z"}`,
		"short pair":     `{"id":"m7","text":"hi","authorId":"u1","coords":[40.8],"createdAtLocal":"2026-08-28T12:00:00Z"}`,
		"non-array pair": `{"id":"m8","text":"hi","authorId":"u1","coords":"40.8,14.2","createdAtLocal":"2026-08-28T12:00:00Z"}`,
	} {
		m := decodeMark(t, body)
		if m.Position != nil {
			t.Fatalf("%s: want nil position, got %+v", name, m.Position)
		}
		if m.HasPosition() {
			t.Fatalf("%s: mark should report no position", name)
		}
	}
}
