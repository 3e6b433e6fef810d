package client

import (
	"fmt"
	"html"
	"time"
)

// MapWidget is the rendering collaborator: some map surface that can show
// labeled points. The SDK never talks to a real map; hosts supply an
// implementation and tests supply recorders.
type MapWidget interface {
	AddPoint(lat, lng float64, label string)
	ClearPoints()
}

// MarkRenderer projects marks onto a MapWidget. All snapshot application is
// replace-all: ReplaceAll clears and redraws, so repeated application of the
// same snapshot is idempotent and out-of-date pins never linger.
type MarkRenderer struct {
	widget MapWidget

	// now is swappable for tests.
	now func() time.Time
}

func NewMarkRenderer(widget MapWidget) *MarkRenderer {
	return &MarkRenderer{widget: widget, now: time.Now}
}

// ReplaceAll clears the widget and draws every renderable mark in the
// snapshot. Marks without a usable position are skipped, not errors: old
// rows with unrecognized location encodings still exist, they just have
// nowhere to draw.
func (r *MarkRenderer) ReplaceAll(marks []*Mark) {
	r.widget.ClearPoints()
	for _, m := range marks {
		r.AddOne(m)
	}
}

// AddOne draws a single mark if it has a usable position.
func (r *MarkRenderer) AddOne(m *Mark) {
	if m == nil || !m.HasPosition() {
		return
	}
	r.widget.AddPoint(m.Position.Lat, m.Position.Lng, r.label(m))
}

// label builds the pin popup text. Author label and text are user-supplied
// and must be HTML-escaped before they reach any widget that renders markup.
func (r *MarkRenderer) label(m *Mark) string {
	author := m.AuthorLabel
	if author == "" {
		author = "anonymous"
	}
	return fmt.Sprintf("%s: %s (%s)",
		html.EscapeString(author),
		html.EscapeString(m.Text),
		r.humanTime(m),
	)
}

// humanTime renders the mark's effective timestamp relative to now. A mark
// with neither timestamp resolved yet reads "just now": that only happens to
// rows so fresh the server clock has not propagated.
func (r *MarkRenderer) humanTime(m *Mark) string {
	var ts time.Time
	switch {
	case m.CreatedAt != nil:
		ts = *m.CreatedAt
	case !m.CreatedAtLocal.IsZero():
		ts = m.CreatedAtLocal
	default:
		return "just now"
	}

	d := r.now().Sub(ts)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return ts.Format("2 Jan 2006")
	}
}
