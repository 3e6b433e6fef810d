package client

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// SubmissionState tracks where a submission stands in its lifecycle.
type SubmissionState int

const (
	StateIdle SubmissionState = iota
	StatePicking
	StateValidating
	StateQuotaChecking
	StateWriting
	StateConfirmed
	StateRejected
)

func (s SubmissionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePicking:
		return "picking"
	case StateValidating:
		return "validating"
	case StateQuotaChecking:
		return "quota_checking"
	case StateWriting:
		return "writing"
	case StateConfirmed:
		return "confirmed"
	case StateRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// reconcileLimit bounds the read-back query after a confirmed write.
const reconcileLimit = 100

// MarkSubmissionController drives one user's mark submission:
// pick a location, validate, re-check quota, jitter, append, render
// optimistically, reconcile against the store.
//
// A mutex serializes the steps of a submission against other submissions on
// the same controller. Separate controllers (other devices, other tabs) are
// NOT excluded; the quota re-check narrows but cannot close that race, so
// two racing writers can overshoot the ceiling by one. That overshoot is
// accepted.
type MarkSubmissionController struct {
	mu sync.Mutex

	store    GeoStore
	limiter  *RateLimiter
	renderer *MarkRenderer
	jitter   *DeduplicationPolicy
	locator  Locator

	author  Author
	picked  *Position
	state   SubmissionState
	hasLive bool
}

// Author identifies who is submitting and how their marks are labeled.
type Author struct {
	ID       string
	Label    string
	PhotoURL string
}

// NewMarkSubmissionController wires a controller. locator may be nil when
// positions only ever come from map clicks.
func NewMarkSubmissionController(store GeoStore, limiter *RateLimiter, renderer *MarkRenderer, locator Locator, author Author) *MarkSubmissionController {
	return &MarkSubmissionController{
		store:    store,
		limiter:  limiter,
		renderer: renderer,
		jitter:   NewDeduplicationPolicy(),
		locator:  locator,
		author:   author,
		state:    StateIdle,
	}
}

// SetLiveSubscription tells the controller an active snapshot subscription
// is rendering for it, so confirmed writes skip the explicit read-back.
func (c *MarkSubmissionController) SetLiveSubscription(active bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hasLive = active
}

// State reports the last observed submission state.
func (c *MarkSubmissionController) State() SubmissionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// PickLocation records the position the next Submit will use, typically
// from a map click.
func (c *MarkSubmissionController) PickLocation(lat, lng float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := Position{Lat: lat, Lng: lng}
	if !p.Valid() {
		return &ValidationError{Reason: "position out of range"}
	}
	c.picked = &p
	c.state = StatePicking
	return nil
}

// PickCurrentPosition asks the locator for the device position and records
// it. Locator failures surface as ValidationError: the submission cannot
// proceed without a position, same as any other invalid input.
func (c *MarkSubmissionController) PickCurrentPosition(ctx context.Context) error {
	c.mu.Lock()
	locator := c.locator
	c.mu.Unlock()

	if locator == nil {
		return &ValidationError{Reason: "no locator configured"}
	}
	pos, err := locator.CurrentPosition(ctx)
	if err != nil {
		return &ValidationError{Reason: "geolocation unavailable", Err: &GeolocationError{Err: err}}
	}
	return c.PickLocation(pos.Lat, pos.Lng)
}

// Submit runs the full pipeline for text at the picked location:
//
//	Validating → QuotaChecking → Writing → Confirmed
//
// with Rejected on any refusal. The written position is jittered; the text
// is trimmed. On Confirmed the mark is rendered optimistically with its
// local fields and the display is then reconciled from the store. A failed
// reconciliation read returns ReadError but never clears the display: the
// optimistic point stays until a later snapshot replaces it.
//
// Returns the server-assigned mark id, the post-submit quota status, and
// the first error encountered.
func (c *MarkSubmissionController) Submit(ctx context.Context, text string) (string, QuotaStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Validating
	c.state = StateValidating
	text = strings.TrimSpace(text)
	if text == "" {
		c.state = StateRejected
		submissionsRejectedTotal.WithLabelValues("empty_text").Inc()
		return "", QuotaStatus{}, &ValidationError{Reason: "text is empty"}
	}
	if c.picked == nil {
		c.state = StateRejected
		submissionsRejectedTotal.WithLabelValues("no_position").Inc()
		return "", QuotaStatus{}, &ValidationError{Reason: "no location picked"}
	}
	if c.author.ID == "" {
		c.state = StateRejected
		submissionsRejectedTotal.WithLabelValues("unauthenticated").Inc()
		return "", QuotaStatus{}, &ValidationError{Reason: "not signed in"}
	}

	// QuotaChecking: re-check immediately before the write to narrow the
	// check-then-act window.
	c.state = StateQuotaChecking
	status, err := c.limiter.CheckQuota(ctx, c.author.ID)
	if err != nil {
		c.state = StateRejected
		submissionsRejectedTotal.WithLabelValues("quota_read_failed").Inc()
		return "", QuotaStatus{}, err
	}
	if !status.Allowed {
		c.state = StateRejected
		submissionsRejectedTotal.WithLabelValues("quota_exceeded").Inc()
		return "", status, &QuotaExceededError{Remaining: status.Remaining}
	}

	// Writing
	c.state = StateWriting
	in := MarkInput{
		Text:           text,
		Position:       c.jitter.Apply(*c.picked),
		AuthorID:       c.author.ID,
		AuthorLabel:    c.author.Label,
		AuthorPhotoURL: c.author.PhotoURL,
		CreatedAtLocal: time.Now().UTC(),
	}
	id, err := c.store.Append(ctx, in)
	if err != nil {
		c.state = StateRejected
		submissionsRejectedTotal.WithLabelValues("write_failed").Inc()
		return "", status, &WriteError{Err: err}
	}

	// Confirmed: render optimistically from local fields. The server copy,
	// createdAt included, arrives with the next snapshot.
	c.state = StateConfirmed
	c.picked = nil
	submissionsTotal.Inc()
	if c.renderer != nil {
		pos := in.Position
		c.renderer.AddOne(&Mark{
			ID:             id,
			Text:           in.Text,
			Position:       &pos,
			AuthorID:       in.AuthorID,
			AuthorLabel:    in.AuthorLabel,
			AuthorPhotoURL: in.AuthorPhotoURL,
			CreatedAtLocal: in.CreatedAtLocal,
		})
	}

	// Post-submit quota for the UI's remaining counter. Advisory; a failure
	// here does not un-confirm anything.
	after, qerr := c.limiter.CheckQuota(ctx, c.author.ID)
	if qerr != nil {
		log.Debug().Err(qerr).Msg("post-submit quota check failed")
		after = QuotaStatus{Allowed: status.Remaining > 1, Remaining: status.Remaining - 1}
	}

	// Reconcile, unless a live subscription is already replacing snapshots.
	if !c.hasLive && c.renderer != nil {
		marks, rerr := c.store.QueryRecent(ctx, reconcileLimit)
		if rerr != nil {
			// Keep the optimistic display.
			return id, after, &ReadError{Err: rerr}
		}
		c.renderer.ReplaceAll(marks)
	}

	return id, after, nil
}
