// Invariant contract testing. These checks exercise the service through its
// customer-facing HTTP API only (blackbox), and must hold for every storage
// backend. Never weaken an invariant to get an incremental change working.
package invariants

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// InvariantChecker drives the invariant checks against a running service.
type InvariantChecker struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewInvariantChecker creates a checker for the service at baseURL,
// authenticating with token.
func NewInvariantChecker(baseURL, token string) *InvariantChecker {
	return &InvariantChecker{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type markResponse struct {
	ID             string     `json:"id"`
	Text           string     `json:"text"`
	AuthorID       string     `json:"authorId"`
	CreatedAt      *time.Time `json:"createdAt"`
	CreatedAtLocal time.Time  `json:"createdAtLocal"`
}

// INVARIANT: marks are immutable after creation. The API exposes no way to
// change or remove a stored mark.
func (ic *InvariantChecker) TestMarkImmutabilityInvariant(t *testing.T) {
	created := ic.createTestMark(t, "immutable mark")

	for _, method := range []string{http.MethodPut, http.MethodPatch, http.MethodDelete} {
		t.Run(method+"IsRejected", func(t *testing.T) {
			req, err := http.NewRequest(method, fmt.Sprintf("%s/api/segni/%s", ic.baseURL, created.ID), bytes.NewReader([]byte(`{}`)))
			require.NoError(t, err)
			req.Header.Set("Authorization", "Bearer "+ic.token)

			resp, err := ic.client.Do(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode,
				"mutation method %s must not be routable", method)
		})
	}

	// The mark is still there, unchanged.
	after := ic.getMark(t, created.ID)
	assert.Equal(t, created.Text, after.Text)
}

// INVARIANT: the store is append-only. Every mark visible before an append
// is still visible after it.
func (ic *InvariantChecker) TestAppendOnlyInvariant(t *testing.T) {
	before := ic.listMarks(t)
	seen := make(map[string]bool, len(before))
	for _, m := range before {
		seen[m.ID] = true
	}

	ic.createTestMark(t, "append only probe")

	after := ic.listMarks(t)
	found := make(map[string]bool, len(after))
	for _, m := range after {
		found[m.ID] = true
	}
	for id := range seen {
		assert.True(t, found[id], "mark %s disappeared after an append", id)
	}
	assert.Equal(t, len(before)+1, len(after))
}

// INVARIANT: the quota is advisory. The server accepts writes past the
// ceiling; enforcement belongs to clients.
func (ic *InvariantChecker) TestQuotaIsAdvisoryInvariant(t *testing.T, quotaMax int) {
	for i := 0; i <= quotaMax; i++ {
		m := ic.createTestMark(t, fmt.Sprintf("quota probe %d", i))
		assert.NotEmpty(t, m.ID, "write %d past the ceiling must still land", i)
	}
}

// INVARIANT: every mark operation requires authentication.
func (ic *InvariantChecker) TestAuthRequiredInvariant(t *testing.T) {
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/segni"},
		{http.MethodPost, "/api/segni"},
		{http.MethodGet, "/api/quota"},
	} {
		t.Run(tc.method+tc.path, func(t *testing.T) {
			req, err := http.NewRequest(tc.method, ic.baseURL+tc.path, bytes.NewReader([]byte(`{}`)))
			require.NoError(t, err)

			resp, err := ic.client.Do(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

// INVARIANT: list results come newest first by effective timestamp.
func (ic *InvariantChecker) TestOrderingInvariant(t *testing.T) {
	ic.createTestMark(t, "ordering probe a")
	ic.createTestMark(t, "ordering probe b")

	marks := ic.listMarks(t)
	require.GreaterOrEqual(t, len(marks), 2)
	for i := 1; i < len(marks); i++ {
		prev, cur := effectiveTime(marks[i-1]), effectiveTime(marks[i])
		assert.False(t, prev.Before(cur),
			"mark %d (%s) is newer than mark %d (%s)", i, cur, i-1, prev)
	}
}

func effectiveTime(m markResponse) time.Time {
	if m.CreatedAt != nil {
		return *m.CreatedAt
	}
	return m.CreatedAtLocal
}

// --- helpers ---

func (ic *InvariantChecker) createTestMark(t *testing.T, text string) markResponse {
	t.Helper()
	body, _ := json.Marshal(map[string]interface{}{
		"text":           text,
		"position":       map[string]float64{"lat": 45.05, "lng": 7.66},
		"createdAtLocal": time.Now().UTC().Format(time.RFC3339Nano),
	})
	req, err := http.NewRequest(http.MethodPost, ic.baseURL+"/api/segni", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+ic.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := ic.client.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out markResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (ic *InvariantChecker) getMark(t *testing.T, id string) markResponse {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/api/segni/%s", ic.baseURL, id), nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+ic.token)

	resp, err := ic.client.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out markResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (ic *InvariantChecker) listMarks(t *testing.T) []markResponse {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, ic.baseURL+"/api/segni?limit=500", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+ic.token)

	resp, err := ic.client.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Segni []markResponse `json:"segni"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out.Segni
}
