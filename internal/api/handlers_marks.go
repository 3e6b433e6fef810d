package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	respond "github.com/orma-app/orma/internal/api/respond"
	"github.com/orma-app/orma/internal/auth"
	"github.com/orma-app/orma/internal/model"
	"github.com/orma-app/orma/internal/services"
)

// Marks never change after creation, so list responses cap out rather than
// paginate. defaultListLimit bounds an unqualified GET /api/segni.
const (
	defaultListLimit = 100
	maxListLimit     = 500
)

type MarkHandler struct {
	svc        *services.MarkService
	authorizer auth.Authorizer
}

func NewMarkHandler(svc *services.MarkService, authorizer auth.Authorizer) *MarkHandler {
	return &MarkHandler{svc: svc, authorizer: authorizer}
}

func (h *MarkHandler) principal(w http.ResponseWriter, r *http.Request) (*model.Principal, bool) {
	token, err := auth.ExtractBearer(r)
	if err != nil {
		respond.WriteUnauthorized(w, "Unauthorized: "+err.Error())
		return nil, false
	}
	p, err := h.authorizer.Authorize(r.Context(), token)
	if err != nil {
		respond.WriteUnauthorized(w, "Unauthorized: "+err.Error())
		return nil, false
	}
	return p, true
}

// CreateMark POST /api/segni
//
// The server authenticates and validates but does not enforce the submission
// quota; that ceiling is applied by clients before the request is made.
func (h *MarkHandler) CreateMark(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req struct {
		Text           string         `json:"text"`
		Position       model.Position `json:"position"`
		CreatedAtLocal time.Time      `json:"createdAtLocal"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if req.CreatedAtLocal.IsZero() {
		req.CreatedAtLocal = time.Now().UTC()
	}

	in := &model.MarkInput{
		Text:           req.Text,
		Position:       req.Position,
		CreatedAtLocal: req.CreatedAtLocal,
	}
	out, err := h.svc.CreateMark(r.Context(), p, in)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// ListMarks GET /api/segni?limit=&orderBy=&authorId=&since=
func (h *MarkHandler) ListMarks(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.principal(w, r); !ok {
		return
	}

	q := r.URL.Query()

	limit := defaultListLimit
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			respond.WriteBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	orderBy := model.OrderByCreatedAt
	switch q.Get("orderBy") {
	case "", string(model.OrderByCreatedAt):
	case string(model.OrderByCreatedAtLocal):
		orderBy = model.OrderByCreatedAtLocal
	default:
		respond.WriteBadRequest(w, "orderBy must be createdAt or createdAtLocal")
		return
	}

	req := model.ListMarksRequest{
		AuthorID: q.Get("authorId"),
		Limit:    limit,
		OrderBy:  orderBy,
	}
	if s := q.Get("since"); s != "" {
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			respond.WriteBadRequest(w, "since must be RFC 3339")
			return
		}
		req.Since = &ts
	}

	var out []*model.Mark
	var err error
	if req.AuthorID != "" {
		since := time.Time{}
		if req.Since != nil {
			since = *req.Since
		}
		out, err = h.svc.ListByAuthorSince(r.Context(), req.AuthorID, since, req.Limit, req.OrderBy)
	} else {
		out, err = h.svc.ListRecent(r.Context(), req.Limit, req.OrderBy)
	}
	if err != nil {
		respond.WriteInternalError(w, err.Error())
		return
	}
	if out == nil {
		out = []*model.Mark{}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"segni": out, "count": len(out)})
}

// GetMark GET /api/segni/{markId}
func (h *MarkHandler) GetMark(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.principal(w, r); !ok {
		return
	}

	v := mux.Vars(r)
	out, err := h.svc.GetMark(r.Context(), v["markId"])
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// QuotaStatus GET /api/quota
//
// Advisory only: reports how many submissions remain in the caller's rolling
// window, alongside the policy numbers clients need to enforce it locally.
func (h *MarkHandler) QuotaStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	st, err := h.svc.QuotaStatus(r.Context(), p.ID)
	if err != nil {
		respond.WriteInternalError(w, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"allowed":       st.Allowed,
		"remaining":     st.Remaining,
		"max":           h.svc.QuotaMax(),
		"windowSeconds": int(h.svc.QuotaWindow().Seconds()),
	})
}
