// Package api contains the HTTP operations behind the public SDK surface.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	clienterrors "github.com/orma-app/orma/client/internal/errors"
	"github.com/orma-app/orma/internal/model"
)

// ListQuery carries the query-string filters of a marks list request.
type ListQuery struct {
	AuthorID string
	Since    *time.Time
	Limit    int
	OrderBy  model.OrderKey
}

// QuotaInfo is the server's advisory quota report.
type QuotaInfo struct {
	Allowed       bool `json:"allowed"`
	Remaining     int  `json:"remaining"`
	Max           int  `json:"max"`
	WindowSeconds int  `json:"windowSeconds"`
}

// CreateMark POSTs a new mark and returns the stored row, including the
// server-assigned id and createdAt.
func CreateMark(ctx context.Context, httpClient *http.Client, baseURL string, in *model.MarkInput) (*model.Mark, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/segni", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, clienterrors.NewNetworkError("create mark", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		return nil, clienterrors.NewHTTPError(resp.StatusCode, readBody(resp.Body), "create mark")
	}
	var out model.Mark
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListMarks GETs marks matching the query, newest first.
func ListMarks(ctx context.Context, httpClient *http.Client, baseURL string, q ListQuery) ([]*model.Mark, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vals := url.Values{}
	if q.AuthorID != "" {
		vals.Set("authorId", q.AuthorID)
	}
	if q.Since != nil {
		vals.Set("since", q.Since.UTC().Format(time.RFC3339))
	}
	if q.Limit > 0 {
		vals.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.OrderBy != "" {
		vals.Set("orderBy", string(q.OrderBy))
	}
	u := baseURL + "/api/segni"
	if enc := vals.Encode(); enc != "" {
		u += "?" + enc
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, clienterrors.NewNetworkError("list marks", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, clienterrors.NewHTTPError(resp.StatusCode, readBody(resp.Body), "list marks")
	}
	var out struct {
		Segni []*model.Mark `json:"segni"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out.Segni, nil
}

// GetMark GETs a single mark by id.
func GetMark(ctx context.Context, httpClient *http.Client, baseURL, markID string) (*model.Mark, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/api/segni/%s", baseURL, markID), nil)
	if err != nil {
		return nil, err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, clienterrors.NewNetworkError("get mark", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, clienterrors.NewHTTPError(resp.StatusCode, readBody(resp.Body), "get mark")
	}
	var out model.Mark
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetQuota GETs the server's advisory quota report for the caller.
func GetQuota(ctx context.Context, httpClient *http.Client, baseURL string) (*QuotaInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/quota", nil)
	if err != nil {
		return nil, err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, clienterrors.NewNetworkError("get quota", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, clienterrors.NewHTTPError(resp.StatusCode, readBody(resp.Body), "get quota")
	}
	var out QuotaInfo
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func readBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 4096))
	return string(b)
}
