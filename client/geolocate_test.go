package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPLocatorSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/json", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"success","lat":45.4642,"lon":9.19}`))
	}))
	defer srv.Close()

	loc := NewIPLocator(srv.URL)
	pos, err := loc.CurrentPosition(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 45.4642, pos.Lat, 1e-9)
	assert.InDelta(t, 9.19, pos.Lng, 1e-9)
}

func TestIPLocatorRefusal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"fail","message":"private range"}`))
	}))
	defer srv.Close()

	loc := NewIPLocator(srv.URL)
	_, err := loc.CurrentPosition(context.Background())
	var gerr *GeolocationError
	require.ErrorAs(t, err, &gerr)
	assert.Contains(t, err.Error(), "private range")
}

func TestIPLocatorHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	loc := NewIPLocator(srv.URL)
	_, err := loc.CurrentPosition(context.Background())
	var gerr *GeolocationError
	require.ErrorAs(t, err, &gerr)
}

func TestIPLocatorInvalidCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"success","lat":999,"lon":0}`))
	}))
	defer srv.Close()

	loc := NewIPLocator(srv.URL)
	_, err := loc.CurrentPosition(context.Background())
	var gerr *GeolocationError
	require.ErrorAs(t, err, &gerr)
}
