package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
)

// Locator resolves the device's current position. The production
// implementation asks an IP-geolocation service; hosts with access to a real
// positioning API substitute their own.
type Locator interface {
	CurrentPosition(ctx context.Context) (Position, error)
}

// geolocationTimeout caps how long a position lookup may take. Users are
// waiting behind a "use my location" button; past a few seconds the answer
// is worthless.
const geolocationTimeout = 8 * time.Second

// IPLocator resolves a coarse position from the caller's IP address.
type IPLocator struct {
	client *resty.Client
}

// NewIPLocator creates a locator against the given geolocation service base
// URL. It reads ORMA_GEOIP_URL when base is empty, falling back to ip-api.com.
func NewIPLocator(base string) *IPLocator {
	if base == "" {
		base = os.Getenv("ORMA_GEOIP_URL")
	}
	if base == "" {
		base = "http://ip-api.com"
	}

	c := resty.New().
		SetBaseURL(base).
		SetHeader("Accept", "application/json").
		SetTimeout(geolocationTimeout)

	return &IPLocator{client: c}
}

type geoipResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// CurrentPosition asks the geolocation service where this IP is.
func (l *IPLocator) CurrentPosition(ctx context.Context) (Position, error) {
	resp, err := l.client.R().
		SetContext(ctx).
		Get("/json")
	if err != nil {
		return Position{}, &GeolocationError{Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return Position{}, &GeolocationError{Err: fmt.Errorf("geolocation status %d: %s", resp.StatusCode(), resp.String())}
	}

	var gr geoipResponse
	if err := json.Unmarshal(resp.Body(), &gr); err != nil {
		return Position{}, &GeolocationError{Err: fmt.Errorf("decode response: %w", err)}
	}
	if gr.Status != "success" {
		return Position{}, &GeolocationError{Err: fmt.Errorf("geolocation refused: %s", gr.Message)}
	}

	pos := Position{Lat: gr.Lat, Lng: gr.Lon}
	if !pos.Valid() {
		return Position{}, &GeolocationError{Err: fmt.Errorf("geolocation returned invalid coordinates %v", pos)}
	}
	return pos, nil
}
