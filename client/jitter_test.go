package client

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJitterStaysWithinBound(t *testing.T) {
	p := &DeduplicationPolicy{rand: rand.New(rand.NewSource(1))}
	origin := Position{Lat: 45.4642, Lng: 9.19}

	for i := 0; i < 1000; i++ {
		out := p.Apply(origin)
		assert.True(t, out.Valid())

		dLat := math.Abs(out.Lat - origin.Lat)
		assert.LessOrEqual(t, dLat, jitterMaxDegrees)

		// The longitude offset compensates for latitude, so compare in
		// meters-equivalent degrees.
		dLng := math.Abs(out.Lng-origin.Lng) * math.Cos(origin.Lat*math.Pi/180)
		assert.LessOrEqual(t, dLng, jitterMaxDegrees*1.0001)
	}
}

func TestJitterIsZeroCentered(t *testing.T) {
	p := &DeduplicationPolicy{rand: rand.New(rand.NewSource(42))}
	origin := Position{Lat: 0, Lng: 0}

	var sumLat, sumLng float64
	const n = 5000
	for i := 0; i < n; i++ {
		out := p.Apply(origin)
		sumLat += out.Lat
		sumLng += out.Lng
	}
	assert.InDelta(t, 0, sumLat/n, jitterMaxDegrees/10)
	assert.InDelta(t, 0, sumLng/n, jitterMaxDegrees/10)
}

func TestJitterOutputAlwaysValidAtEdges(t *testing.T) {
	p := NewDeduplicationPolicy()
	edges := []Position{
		{Lat: 89.9999, Lng: 179.9999},
		{Lat: -89.9999, Lng: -179.9999},
		{Lat: 90, Lng: 0},
		{Lat: 0, Lng: 180},
	}
	for _, origin := range edges {
		for i := 0; i < 100; i++ {
			out := p.Apply(origin)
			assert.True(t, out.Valid(), "jitter of %+v produced invalid %+v", origin, out)
		}
	}
}
