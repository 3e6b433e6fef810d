package health

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// StoreChecker adapts a HealthPinger (the database store) into a
// component-level HealthChecker.
type StoreChecker struct {
	pinger  HealthPinger
	healthy atomic.Int32
	log     zerolog.Logger
}

func NewStoreChecker(pinger HealthPinger, log zerolog.Logger) *StoreChecker {
	return &StoreChecker{pinger: pinger, log: log}
}

func (c *StoreChecker) Name() string { return "store" }

func (c *StoreChecker) IsHealthy() bool { return c.healthy.Load() == 1 }

// Start pings the store on the given interval until ctx is done.
func (c *StoreChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	probe := func() {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := c.pinger.HealthPing(pingCtx); err != nil {
			if c.healthy.Swap(0) == 1 {
				c.log.Error().Err(err).Msg("store health: DOWN")
			}
			return
		}
		if c.healthy.Swap(1) == 0 {
			c.log.Info().Msg("store health: UP")
		}
	}

	probe()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			probe()
		}
	}
}
