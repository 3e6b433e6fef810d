package client

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// snapshotMessage mirrors the live socket's push format.
type snapshotMessage struct {
	Type  string  `json:"type"`
	Segni []*Mark `json:"segni"`
}

// Subscribe opens a snapshot stream. It prefers the live websocket and falls
// back to interval polling when the socket cannot be established. Either way
// the subscription delivers complete mark sets, never deltas, so consumers
// replace their rendered state on every receive.
//
// Cancellation is prompt: once ctx is done or Cancel is called, no further
// snapshots are delivered, and the snapshot channel closes.
func (c *Client) Subscribe(ctx context.Context, limit int) (*Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		snapshots: make(chan []*Mark),
		cancel:    cancel,
	}

	conn, err := c.dialLive()
	if err != nil {
		log.Debug().Err(err).Msg("live socket unavailable, falling back to polling")
		go c.pollLoop(subCtx, sub, limit)
		return sub, nil
	}
	go c.liveLoop(subCtx, sub, conn, limit)
	return sub, nil
}

func (c *Client) liveURL() string {
	u := c.baseURL
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/api/segni/live?token=" + c.token
}

func (c *Client) dialLive() (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.Dial(c.liveURL(), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

// liveLoop reads snapshots off the websocket, reconnecting with exponential
// backoff on read failures. It degrades to polling when reconnection gives up.
func (c *Client) liveLoop(ctx context.Context, sub *Subscription, conn *websocket.Conn, limit int) {
	for {
		err := c.readSnapshots(ctx, sub, conn)
		if ctx.Err() != nil {
			close(sub.snapshots)
			return
		}
		log.Debug().Err(err).Msg("live socket dropped, reconnecting")

		conn, err = c.redialWithBackoff(ctx)
		if err != nil {
			if ctx.Err() != nil {
				close(sub.snapshots)
				return
			}
			log.Debug().Err(err).Msg("live socket reconnect gave up, polling instead")
			c.pollLoop(ctx, sub, limit)
			return
		}
	}
}

func (c *Client) redialWithBackoff(ctx context.Context) (*websocket.Conn, error) {
	var conn *websocket.Conn
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx)
	err := backoff.Retry(func() error {
		var err error
		conn, err = c.dialLive()
		return err
	}, policy)
	return conn, err
}

// readSnapshots delivers decoded snapshots until the connection or context
// dies. Delivery is guarded by ctx so a canceled subscriber never observes an
// in-flight result.
func (c *Client) readSnapshots(ctx context.Context, sub *Subscription, conn *websocket.Conn) error {
	defer func() { _ = conn.Close() }()

	// The watcher must not outlive this connection, or every reconnect
	// would leak one goroutine until the subscription ends.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var msg snapshotMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Debug().Err(err).Msg("undecodable live message dropped")
			continue
		}
		if msg.Type != "snapshot" {
			continue
		}
		select {
		case sub.snapshots <- msg.Segni:
			snapshotsAppliedTotal.WithLabelValues("live").Inc()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// pollLoop queries on an interval and delivers each successful result as a
// snapshot. Query failures retry with exponential backoff before falling
// back to the regular interval.
func (c *Client) pollLoop(ctx context.Context, sub *Subscription, limit int) {
	defer close(sub.snapshots)

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	poll := func() {
		var marks []*Mark
		policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
		err := backoff.Retry(func() error {
			var err error
			marks, err = c.QueryRecent(ctx, limit)
			return err
		}, policy)
		if err != nil {
			log.Debug().Err(err).Msg("poll failed, keeping last snapshot")
			return
		}
		select {
		case sub.snapshots <- marks:
			snapshotsAppliedTotal.WithLabelValues("poll").Inc()
		case <-ctx.Done():
		}
	}

	poll()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			poll()
		}
	}
}
