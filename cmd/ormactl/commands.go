package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/orma-app/orma/client"
)

func runPost(ctx context.Context, c *client.Client, text string, lat, lng float64, out io.Writer) error {
	if text == "" {
		return fmt.Errorf("text cannot be empty")
	}
	pos := client.Position{Lat: lat, Lng: lng}
	if !pos.Valid() {
		return fmt.Errorf("coordinates out of range: %v", pos)
	}

	id, err := c.Append(ctx, client.MarkInput{
		Text:           text,
		Position:       pos,
		CreatedAtLocal: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "created %s\n", id)
	return nil
}

func runList(ctx context.Context, c *client.Client, limit int, out io.Writer) error {
	marks, err := c.QueryRecent(ctx, limit)
	if err != nil {
		return err
	}
	if len(marks) == 0 {
		fmt.Fprintln(out, "no marks")
		return nil
	}
	for _, m := range marks {
		pos := "-"
		if m.HasPosition() {
			pos = fmt.Sprintf("%.5f,%.5f", m.Position.Lat, m.Position.Lng)
		}
		fmt.Fprintf(out, "%s  %-20s  %s  %q\n",
			m.EffectiveTime().Format(time.RFC3339), m.AuthorLabel, pos, m.Text)
	}
	return nil
}

func runQuota(ctx context.Context, c *client.Client, out io.Writer) error {
	q, err := c.ServerQuota(ctx)
	if err != nil {
		return err
	}
	window := time.Duration(q.WindowSeconds) * time.Second
	fmt.Fprintf(out, "remaining %d of %d in a rolling %s window\n", q.Remaining, q.Max, window)
	if !q.Allowed {
		fmt.Fprintln(out, "quota exhausted; wait for older marks to age out")
	}
	return nil
}
