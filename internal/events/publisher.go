package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultStream is the Redis stream carrying per-site outcome events.
const DefaultStream = "pricescout:site_outcomes"

// SiteOutcome is the event payload published after each site reaches a
// terminal outcome.
type SiteOutcome struct {
	EventID   string    `json:"event_id"`
	RunID     string    `json:"run_id"`
	Site      string    `json:"site"`
	Outcome   string    `json:"outcome"`
	Records   int       `json:"records"`
	Timestamp time.Time `json:"timestamp"`
}

// StreamClient is the slice of the Redis API the publisher needs.
type StreamClient interface {
	XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd
}

// Publisher emits site outcomes to a Redis stream. Publishing is
// best-effort: a Redis outage must never fail a scrape run, so errors are
// logged and swallowed.
type Publisher struct {
	client StreamClient
	stream string
	maxLen int64
	logger *slog.Logger
}

// NewPublisher creates a stream publisher. An empty stream name selects
// DefaultStream.
func NewPublisher(client StreamClient, stream string, logger *slog.Logger) *Publisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &Publisher{
		client: client,
		stream: stream,
		maxLen: 10000,
		logger: logger.With("component", "event_publisher"),
	}
}

// PublishOutcome emits one site outcome event.
func (p *Publisher) PublishOutcome(ctx context.Context, runID, site, outcome string, records int) {
	event := SiteOutcome{
		EventID:   uuid.NewString(),
		RunID:     runID,
		Site:      site,
		Outcome:   outcome,
		Records:   records,
		Timestamp: time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to marshal outcome event", "error", err)
		return
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"event_type": "SITE_OUTCOME",
			"payload":    string(payload),
		},
	}
	if _, err := p.client.XAdd(ctx, args).Result(); err != nil {
		p.logger.Warn("failed to publish outcome event", "site", site, "error", err)
	}
}
