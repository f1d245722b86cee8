package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStreamClient struct {
	calls []*redis.XAddArgs
	err   error
}

func (f *fakeStreamClient) XAdd(_ context.Context, args *redis.XAddArgs) *redis.StringCmd {
	f.calls = append(f.calls, args)
	cmd := redis.NewStringCmd(context.Background())
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal("1-0")
	}
	return cmd
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublishOutcome(t *testing.T) {
	client := &fakeStreamClient{}
	p := NewPublisher(client, "", discardLogger())

	p.PublishOutcome(context.Background(), "run-1", "amazon", "success", 7)

	require.Len(t, client.calls, 1)
	args := client.calls[0]
	assert.Equal(t, DefaultStream, args.Stream)
	assert.Equal(t, "SITE_OUTCOME", args.Values.(map[string]interface{})["event_type"])

	var event SiteOutcome
	payload := args.Values.(map[string]interface{})["payload"].(string)
	require.NoError(t, json.Unmarshal([]byte(payload), &event))
	assert.Equal(t, "run-1", event.RunID)
	assert.Equal(t, "amazon", event.Site)
	assert.Equal(t, "success", event.Outcome)
	assert.Equal(t, 7, event.Records)
	assert.NotEmpty(t, event.EventID)
	assert.False(t, event.Timestamp.IsZero())
}

func TestPublishOutcomeSwallowsRedisErrors(t *testing.T) {
	client := &fakeStreamClient{err: errors.New("connection refused")}
	p := NewPublisher(client, "custom:stream", discardLogger())

	// Must not panic or propagate; publishing is best-effort.
	p.PublishOutcome(context.Background(), "run-1", "amazon", "blocked", 0)

	require.Len(t, client.calls, 1)
	assert.Equal(t, "custom:stream", client.calls[0].Stream)
}
