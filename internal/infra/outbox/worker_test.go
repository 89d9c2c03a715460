package outbox

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopicFor(t *testing.T) {
	w := &Worker{}
	assert.Equal(t, "booking.events.v1", w.topicFor("booking.confirmed"))
	assert.Equal(t, "payout.events.v1", w.topicFor("payout.initiated"))
	assert.Equal(t, "heartbeat.events.v1", w.topicFor("heartbeat"))

	prefixed := &Worker{TopicPrefix: "staging."}
	assert.Equal(t, "staging.booking.events.v1", prefixed.topicFor("booking.cancelled"))
}

func TestFormatPayloadEnvelope(t *testing.T) {
	w := &Worker{Source: "app://fleetride-test"}
	occurred := time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)
	doc := &EventDocument{
		ID:         "evt-1",
		Name:       "booking.confirmed",
		Payload:    []byte(`{"booking_id":"bk-1"}`),
		OccurredAt: occurred,
		Headers:    map[string]string{"traceparent": "00-abc-def-01"},
	}

	payload, headers, err := w.formatPayload(doc)
	require.NoError(t, err)

	var evt map[string]any
	require.NoError(t, json.Unmarshal(payload, &evt))
	assert.Equal(t, "1.0", evt["specversion"])
	assert.Equal(t, "booking.confirmed.v1", evt["type"])
	assert.Equal(t, "app://fleetride-test", evt["source"])
	assert.Equal(t, "00-abc-def-01", evt["traceparent"])
	assert.NotEmpty(t, evt["id"])
	data, ok := evt["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "bk-1", data["booking_id"])

	assert.Equal(t, "application/cloudevents+json", headers["content-type"])
	assert.Equal(t, "00-abc-def-01", headers["traceparent"])
}

func TestFormatPayloadRejectsNonObjectPayload(t *testing.T) {
	w := &Worker{}
	_, _, err := w.formatPayload(&EventDocument{ID: "evt-1", Name: "booking.confirmed", Payload: []byte("not json")})
	assert.Error(t, err)
}

func TestNextRetryBackoff(t *testing.T) {
	w := &Worker{Backoff: []time.Duration{time.Second, time.Minute}}

	first := w.nextRetry(0)
	assert.WithinDuration(t, time.Now().Add(time.Second), first, 2*time.Second)

	// Attempts beyond the schedule clamp to the last step.
	capped := w.nextRetry(9)
	assert.WithinDuration(t, time.Now().Add(time.Minute), capped, 2*time.Second)
}
