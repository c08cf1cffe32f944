// Package testutil provides shared test helpers for draftaudit.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/scriptureforge/draft-audit/internal/domain"
)

// TestContext returns a context with a 5-second timeout.
// The context is cancelled when the test completes.
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// MustParseUUID parses a UUID string and panics on error.
// Only for use in tests.
func MustParseUUID(s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		panic("testutil.MustParseUUID: " + err.Error())
	}
	return id
}

// T0 is the base timestamp for event fixtures.
var T0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// Event builds a telemetry event fixture at T0 plus the given offset.
func Event(typ domain.EventType, offset time.Duration, projectID string) domain.Event {
	return domain.Event{
		ID:        uuid.New(),
		EventType: typ,
		TimeStamp: T0.Add(offset),
		ProjectID: projectID,
	}
}

// WithResult sets the event's result value.
func WithResult(e domain.Event, result string) domain.Event {
	e.Result = &result
	return e
}

// WithException sets the event's exception.
func WithException(e domain.Event, msg string) domain.Event {
	e.Exception = &msg
	return e
}

// WithPayload sets the event's payload.
func WithPayload(e domain.Event, p domain.Payload) domain.Event {
	e.Payload = p
	return e
}
