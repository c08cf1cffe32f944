package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies one of the drafting telemetry event kinds.
// The set is closed; events of any other type are ignored by the
// reconstructor.
type EventType string

const (
	EventTypeStartBuild     EventType = "StartPreTranslationBuildAsync"
	EventTypeBuildProject   EventType = "BuildProjectAsync"
	EventTypeRetrieveStatus EventType = "RetrievePreTranslationStatusAsync"
	EventTypeExecuteWebhook EventType = "ExecuteWebhookAsync"
	EventTypeBuildCompleted EventType = "BuildCompletedAsync"
	EventTypeCancelBuild    EventType = "CancelPreTranslationBuildAsync"
)

// DraftEventTypes lists every event type the reconstructor consumes,
// in a stable order suitable for store queries.
func DraftEventTypes() []EventType {
	return []EventType{
		EventTypeStartBuild,
		EventTypeBuildProject,
		EventTypeRetrieveStatus,
		EventTypeExecuteWebhook,
		EventTypeBuildCompleted,
		EventTypeCancelBuild,
	}
}

// Event is one telemetry record as stored by the platform.
// Events are read-only inputs; the reconstructor never mutates them.
type Event struct {
	ID        uuid.UUID
	EventType EventType
	TimeStamp time.Time

	ProjectID string     // empty when the event was not project-scoped
	UserID    *uuid.UUID // initiating user, when known

	// Result frequently carries the external build identifier.
	Result *string
	// Exception, when present, signals that the operation faulted.
	Exception *string

	Payload Payload
}

// BuildID resolves the external build identifier for this event,
// checking Result first and falling back to the payload. Both lookup
// paths are required: some event sources only populate one of the two.
// Returns "" when neither yields a value.
func (e *Event) BuildID() string {
	if e.Result != nil && *e.Result != "" {
		return *e.Result
	}
	if e.Payload.BuildID != nil {
		return *e.Payload.BuildID
	}
	return ""
}

// MatchesProject reports whether the event belongs to the given
// project, either by its own ProjectID or by the payload's
// sfProjectId. Completion events recorded by the webhook path carry
// the project only in the payload.
func (e *Event) MatchesProject(projectID string) bool {
	if projectID == "" {
		return false
	}
	if e.ProjectID == projectID {
		return true
	}
	return e.Payload.SFProjectID != nil && *e.Payload.SFProjectID == projectID
}
