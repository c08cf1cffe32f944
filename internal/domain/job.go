package domain

import (
	"strings"
	"time"
)

type JobStatus string

const (
	JobStatusRunning    JobStatus = "running"
	JobStatusSuccess    JobStatus = "success"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
	JobStatusIncomplete JobStatus = "incomplete"
)

// Label returns the capitalized display form of the status.
func (s JobStatus) Label() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[0])) + string(s[1:])
}

// BookRange is a per-project list of scripture book codes used for
// training or translation.
type BookRange struct {
	ProjectID string
	Books     []string
}

// DraftJob is one reconstructed draft-generation build attempt.
// Event fields reference the original event list; they are never
// copies. A job is immutable once finalized within a reconstruction
// pass.
type DraftJob struct {
	BuildID   string
	ProjectID string

	StartEvent *Event
	BuildEvent *Event
	// FinishEvent and CancelEvent are mutually exclusive: at most one
	// of the two is ever set.
	FinishEvent *Event
	CancelEvent *Event

	// AdditionalEvents share the job's buildId but play no role in
	// status derivation. Sorted by timestamp ascending.
	AdditionalEvents []*Event

	Status JobStatus

	StartTime  time.Time
	FinishTime *time.Time
	// Duration is FinishTime - StartTime; nil while the job has not
	// reached a terminal event.
	Duration *time.Duration

	ErrorMessage *string

	TrainingBooks    []BookRange
	TranslationBooks []BookRange
}

// UserID returns the id of the user who initiated the build, taken
// from the start event when present.
func (j *DraftJob) UserID() string {
	if j.StartEvent != nil && j.StartEvent.UserID != nil {
		return j.StartEvent.UserID.String()
	}
	return ""
}
