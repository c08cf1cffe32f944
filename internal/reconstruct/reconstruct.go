// Package reconstruct derives draft-generation job records from flat,
// unordered drafting telemetry events. A reconstruction pass is a pure
// function of its input snapshot: it never mutates the event list and
// re-derives every job from scratch on each call.
package reconstruct

import (
	"sort"
	"time"

	"github.com/scriptureforge/draft-audit/internal/domain"
)

// Reconstruct correlates events into draft jobs, one per detected
// build attempt. Each BuildProjectAsync event with a resolvable build
// id and at least one preceding start event for the same project
// anchors a job; anchors that fail either condition are silently
// excluded. Output is sorted by start time descending, unknown start
// times last.
func Reconstruct(events []domain.Event) []domain.DraftJob {
	var jobs []domain.DraftJob

	for i := range events {
		anchor := &events[i]
		if anchor.EventType != domain.EventTypeBuildProject || anchor.ProjectID == "" {
			continue
		}
		buildID := anchor.BuildID()
		if buildID == "" {
			continue
		}

		start := nearestPrecedingStart(events, anchor)
		if start == nil {
			// A build whose start fell outside the queried window is
			// not reported as a job.
			continue
		}

		job := domain.DraftJob{
			BuildID:    buildID,
			ProjectID:  anchor.ProjectID,
			StartEvent: start,
			BuildEvent: anchor,
		}

		completion := nearestFollowingCompletion(events, anchor, buildID)
		if completion != nil {
			if completion.EventType == domain.EventTypeCancelBuild {
				job.CancelEvent = completion
			} else {
				job.FinishEvent = completion
			}
		}

		job.AdditionalEvents = collectAdditional(events, &job)
		job.TrainingBooks, job.TranslationBooks = extractBooks(start)
		finalize(&job)

		jobs = append(jobs, job)
	}

	sort.SliceStable(jobs, func(a, b int) bool {
		ta, tb := jobs[a].StartTime, jobs[b].StartTime
		if ta.IsZero() {
			return false
		}
		if tb.IsZero() {
			return true
		}
		return ta.After(tb)
	})

	return jobs
}

// nearestPrecedingStart returns the latest StartPreTranslationBuildAsync
// event for the anchor's project that strictly precedes the anchor.
func nearestPrecedingStart(events []domain.Event, anchor *domain.Event) *domain.Event {
	var best *domain.Event
	for i := range events {
		e := &events[i]
		if e.EventType != domain.EventTypeStartBuild || e.ProjectID != anchor.ProjectID {
			continue
		}
		if !e.TimeStamp.Before(anchor.TimeStamp) {
			continue
		}
		if best == nil || e.TimeStamp.After(best.TimeStamp) {
			best = e
		}
	}
	return best
}

// nearestFollowingCompletion returns the earliest qualifying completion
// event strictly after the anchor. Status, webhook, and completed
// events must carry the anchor's build id; cancellation events carry no
// build id and qualify on project match alone.
func nearestFollowingCompletion(events []domain.Event, anchor *domain.Event, buildID string) *domain.Event {
	var best *domain.Event
	for i := range events {
		e := &events[i]
		if !e.TimeStamp.After(anchor.TimeStamp) || !e.MatchesProject(anchor.ProjectID) {
			continue
		}
		switch e.EventType {
		case domain.EventTypeBuildCompleted, domain.EventTypeRetrieveStatus, domain.EventTypeExecuteWebhook:
			if e.BuildID() != buildID {
				continue
			}
		case domain.EventTypeCancelBuild:
			// no build id check
		default:
			continue
		}
		if best == nil || e.TimeStamp.Before(best.TimeStamp) {
			best = e
		}
	}
	return best
}

// collectAdditional gathers every event sharing the job's build id that
// was not already classified into a role, sorted by time ascending.
// These are retained for audit display and never influence status.
func collectAdditional(events []domain.Event, job *domain.DraftJob) []*domain.Event {
	var extra []*domain.Event
	for i := range events {
		e := &events[i]
		if e == job.StartEvent || e == job.BuildEvent || e == job.FinishEvent || e == job.CancelEvent {
			continue
		}
		if e.BuildID() != job.BuildID {
			continue
		}
		extra = append(extra, e)
	}
	sort.SliceStable(extra, func(a, b int) bool {
		return extra[a].TimeStamp.Before(extra[b].TimeStamp)
	})
	return extra
}

// extractBooks reads the training and translation scripture ranges
// from the start event's build configuration. Missing or malformed
// payload data yields empty lists; this step must never abort job
// creation.
func extractBooks(start *domain.Event) (training, translation []domain.BookRange) {
	cfg := start.Payload.BuildConfig
	if cfg == nil {
		return nil, nil
	}
	training = accumulateRanges(cfg.TrainingScriptureRanges, start.ProjectID)
	translation = accumulateRanges(cfg.TranslationScriptureRanges, start.ProjectID)
	return training, translation
}

// accumulateRanges groups book codes by project, falling back to the
// event's own project when a range omits one.
func accumulateRanges(specs []domain.ScriptureRangeSpec, defaultProjectID string) []domain.BookRange {
	var ranges []domain.BookRange
	for _, spec := range specs {
		projectID := spec.ProjectID
		if projectID == "" {
			projectID = defaultProjectID
		}
		books := spec.Books()
		if len(books) == 0 {
			continue
		}
		merged := false
		for i := range ranges {
			if ranges[i].ProjectID == projectID {
				ranges[i].Books = append(ranges[i].Books, books...)
				merged = true
				break
			}
		}
		if !merged {
			ranges = append(ranges, domain.BookRange{ProjectID: projectID, Books: books})
		}
	}
	return ranges
}

// finalize derives the job's status, times, duration, and error
// message from its role events. First matching rule wins; the status
// is recomputed as a whole, never adjusted incrementally.
func finalize(job *domain.DraftJob) {
	if job.StartEvent != nil {
		job.StartTime = job.StartEvent.TimeStamp
	}

	setFinish := func(t time.Time) {
		ft := t
		job.FinishTime = &ft
		if !job.StartTime.IsZero() {
			d := ft.Sub(job.StartTime)
			job.Duration = &d
		}
	}

	switch {
	case job.StartEvent != nil && job.StartEvent.Exception != nil:
		job.Status = domain.JobStatusFailed
		job.ErrorMessage = job.StartEvent.Exception
		setFinish(job.StartTime)

	case job.CancelEvent != nil:
		job.Status = domain.JobStatusCancelled
		setFinish(job.CancelEvent.TimeStamp)

	case job.BuildEvent != nil && job.BuildEvent.Exception != nil:
		job.Status = domain.JobStatusFailed
		job.ErrorMessage = job.BuildEvent.Exception
		setFinish(job.BuildEvent.TimeStamp)

	case job.FinishEvent != nil:
		setFinish(job.FinishEvent.TimeStamp)
		switch {
		case job.FinishEvent.Exception != nil:
			job.Status = domain.JobStatusFailed
			job.ErrorMessage = job.FinishEvent.Exception
		case job.FinishEvent.Payload.BuildState != nil && *job.FinishEvent.Payload.BuildState == domain.BuildStateFaulted:
			job.Status = domain.JobStatusFailed
			msg := "build state: " + domain.BuildStateFaulted
			job.ErrorMessage = &msg
		default:
			job.Status = domain.JobStatusSuccess
		}

	case job.StartEvent == nil || job.BuildEvent == nil:
		// Guarded: anchor resolution should make this unreachable.
		job.Status = domain.JobStatusIncomplete

	default:
		job.Status = domain.JobStatusRunning
	}
}
