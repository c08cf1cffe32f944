// Package service runs reconstruction passes: it fetches the event
// window, derives jobs, resolves project names, and projects rows.
// Each pass is stateless and a pure function of its input snapshot.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/scriptureforge/draft-audit/internal/domain"
	"github.com/scriptureforge/draft-audit/internal/metrics"
	"github.com/scriptureforge/draft-audit/internal/reconstruct"
	"github.com/scriptureforge/draft-audit/internal/report"
)

// EventSource supplies raw telemetry events for a set of event types,
// an optional project filter, and an inclusive date range.
type EventSource interface {
	QueryEvents(ctx context.Context, types []domain.EventType, projectID string, start, end time.Time, limit int) ([]domain.Event, error)
}

// NameResolver maps project ids to display names. Deleted projects
// are omitted from the result.
type NameResolver interface {
	ResolveNames(ctx context.Context, projectIDs []string) (map[string]string, error)
}

// Window bounds one reconstruction pass. End is inclusive and
// normalized to end-of-day before querying.
type Window struct {
	Start     time.Time
	End       time.Time
	ProjectID string // empty selects all projects
}

// Normalized returns the window with End advanced to the last instant
// of its day.
func (w Window) Normalized() Window {
	y, m, d := w.End.UTC().Date()
	w.End = time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
	return w
}

// Result is the output of one pass.
type Result struct {
	Jobs  []domain.DraftJob
	Rows  []report.Row
	Stats reconstruct.DurationStats
}

type Service struct {
	events     EventSource
	names      NameResolver
	fetchLimit int
	sink       metrics.Sink
}

func New(events EventSource, names NameResolver, fetchLimit int, sink metrics.Sink) *Service {
	if sink == nil {
		sink = metrics.NewNoopSink()
	}
	return &Service{events: events, names: names, fetchLimit: fetchLimit, sink: sink}
}

// Run executes one reconstruction pass over the window. The only
// error it returns is an upstream fetch or name-resolution failure;
// callers must surface that as "data unavailable" rather than an
// empty table. Malformed individual events never fail a pass.
func (s *Service) Run(ctx context.Context, window Window) (Result, error) {
	start := time.Now()

	result, err := s.run(ctx, window.Normalized())
	s.sink.ReconstructionCompleted(time.Since(start), len(result.Jobs), err)
	return result, err
}

func (s *Service) run(ctx context.Context, window Window) (Result, error) {
	events, err := s.events.QueryEvents(ctx,
		domain.DraftEventTypes(), window.ProjectID, window.Start, window.End, s.fetchLimit)
	if err != nil {
		s.sink.FetchError()
		return Result{}, fmt.Errorf("fetch events: %w", err)
	}

	jobs := reconstruct.Reconstruct(events)

	projectIDs := make([]string, 0, len(jobs))
	for i := range jobs {
		projectIDs = append(projectIDs, jobs[i].ProjectID)
	}
	names, err := s.names.ResolveNames(ctx, projectIDs)
	if err != nil {
		return Result{}, fmt.Errorf("resolve project names: %w", err)
	}

	return Result{
		Jobs:  jobs,
		Rows:  report.BuildRows(jobs, names),
		Stats: reconstruct.Stats(jobs),
	}, nil
}
