// Package monitor periodically re-runs reconstruction over a trailing
// window, refreshes the status gauges, and alerts on newly failed
// jobs.
package monitor

import (
	"context"
	"log"
	"time"

	"github.com/scriptureforge/draft-audit/internal/cron"
	"github.com/scriptureforge/draft-audit/internal/domain"
	"github.com/scriptureforge/draft-audit/internal/metrics"
	"github.com/scriptureforge/draft-audit/internal/notify"
	"github.com/scriptureforge/draft-audit/internal/service"
)

// Runner executes one reconstruction pass.
type Runner interface {
	Run(ctx context.Context, window service.Window) (service.Result, error)
}

// AlertSender delivers failure alerts. A nil sender disables alerting.
type AlertSender interface {
	Send(ctx context.Context, alert notify.Alert) error
}

type Config struct {
	Schedule cron.Schedule
	Window   time.Duration // trailing window covered by each pass
}

type Monitor struct {
	config Config
	runner Runner
	sender AlertSender
	sink   metrics.Sink
	clock  func() time.Time

	// alerted tracks build ids already reported as failed, so each
	// failure alerts exactly once per process lifetime.
	alerted map[string]bool
}

func New(config Config, runner Runner, sender AlertSender, sink metrics.Sink) *Monitor {
	if sink == nil {
		sink = metrics.NewNoopSink()
	}
	return &Monitor{
		config:  config,
		runner:  runner,
		sender:  sender,
		sink:    sink,
		clock:   time.Now,
		alerted: make(map[string]bool),
	}
}

// Run executes passes on the configured schedule until the context is
// cancelled. Passes run sequentially; a slow pass delays the next
// tick rather than overlapping it.
func (m *Monitor) Run(ctx context.Context) error {
	log.Printf("monitor: started, window=%s", m.config.Window)

	for {
		next := m.config.Schedule.Next(m.clock().UTC())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			log.Println("monitor: stopped")
			return ctx.Err()
		case <-timer.C:
			if err := m.RunPass(ctx); err != nil {
				log.Printf("monitor: pass error: %v", err)
			}
		}
	}
}

// RunPass executes a single monitor pass over the trailing window.
func (m *Monitor) RunPass(ctx context.Context) error {
	now := m.clock().UTC()
	window := service.Window{Start: now.Add(-m.config.Window), End: now}

	result, err := m.runner.Run(ctx, window)
	if err != nil {
		return err
	}

	m.updateGauges(result)
	m.alertNewFailures(ctx, window, result)
	return nil
}

func (m *Monitor) updateGauges(result service.Result) {
	counts := map[domain.JobStatus]int{
		domain.JobStatusRunning:    0,
		domain.JobStatusSuccess:    0,
		domain.JobStatusFailed:     0,
		domain.JobStatusCancelled:  0,
		domain.JobStatusIncomplete: 0,
	}
	for i := range result.Jobs {
		counts[result.Jobs[i].Status]++
	}
	for status, count := range counts {
		m.sink.JobsByStatusUpdate(string(status), count)
	}

	if result.Stats.Mean != nil && result.Stats.Max != nil {
		m.sink.DurationStatsUpdate(result.Stats.Mean.Seconds(), result.Stats.Max.Seconds())
	}
}

func (m *Monitor) alertNewFailures(ctx context.Context, window service.Window, result service.Result) {
	if m.sender == nil {
		return
	}

	var failed []notify.FailedJob
	for i := range result.Jobs {
		job := &result.Jobs[i]
		if job.Status != domain.JobStatusFailed || m.alerted[job.BuildID] {
			continue
		}
		m.alerted[job.BuildID] = true

		fj := notify.FailedJob{
			ServalBuildID: job.BuildID,
			SFProjectID:   job.ProjectID,
			ProjectName:   result.Rows[i].ProjectName,
			StartTime:     result.Rows[i].StartTime,
		}
		if job.ErrorMessage != nil {
			fj.ErrorMessage = *job.ErrorMessage
		}
		failed = append(failed, fj)
	}
	if len(failed) == 0 {
		return
	}

	alert := notify.Alert{
		GeneratedAt: m.clock().UTC(),
		WindowStart: window.Start,
		WindowEnd:   window.End,
		FailedJobs:  failed,
	}
	if err := m.sender.Send(ctx, alert); err != nil {
		log.Printf("monitor: alert delivery: %v", err)
		m.sink.AlertDelivered(false)
		return
	}
	m.sink.AlertDelivered(true)
}
