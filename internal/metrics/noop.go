package metrics

import "time"

// NoopSink is a no-op implementation of Sink.
// Used when metrics are disabled to avoid nil checks.
type NoopSink struct{}

// NewNoopSink returns a no-op metrics sink.
func NewNoopSink() *NoopSink {
	return &NoopSink{}
}

func (n *NoopSink) ReconstructionCompleted(duration time.Duration, jobs int, err error) {}
func (n *NoopSink) FetchError()                                                         {}
func (n *NoopSink) ExportCompleted(format string, rows int)                             {}
func (n *NoopSink) JobsByStatusUpdate(status string, count int)                         {}
func (n *NoopSink) DurationStatsUpdate(meanSeconds, maxSeconds float64)                 {}
func (n *NoopSink) AlertDelivered(ok bool)                                              {}
