package metrics

import (
	"errors"
	"testing"
	"time"
)

func TestNoopSink_AllMethods(t *testing.T) {
	// Verify that calling all methods on NoopSink does not panic.
	s := NewNoopSink()

	s.ReconstructionCompleted(100*time.Millisecond, 5, nil)
	s.ReconstructionCompleted(100*time.Millisecond, 0, errors.New("fetch failed"))
	s.FetchError()
	s.ExportCompleted(FormatLabelCSV, 10)
	s.ExportCompleted(FormatLabelRSV, 0)
	s.JobsByStatusUpdate("running", 2)
	s.DurationStatsUpdate(60, 120)
	s.AlertDelivered(true)
	s.AlertDelivered(false)
}

// Verify NoopSink implements Sink interface.
var _ Sink = (*NoopSink)(nil)
