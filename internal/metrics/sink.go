package metrics

import "time"

// Sink defines the interface for recording metrics.
// All methods are fire-and-forget: implementations MUST NOT block or propagate errors.
// If the metrics backend is unavailable, implementations log warnings and continue.
type Sink interface {
	// Reconstruction metrics
	ReconstructionCompleted(duration time.Duration, jobs int, err error)
	FetchError()

	// Export metrics
	ExportCompleted(format string, rows int)

	// Monitor metrics
	JobsByStatusUpdate(status string, count int)
	DurationStatsUpdate(meanSeconds, maxSeconds float64)
	AlertDelivered(ok bool)
}

// Export format labels for ExportCompleted.
const (
	FormatLabelCSV = "csv"
	FormatLabelRSV = "rsv"
)
