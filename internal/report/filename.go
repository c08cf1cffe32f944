package report

import (
	"fmt"
	"time"
)

// Export formats.
const (
	FormatCSV = "csv"
	FormatRSV = "rsv"
)

// ExportFilename returns the conventional export file name for a date
// range, e.g. "draft_jobs_2024-01-01_2024-01-31.csv".
func ExportFilename(start, end time.Time, format string) string {
	return fmt.Sprintf("draft_jobs_%s_%s.%s",
		start.Format("2006-01-02"), end.Format("2006-01-02"), format)
}
