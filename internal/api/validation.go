package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/scriptureforge/draft-audit/internal/report"
	"github.com/scriptureforge/draft-audit/internal/service"
)

const dateLayout = "2006-01-02"

// parseWindow extracts and validates the start/end/projectId query
// parameters. Both dates are required and inclusive; an export or
// listing without a date range is a caller error rejected up front.
func parseWindow(r *http.Request) (service.Window, error) {
	q := r.URL.Query()

	startStr := q.Get("start")
	if startStr == "" {
		return service.Window{}, fmt.Errorf("start is required (YYYY-MM-DD)")
	}
	start, err := time.Parse(dateLayout, startStr)
	if err != nil {
		return service.Window{}, fmt.Errorf("invalid start: %w", err)
	}

	endStr := q.Get("end")
	if endStr == "" {
		return service.Window{}, fmt.Errorf("end is required (YYYY-MM-DD)")
	}
	end, err := time.Parse(dateLayout, endStr)
	if err != nil {
		return service.Window{}, fmt.Errorf("invalid end: %w", err)
	}

	if end.Before(start) {
		return service.Window{}, fmt.Errorf("end precedes start")
	}

	return service.Window{
		Start:     start,
		End:       end,
		ProjectID: q.Get("projectId"),
	}, nil
}

// parseFormat validates the export format parameter, defaulting to CSV.
func parseFormat(r *http.Request) (string, error) {
	format := r.URL.Query().Get("format")
	switch format {
	case "":
		return report.FormatCSV, nil
	case report.FormatCSV, report.FormatRSV:
		return format, nil
	default:
		return "", fmt.Errorf("invalid format %q: must be csv or rsv", format)
	}
}
