// Package report projects reconstructed draft jobs into flat rows and
// serializes them for operator tooling.
package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/scriptureforge/draft-audit/internal/domain"
	"github.com/scriptureforge/draft-audit/internal/reconstruct"
)

// Header is the column order of the flattened export shape. Exports
// and the RSV/CSV writers all share it.
var Header = []string{
	"servalBuildId",
	"startTime",
	"endTime",
	"durationMinutes",
	"status",
	"sfProjectId",
	"projectName",
	"sfUserId",
	"trainingBooks",
	"translationBooks",
}

// Row is the flattened, presentation-facing projection of one draft
// job. Optional values are nil, not empty strings, so the RSV writer
// can distinguish null from empty.
type Row struct {
	ServalBuildID    string
	StartTime        string // RFC 3339 UTC
	EndTime          *string
	DurationMinutes  *string // rounded integer minutes
	Status           string  // capitalized label
	SFProjectID      string
	ProjectName      string
	SFUserID         *string
	TrainingBooks    string
	TranslationBooks string
}

// Values returns the row's cells in Header order.
func (r Row) Values() []*string {
	return []*string{
		&r.ServalBuildID,
		&r.StartTime,
		r.EndTime,
		r.DurationMinutes,
		&r.Status,
		&r.SFProjectID,
		&r.ProjectName,
		r.SFUserID,
		&r.TrainingBooks,
		&r.TranslationBooks,
	}
}

// BuildRows maps jobs 1:1 to display rows, in the jobs' order.
// projectNames carries resolved display names; projects missing from
// it render as "{projectId} [deleted]".
func BuildRows(jobs []domain.DraftJob, projectNames map[string]string) []Row {
	rows := make([]Row, 0, len(jobs))
	for i := range jobs {
		rows = append(rows, buildRow(&jobs[i], projectNames))
	}
	return rows
}

func buildRow(job *domain.DraftJob, projectNames map[string]string) Row {
	row := Row{
		ServalBuildID:    job.BuildID,
		StartTime:        formatTime(job.StartTime),
		Status:           job.Status.Label(),
		SFProjectID:      job.ProjectID,
		ProjectName:      ProjectDisplayName(job.ProjectID, projectNames),
		TrainingBooks:    FormatBookRanges(job.TrainingBooks),
		TranslationBooks: FormatBookRanges(job.TranslationBooks),
	}
	if job.FinishTime != nil {
		end := formatTime(*job.FinishTime)
		row.EndTime = &end
	}
	if job.Duration != nil {
		m := formatMinutes(*job.Duration)
		row.DurationMinutes = &m
	}
	if userID := job.UserID(); userID != "" {
		row.SFUserID = &userID
	}
	return row
}

// ProjectDisplayName resolves a project id against the known names,
// falling back to the deleted-project form.
func ProjectDisplayName(projectID string, projectNames map[string]string) string {
	if name, ok := projectNames[projectID]; ok && name != "" {
		return name
	}
	return projectID + " [deleted]"
}

// FormatBookRanges renders per-project book lists in the export form
// "projId: BOOK1, BOOK2; projId2: BOOK3".
func FormatBookRanges(ranges []domain.BookRange) string {
	parts := make([]string, 0, len(ranges))
	for _, r := range ranges {
		parts = append(parts, r.ProjectID+": "+strings.Join(r.Books, ", "))
	}
	return strings.Join(parts, "; ")
}

// FormatDurationInHours renders a duration as fractional hours, e.g.
// "1.0 h" for a one-hour build.
func FormatDurationInHours(d time.Duration) string {
	return fmt.Sprintf("%.1f h", d.Hours())
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatMinutes(d time.Duration) string {
	return strconv.Itoa(int(math.Round(d.Minutes())))
}

// SummaryRows returns the export trailer: one blank row, then the mean
// and max duration rows with the minute value in the startTime column.
// Rows are emitted at full column width.
func SummaryRows(stats reconstruct.DurationStats) [][]*string {
	width := len(Header)
	blank := make([]*string, width)
	for i := range blank {
		empty := ""
		blank[i] = &empty
	}

	summary := func(label string, d *time.Duration) []*string {
		row := make([]*string, width)
		for i := range row {
			empty := ""
			row[i] = &empty
		}
		l := label
		row[0] = &l
		if d != nil {
			v := formatMinutes(*d)
			row[1] = &v
		}
		return row
	}

	return [][]*string{
		blank,
		summary("Mean duration minutes", stats.Mean),
		summary("Max duration minutes", stats.Max),
	}
}

// headerValues returns Header as nullable cells for the writers.
func headerValues() []*string {
	cells := make([]*string, len(Header))
	for i := range Header {
		h := Header[i]
		cells[i] = &h
	}
	return cells
}
