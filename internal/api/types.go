package api

import (
	"github.com/scriptureforge/draft-audit/internal/domain"
	"github.com/scriptureforge/draft-audit/internal/report"
	"github.com/scriptureforge/draft-audit/internal/service"
)

type DraftJobResponse struct {
	ServalBuildID    string   `json:"serval_build_id"`
	SFProjectID      string   `json:"sf_project_id"`
	ProjectName      string   `json:"project_name"`
	Status           string   `json:"status"`
	StartTime        string   `json:"start_time"`
	EndTime          *string  `json:"end_time,omitempty"`
	DurationMinutes  *string  `json:"duration_minutes,omitempty"`
	DurationHours    *string  `json:"duration_hours,omitempty"`
	SFUserID         *string  `json:"sf_user_id,omitempty"`
	ErrorMessage     *string  `json:"error_message,omitempty"`
	TrainingBooks    string   `json:"training_books"`
	TranslationBooks string   `json:"translation_books"`
	EventCount       int      `json:"event_count"`
}

type ListDraftJobsResponse struct {
	Jobs []DraftJobResponse `json:"jobs"`

	MeanDurationMinutes *float64 `json:"mean_duration_minutes,omitempty"`
	MaxDurationMinutes  *float64 `json:"max_duration_minutes,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func buildListResponse(result service.Result) ListDraftJobsResponse {
	resp := ListDraftJobsResponse{Jobs: make([]DraftJobResponse, len(result.Rows))}
	for i := range result.Rows {
		resp.Jobs[i] = buildJobResponse(&result.Jobs[i], result.Rows[i])
	}
	if result.Stats.Mean != nil {
		m := result.Stats.Mean.Minutes()
		resp.MeanDurationMinutes = &m
	}
	if result.Stats.Max != nil {
		m := result.Stats.Max.Minutes()
		resp.MaxDurationMinutes = &m
	}
	return resp
}

func buildJobResponse(job *domain.DraftJob, row report.Row) DraftJobResponse {
	resp := DraftJobResponse{
		ServalBuildID:    row.ServalBuildID,
		SFProjectID:      row.SFProjectID,
		ProjectName:      row.ProjectName,
		Status:           row.Status,
		StartTime:        row.StartTime,
		EndTime:          row.EndTime,
		DurationMinutes:  row.DurationMinutes,
		SFUserID:         row.SFUserID,
		ErrorMessage:     job.ErrorMessage,
		TrainingBooks:    row.TrainingBooks,
		TranslationBooks: row.TranslationBooks,
		EventCount:       countEvents(job),
	}
	if job.Duration != nil {
		h := report.FormatDurationInHours(*job.Duration)
		resp.DurationHours = &h
	}
	return resp
}

func countEvents(job *domain.DraftJob) int {
	n := len(job.AdditionalEvents)
	for _, e := range []*domain.Event{job.StartEvent, job.BuildEvent, job.FinishEvent, job.CancelEvent} {
		if e != nil {
			n++
		}
	}
	return n
}
