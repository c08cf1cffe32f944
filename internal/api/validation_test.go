package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/scriptureforge/draft-audit/internal/report"
)

func requestFor(t *testing.T, target string) *http.Request {
	t.Helper()
	return httptest.NewRequest(http.MethodGet, target, nil)
}

func TestParseWindow(t *testing.T) {
	r := requestFor(t, "/draft-jobs?start=2024-01-01&end=2024-01-31&projectId=p1")

	window, err := parseWindow(r)
	if err != nil {
		t.Fatalf("parseWindow: %v", err)
	}
	if want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC); !window.Start.Equal(want) {
		t.Errorf("Start = %v, want %v", window.Start, want)
	}
	if want := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC); !window.End.Equal(want) {
		t.Errorf("End = %v, want %v", window.End, want)
	}
	if window.ProjectID != "p1" {
		t.Errorf("ProjectID = %q, want p1", window.ProjectID)
	}
}

func TestParseWindow_Errors(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"missing start", "/draft-jobs?end=2024-01-31"},
		{"missing end", "/draft-jobs?start=2024-01-01"},
		{"bad start format", "/draft-jobs?start=Jan-1&end=2024-01-31"},
		{"bad end format", "/draft-jobs?start=2024-01-01&end=31/01/2024"},
		{"end before start", "/draft-jobs?start=2024-01-31&end=2024-01-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseWindow(requestFor(t, tt.target)); err == nil {
				t.Error("parseWindow accepted invalid query")
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		want    string
		wantErr bool
	}{
		{"default csv", "/x", report.FormatCSV, false},
		{"explicit csv", "/x?format=csv", report.FormatCSV, false},
		{"explicit rsv", "/x?format=rsv", report.FormatRSV, false},
		{"unknown", "/x?format=xlsx", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFormat(requestFor(t, tt.target))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("format = %q, want %q", got, tt.want)
			}
		})
	}
}
