package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/scriptureforge/draft-audit/internal/domain"
	"github.com/scriptureforge/draft-audit/internal/reconstruct"
)

// sixtyMinuteJob is the Scenario E fixture: one successful job lasting
// exactly one hour.
func sixtyMinuteJob() []domain.DraftJob {
	return []domain.DraftJob{{
		BuildID:    "b1",
		ProjectID:  "p1",
		Status:     domain.JobStatusSuccess,
		StartTime:  rowT0,
		FinishTime: timePtr(rowT0.Add(time.Hour)),
		Duration:   durPtr(time.Hour),
	}}
}

func TestWriteCSV_SingleJobWithSummary(t *testing.T) {
	jobs := sixtyMinuteJob()
	rows := BuildRows(jobs, map[string]string{"p1": "My Project"})
	stats := reconstruct.Stats(jobs)

	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows, stats); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}

	// header + 1 data row + blank + mean + max
	if len(records) != 5 {
		t.Fatalf("record count = %d, want 5", len(records))
	}
	if records[0][0] != "servalBuildId" {
		t.Errorf("header[0] = %q, want servalBuildId", records[0][0])
	}
	data := records[1]
	if data[0] != "b1" || data[3] != "60" || data[4] != "Success" {
		t.Errorf("data row = %v", data)
	}
	for i, cell := range records[2] {
		if cell != "" {
			t.Errorf("blank row cell %d = %q, want empty", i, cell)
		}
	}
	if records[3][0] != "Mean duration minutes" || records[3][1] != "60" {
		t.Errorf("mean row = %v", records[3])
	}
	if records[4][0] != "Max duration minutes" || records[4][1] != "60" {
		t.Errorf("max row = %v", records[4])
	}
}

func TestWriteRSV_Framing(t *testing.T) {
	userID := "u1"
	rows := []Row{{
		ServalBuildID: "b1",
		StartTime:     "2024-03-01T12:00:00Z",
		Status:        "Running",
		SFProjectID:   "p1",
		ProjectName:   "My Project",
		SFUserID:      &userID,
		// EndTime and DurationMinutes nil
	}}

	var buf bytes.Buffer
	if err := WriteRSV(&buf, rows, reconstruct.DurationStats{}); err != nil {
		t.Fatalf("WriteRSV: %v", err)
	}
	out := buf.Bytes()

	// header + 1 data row + blank + mean + max, each closed by 0xFD
	if got := bytes.Count(out, []byte{rsvRowTerminator}); got != 5 {
		t.Errorf("row terminator count = %d, want 5", got)
	}

	rowsOut := bytes.Split(out, []byte{rsvRowTerminator})
	data := rowsOut[1]
	values := bytes.Split(data, []byte{rsvValueTerminator})
	// 10 values plus the trailing empty split remainder
	if len(values) != len(Header)+1 {
		t.Fatalf("value count = %d, want %d", len(values)-1, len(Header))
	}
	if string(values[0]) != "b1" {
		t.Errorf("value[0] = %q, want b1", values[0])
	}
	// nil EndTime encodes as the null byte
	if !bytes.Equal(values[2], []byte{rsvNullValue}) {
		t.Errorf("nil cell = %x, want %x", values[2], rsvNullValue)
	}
}

func TestWriteRSV_RejectsInvalidUTF8(t *testing.T) {
	rows := []Row{{ServalBuildID: "b1", ProjectName: "bad\xed\xa0\x80name"}}

	var buf bytes.Buffer
	err := WriteRSV(&buf, rows, reconstruct.DurationStats{})
	if err == nil {
		t.Fatal("WriteRSV accepted a value with surrogate bytes")
	}
	if !strings.Contains(err.Error(), "rsv:") {
		t.Errorf("error = %v, want rsv-prefixed", err)
	}
}

func TestExportFilename(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	if got := ExportFilename(start, end, FormatCSV); got != "draft_jobs_2024-01-01_2024-01-31.csv" {
		t.Errorf("ExportFilename = %q", got)
	}
	if got := ExportFilename(start, end, FormatRSV); got != "draft_jobs_2024-01-01_2024-01-31.rsv" {
		t.Errorf("ExportFilename = %q", got)
	}
}
