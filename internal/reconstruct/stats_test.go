package reconstruct

import (
	"testing"
	"time"

	"github.com/scriptureforge/draft-audit/internal/domain"
)

func durPtr(d time.Duration) *time.Duration { return &d }

func TestStats_ExcludesUndefinedDurations(t *testing.T) {
	jobs := []domain.DraftJob{
		{Duration: durPtr(time.Hour)},
		{Duration: nil}, // running job, must not count as zero
		{Duration: durPtr(2 * time.Hour)},
	}

	stats := Stats(jobs)

	if stats.Mean == nil || *stats.Mean != 90*time.Minute {
		t.Errorf("Mean = %v, want 90m", stats.Mean)
	}
	if stats.Max == nil || *stats.Max != 2*time.Hour {
		t.Errorf("Max = %v, want 2h", stats.Max)
	}
}

func TestStats_AllUndefined(t *testing.T) {
	jobs := []domain.DraftJob{{}, {}}

	stats := Stats(jobs)

	if stats.Mean != nil || stats.Max != nil {
		t.Errorf("stats = {%v %v}, want both nil", stats.Mean, stats.Max)
	}
}

func TestStats_Empty(t *testing.T) {
	stats := Stats(nil)
	if stats.Mean != nil || stats.Max != nil {
		t.Errorf("stats = {%v %v}, want both nil", stats.Mean, stats.Max)
	}
}

func TestStats_SingleJob(t *testing.T) {
	jobs := []domain.DraftJob{{Duration: durPtr(time.Hour)}}

	stats := Stats(jobs)

	if stats.Mean == nil || *stats.Mean != time.Hour {
		t.Errorf("Mean = %v, want 1h", stats.Mean)
	}
	if stats.Max == nil || *stats.Max != time.Hour {
		t.Errorf("Max = %v, want 1h", stats.Max)
	}
}
