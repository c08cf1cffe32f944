package reconstruct

import (
	"time"

	"github.com/scriptureforge/draft-audit/internal/domain"
)

// DurationStats aggregates the defined durations of a job set. Jobs
// whose duration is undefined (still running, or incomplete) are
// excluded from both aggregates, never counted as zero.
type DurationStats struct {
	Mean *time.Duration
	Max  *time.Duration
}

// Stats computes mean and max duration over the given jobs. Both
// fields are nil when no job has a defined duration.
func Stats(jobs []domain.DraftJob) DurationStats {
	var (
		sum   time.Duration
		max   time.Duration
		count int
	)
	for i := range jobs {
		d := jobs[i].Duration
		if d == nil {
			continue
		}
		sum += *d
		if count == 0 || *d > max {
			max = *d
		}
		count++
	}
	if count == 0 {
		return DurationStats{}
	}
	mean := sum / time.Duration(count)
	return DurationStats{Mean: &mean, Max: &max}
}
