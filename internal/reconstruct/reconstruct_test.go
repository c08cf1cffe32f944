package reconstruct

import (
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/scriptureforge/draft-audit/internal/domain"
	"github.com/scriptureforge/draft-audit/internal/testutil"
)

func strPtr(s string) *string { return &s }

// successfulRun is the minimal event set producing one successful job:
// start at t=0, build anchor at t=1m, status retrieval at t=2m.
func successfulRun() []domain.Event {
	return []domain.Event{
		testutil.Event(domain.EventTypeStartBuild, 0, "p1"),
		testutil.WithResult(testutil.Event(domain.EventTypeBuildProject, time.Minute, "p1"), "b1"),
		testutil.WithResult(testutil.Event(domain.EventTypeRetrieveStatus, 2*time.Minute, "p1"), "b1"),
	}
}

func TestReconstruct_SuccessfulBuild(t *testing.T) {
	jobs := Reconstruct(successfulRun())

	if len(jobs) != 1 {
		t.Fatalf("job count = %d, want 1", len(jobs))
	}
	job := jobs[0]
	if job.BuildID != "b1" {
		t.Errorf("BuildID = %q, want b1", job.BuildID)
	}
	if job.Status != domain.JobStatusSuccess {
		t.Errorf("Status = %q, want success", job.Status)
	}
	if job.FinishEvent == nil || job.FinishEvent.EventType != domain.EventTypeRetrieveStatus {
		t.Error("FinishEvent not set to the status retrieval event")
	}
	if job.Duration == nil || *job.Duration != 2*time.Minute {
		t.Errorf("Duration = %v, want 2m", job.Duration)
	}
}

func TestReconstruct_FaultedBuildState(t *testing.T) {
	events := successfulRun()
	events[2].Payload.BuildState = strPtr("Faulted")

	jobs := Reconstruct(events)

	if len(jobs) != 1 {
		t.Fatalf("job count = %d, want 1", len(jobs))
	}
	if jobs[0].Status != domain.JobStatusFailed {
		t.Errorf("Status = %q, want failed despite absent exception", jobs[0].Status)
	}
	if jobs[0].ErrorMessage == nil {
		t.Error("ErrorMessage not populated for faulted build state")
	}
}

func TestReconstruct_RunningBuild(t *testing.T) {
	events := successfulRun()[:2]

	jobs := Reconstruct(events)

	if len(jobs) != 1 {
		t.Fatalf("job count = %d, want 1", len(jobs))
	}
	job := jobs[0]
	if job.Status != domain.JobStatusRunning {
		t.Errorf("Status = %q, want running", job.Status)
	}
	if job.FinishTime != nil || job.Duration != nil {
		t.Errorf("FinishTime = %v, Duration = %v, want both nil", job.FinishTime, job.Duration)
	}
}

func TestReconstruct_CancelledBuild(t *testing.T) {
	events := append(successfulRun()[:2],
		testutil.Event(domain.EventTypeCancelBuild, 3*time.Minute, "p1"))

	jobs := Reconstruct(events)

	if len(jobs) != 1 {
		t.Fatalf("job count = %d, want 1", len(jobs))
	}
	job := jobs[0]
	if job.Status != domain.JobStatusCancelled {
		t.Errorf("Status = %q, want cancelled", job.Status)
	}
	if job.CancelEvent == nil {
		t.Error("CancelEvent not set")
	}
	if job.FinishEvent != nil {
		t.Error("FinishEvent set alongside CancelEvent")
	}
}

func TestReconstruct_AnchorRequiresStart(t *testing.T) {
	events := []domain.Event{
		testutil.WithResult(testutil.Event(domain.EventTypeBuildProject, time.Minute, "p1"), "b1"),
		testutil.WithResult(testutil.Event(domain.EventTypeRetrieveStatus, 2*time.Minute, "p1"), "b1"),
		// start event for a different project does not qualify
		testutil.Event(domain.EventTypeStartBuild, 0, "p2"),
	}

	if jobs := Reconstruct(events); len(jobs) != 0 {
		t.Errorf("job count = %d, want 0 for anchor with no preceding start", len(jobs))
	}
}

func TestReconstruct_AnchorRequiresBuildID(t *testing.T) {
	events := []domain.Event{
		testutil.Event(domain.EventTypeStartBuild, 0, "p1"),
		testutil.Event(domain.EventTypeBuildProject, time.Minute, "p1"), // no result, no payload buildId
	}

	if jobs := Reconstruct(events); len(jobs) != 0 {
		t.Errorf("job count = %d, want 0 for anchor without build id", len(jobs))
	}
}

func TestReconstruct_NearestPrecedingStart(t *testing.T) {
	events := []domain.Event{
		testutil.Event(domain.EventTypeStartBuild, 0, "p1"),
		testutil.Event(domain.EventTypeStartBuild, time.Minute, "p1"),
		testutil.WithResult(testutil.Event(domain.EventTypeBuildProject, 2*time.Minute, "p1"), "b1"),
	}

	jobs := Reconstruct(events)

	if len(jobs) != 1 {
		t.Fatalf("job count = %d, want 1", len(jobs))
	}
	want := testutil.T0.Add(time.Minute)
	if !jobs[0].StartTime.Equal(want) {
		t.Errorf("StartTime = %v, want the later start at %v", jobs[0].StartTime, want)
	}
}

func TestReconstruct_NearestFollowingCompletion(t *testing.T) {
	events := append(successfulRun(),
		testutil.WithResult(testutil.Event(domain.EventTypeBuildCompleted, 10*time.Minute, "p1"), "b1"))

	jobs := Reconstruct(events)

	if len(jobs) != 1 {
		t.Fatalf("job count = %d, want 1", len(jobs))
	}
	if jobs[0].FinishEvent.EventType != domain.EventTypeRetrieveStatus {
		t.Errorf("FinishEvent type = %q, want the earlier RetrievePreTranslationStatusAsync",
			jobs[0].FinishEvent.EventType)
	}
	// the later completed event lands in additional events
	if len(jobs[0].AdditionalEvents) != 1 {
		t.Fatalf("AdditionalEvents count = %d, want 1", len(jobs[0].AdditionalEvents))
	}
	if jobs[0].AdditionalEvents[0].EventType != domain.EventTypeBuildCompleted {
		t.Errorf("additional event type = %q, want BuildCompletedAsync",
			jobs[0].AdditionalEvents[0].EventType)
	}
}

func TestReconstruct_CompletionRequiresMatchingBuildID(t *testing.T) {
	events := []domain.Event{
		testutil.Event(domain.EventTypeStartBuild, 0, "p1"),
		testutil.WithResult(testutil.Event(domain.EventTypeBuildProject, time.Minute, "p1"), "b1"),
		testutil.WithResult(testutil.Event(domain.EventTypeRetrieveStatus, 2*time.Minute, "p1"), "other"),
	}

	jobs := Reconstruct(events)

	if len(jobs) != 1 {
		t.Fatalf("job count = %d, want 1", len(jobs))
	}
	if jobs[0].Status != domain.JobStatusRunning {
		t.Errorf("Status = %q, want running (mismatched build id must not complete the job)", jobs[0].Status)
	}
}

func TestReconstruct_CompletionMatchesSFProjectID(t *testing.T) {
	finish := testutil.WithResult(testutil.Event(domain.EventTypeExecuteWebhook, 2*time.Minute, ""), "b1")
	finish.Payload.SFProjectID = strPtr("p1")
	events := append(successfulRun()[:2], finish)

	jobs := Reconstruct(events)

	if len(jobs) != 1 {
		t.Fatalf("job count = %d, want 1", len(jobs))
	}
	if jobs[0].Status != domain.JobStatusSuccess {
		t.Errorf("Status = %q, want success via payload sfProjectId match", jobs[0].Status)
	}
}

func TestReconstruct_StartExceptionFailsWithZeroDuration(t *testing.T) {
	events := successfulRun()
	events[0] = testutil.WithException(events[0], "start blew up")

	jobs := Reconstruct(events)

	if len(jobs) != 1 {
		t.Fatalf("job count = %d, want 1", len(jobs))
	}
	job := jobs[0]
	if job.Status != domain.JobStatusFailed {
		t.Errorf("Status = %q, want failed", job.Status)
	}
	if job.Duration == nil || *job.Duration != 0 {
		t.Errorf("Duration = %v, want 0", job.Duration)
	}
	if job.FinishTime == nil || !job.FinishTime.Equal(job.StartTime) {
		t.Errorf("FinishTime = %v, want StartTime %v", job.FinishTime, job.StartTime)
	}
	if job.ErrorMessage == nil || *job.ErrorMessage != "start blew up" {
		t.Errorf("ErrorMessage = %v, want the start exception", job.ErrorMessage)
	}
}

func TestReconstruct_BuildExceptionTrumpsFinish(t *testing.T) {
	events := successfulRun()
	events[1] = testutil.WithException(events[1], "trainer crashed")

	jobs := Reconstruct(events)

	if len(jobs) != 1 {
		t.Fatalf("job count = %d, want 1", len(jobs))
	}
	job := jobs[0]
	if job.Status != domain.JobStatusFailed {
		t.Errorf("Status = %q, want failed", job.Status)
	}
	if want := testutil.T0.Add(time.Minute); job.FinishTime == nil || !job.FinishTime.Equal(want) {
		t.Errorf("FinishTime = %v, want build event time %v", job.FinishTime, want)
	}
}

func TestReconstruct_CancelTrumpsFinish(t *testing.T) {
	// a cancel lands between the build and the status retrieval;
	// the earlier completion candidate wins and it is the cancel
	events := []domain.Event{
		testutil.Event(domain.EventTypeStartBuild, 0, "p1"),
		testutil.WithResult(testutil.Event(domain.EventTypeBuildProject, time.Minute, "p1"), "b1"),
		testutil.Event(domain.EventTypeCancelBuild, 90*time.Second, "p1"),
		testutil.WithResult(testutil.Event(domain.EventTypeRetrieveStatus, 2*time.Minute, "p1"), "b1"),
	}

	jobs := Reconstruct(events)

	if len(jobs) != 1 {
		t.Fatalf("job count = %d, want 1", len(jobs))
	}
	if jobs[0].Status != domain.JobStatusCancelled {
		t.Errorf("Status = %q, want cancelled", jobs[0].Status)
	}
	if jobs[0].FinishEvent != nil && jobs[0].CancelEvent != nil {
		t.Error("both FinishEvent and CancelEvent set")
	}
}

func TestReconstruct_BookExtraction(t *testing.T) {
	events := successfulRun()
	events[0] = testutil.WithPayload(events[0], domain.Payload{
		BuildConfig: &domain.BuildConfig{
			TrainingScriptureRanges: []domain.ScriptureRangeSpec{
				{ProjectID: "src1", ScriptureRange: "GEN;EXO"},
				{ProjectID: "src1", ScriptureRange: "LEV"},
				{ScriptureRange: "PSA"}, // falls back to the event's project
			},
			TranslationScriptureRanges: []domain.ScriptureRangeSpec{
				{ScriptureRange: "MAT;MRK"},
			},
		},
	})

	jobs := Reconstruct(events)

	if len(jobs) != 1 {
		t.Fatalf("job count = %d, want 1", len(jobs))
	}
	wantTraining := []domain.BookRange{
		{ProjectID: "src1", Books: []string{"GEN", "EXO", "LEV"}},
		{ProjectID: "p1", Books: []string{"PSA"}},
	}
	if !reflect.DeepEqual(jobs[0].TrainingBooks, wantTraining) {
		t.Errorf("TrainingBooks = %+v, want %+v", jobs[0].TrainingBooks, wantTraining)
	}
	wantTranslation := []domain.BookRange{
		{ProjectID: "p1", Books: []string{"MAT", "MRK"}},
	}
	if !reflect.DeepEqual(jobs[0].TranslationBooks, wantTranslation) {
		t.Errorf("TranslationBooks = %+v, want %+v", jobs[0].TranslationBooks, wantTranslation)
	}
}

func TestReconstruct_MalformedBuildConfigYieldsEmptyBooks(t *testing.T) {
	events := successfulRun()
	events[0].Payload = domain.ParsePayload([]byte(`{"buildConfig": {"TrainingScriptureRanges": "garbage"}}`))

	jobs := Reconstruct(events)

	if len(jobs) != 1 {
		t.Fatalf("job count = %d, want 1 (malformed books must not abort the job)", len(jobs))
	}
	if len(jobs[0].TrainingBooks) != 0 || len(jobs[0].TranslationBooks) != 0 {
		t.Errorf("books = %v / %v, want empty", jobs[0].TrainingBooks, jobs[0].TranslationBooks)
	}
}

func TestReconstruct_SortedByStartTimeDescending(t *testing.T) {
	events := []domain.Event{
		testutil.Event(domain.EventTypeStartBuild, 0, "p1"),
		testutil.WithResult(testutil.Event(domain.EventTypeBuildProject, time.Minute, "p1"), "b1"),
		testutil.Event(domain.EventTypeStartBuild, time.Hour, "p1"),
		testutil.WithResult(testutil.Event(domain.EventTypeBuildProject, time.Hour+time.Minute, "p1"), "b2"),
	}

	jobs := Reconstruct(events)

	if len(jobs) != 2 {
		t.Fatalf("job count = %d, want 2", len(jobs))
	}
	if jobs[0].BuildID != "b2" || jobs[1].BuildID != "b1" {
		t.Errorf("order = [%s, %s], want most recent first [b2, b1]", jobs[0].BuildID, jobs[1].BuildID)
	}
}

func TestReconstruct_Idempotent(t *testing.T) {
	base := append(successfulRun(),
		testutil.Event(domain.EventTypeStartBuild, time.Hour, "p2"),
		testutil.WithResult(testutil.Event(domain.EventTypeBuildProject, time.Hour+time.Minute, "p2"), "b9"),
		testutil.Event(domain.EventTypeCancelBuild, time.Hour+2*time.Minute, "p2"),
	)

	want := Reconstruct(base)

	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 20; trial++ {
		shuffled := make([]domain.Event, len(base))
		copy(shuffled, base)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		got := Reconstruct(shuffled)
		if len(got) != len(want) {
			t.Fatalf("trial %d: job count = %d, want %d", trial, len(got), len(want))
		}
		for i := range got {
			if got[i].BuildID != want[i].BuildID ||
				got[i].Status != want[i].Status ||
				!got[i].StartTime.Equal(want[i].StartTime) {
				t.Errorf("trial %d job %d: got {%s %s %v}, want {%s %s %v}",
					trial, i,
					got[i].BuildID, got[i].Status, got[i].StartTime,
					want[i].BuildID, want[i].Status, want[i].StartTime)
			}
		}
	}
}

func TestReconstruct_EmptyInput(t *testing.T) {
	if jobs := Reconstruct(nil); len(jobs) != 0 {
		t.Errorf("job count = %d, want 0", len(jobs))
	}
}
