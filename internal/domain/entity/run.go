package entity

import (
	"fmt"
	"time"
)

type TrialStatus string

const (
	TrialPending           TrialStatus = "PENDING"
	TrialTimestampResolved TrialStatus = "TIMESTAMP_RESOLVED"
	TrialFramesExtracted   TrialStatus = "FRAMES_EXTRACTED"
	TrialFeatureExtracted  TrialStatus = "FEATURE_EXTRACTED"
	TrialSerialized        TrialStatus = "SERIALIZED"
	TrialDone              TrialStatus = "DONE"
	TrialFailed            TrialStatus = "FAILED"
)

// TrialRun tracks one trial through the pipeline. Failed is terminal and
// records the stage that was active when the error occurred.
type TrialRun struct {
	Trial       Trial
	Status      TrialStatus
	FailedStage TrialStatus
	Err         error
	FrameCount  int
	StartedAt   time.Time
	FinishedAt  time.Time
}

func NewTrialRun(t Trial) *TrialRun {
	return &TrialRun{
		Trial:     t,
		Status:    TrialPending,
		StartedAt: time.Now().UTC(),
	}
}

func (r *TrialRun) MarkTimestampResolved() { r.Status = TrialTimestampResolved }

func (r *TrialRun) MarkFramesExtracted(frames int) {
	r.Status = TrialFramesExtracted
	r.FrameCount = frames
}

func (r *TrialRun) MarkFeatureExtracted() { r.Status = TrialFeatureExtracted }
func (r *TrialRun) MarkSerialized()       { r.Status = TrialSerialized }

func (r *TrialRun) MarkDone() {
	r.Status = TrialDone
	r.FinishedAt = time.Now().UTC()
}

func (r *TrialRun) MarkFailed(err error) {
	r.FailedStage = r.Status
	r.Status = TrialFailed
	r.Err = err
	r.FinishedAt = time.Now().UTC()
}

// RunSummary collects the outcome of a whole session run.
type RunSummary struct {
	Participant string
	Method      Method
	Succeeded   int
	Failed      []*TrialRun
}

func (s *RunSummary) Record(r *TrialRun) {
	if r.Status == TrialDone {
		s.Succeeded++
		return
	}
	s.Failed = append(s.Failed, r)
}

func (s *RunSummary) FailureReport() []string {
	out := make([]string, 0, len(s.Failed))
	for _, r := range s.Failed {
		out = append(out, fmt.Sprintf("trial %d-%d failed at %s: %v",
			r.Trial.Level, r.Trial.Index, r.FailedStage, r.Err))
	}
	return out
}
