package entity

import "fmt"

const (
	MinLevel       = 1
	MaxLevel       = 5
	TrialsPerLevel = 5
)

// Trial is one timed n-back attempt. Timestamps are seconds relative to the
// start of the session video.
type Trial struct {
	Level int
	Index int
	Start float64
	End   float64
	Score float64
}

// TimeWindow is a start/end pair in video seconds.
type TimeWindow struct {
	Start float64
	End   float64
}

// ExperimentSession holds the parsed experiment log for one participant:
// exactly TrialsPerLevel trials for every level in MinLevel..MaxLevel, plus
// an optional lecture-video window without ground truth.
type ExperimentSession struct {
	Participant string
	trials      map[int][]Trial
	lecture     *TimeWindow
}

func NewExperimentSession(participant string, trials []Trial, lecture *TimeWindow) (*ExperimentSession, error) {
	byLevel := make(map[int][]Trial, MaxLevel)
	for _, t := range trials {
		if t.Level < MinLevel || t.Level > MaxLevel {
			return nil, fmt.Errorf("%w: trial level %d outside %d..%d", ErrMalformedMetadata, t.Level, MinLevel, MaxLevel)
		}
		if t.Start >= t.End {
			return nil, fmt.Errorf("%w: trial n=%d has start %.3f >= end %.3f", ErrMalformedMetadata, t.Level, t.Start, t.End)
		}
		t.Index = len(byLevel[t.Level])
		byLevel[t.Level] = append(byLevel[t.Level], t)
	}
	for n := MinLevel; n <= MaxLevel; n++ {
		if got := len(byLevel[n]); got != TrialsPerLevel {
			return nil, fmt.Errorf("%w: level %d has %d trials, want %d", ErrMalformedMetadata, n, got, TrialsPerLevel)
		}
	}
	if lecture != nil && lecture.Start >= lecture.End {
		return nil, fmt.Errorf("%w: lecture window start %.3f >= end %.3f", ErrMalformedMetadata, lecture.Start, lecture.End)
	}
	return &ExperimentSession{
		Participant: participant,
		trials:      byLevel,
		lecture:     lecture,
	}, nil
}

// Trials returns the trials for level n in the log's native order.
func (s *ExperimentSession) Trials(n int) ([]Trial, error) {
	ts, ok := s.trials[n]
	if !ok {
		return nil, fmt.Errorf("%w: no trials for level %d", ErrMalformedMetadata, n)
	}
	out := make([]Trial, len(ts))
	copy(out, ts)
	return out, nil
}

// LectureWindow returns the lecture-video time window.
func (s *ExperimentSession) LectureWindow() (TimeWindow, error) {
	if s.lecture == nil {
		return TimeWindow{}, fmt.Errorf("%w: session %s", ErrMissingSegment, s.Participant)
	}
	return *s.lecture, nil
}

func (s *ExperimentSession) HasLecture() bool {
	return s.lecture != nil
}
