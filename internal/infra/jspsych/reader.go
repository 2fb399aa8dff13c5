// Package jspsych parses the experiment log recorded by the JsPsych n-back
// experiment and locates the session files on disk.
package jspsych

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/GeoQI/Cognitive-State-Estimation/internal/domain/entity"
)

const (
	trialTypeNBack   = "n-back"
	trialTypeLecture = "lecture-video"
)

// record is one event in the JsPsych log. Only n-back trials and the
// lecture-video segment are relevant; everything else is skipped.
type record struct {
	TrialType string   `json:"trial_type"`
	N         int      `json:"n"`
	TimeStart float64  `json:"time_start"`
	TimeEnd   float64  `json:"time_end"`
	Score     *float64 `json:"score"`
}

type Reader struct{}

func NewReader() *Reader {
	return &Reader{}
}

// Load parses the experiment log at path into an ExperimentSession. The
// participant identifier is the log file's base name.
func (r *Reader) Load(path string) (*entity.ExperimentSession, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", entity.ErrMalformedMetadata, path, err)
	}

	var records []record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", entity.ErrMalformedMetadata, path, err)
	}

	var trials []entity.Trial
	var lecture *entity.TimeWindow
	for _, rec := range records {
		switch rec.TrialType {
		case trialTypeNBack:
			if rec.Score == nil {
				return nil, fmt.Errorf("%w: n-back trial without score in %s", entity.ErrMalformedMetadata, path)
			}
			trials = append(trials, entity.Trial{
				Level: rec.N,
				Start: rec.TimeStart,
				End:   rec.TimeEnd,
				Score: *rec.Score,
			})
		case trialTypeLecture:
			lecture = &entity.TimeWindow{Start: rec.TimeStart, End: rec.TimeEnd}
		}
	}

	participant := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return entity.NewExperimentSession(participant, trials, lecture)
}

// Discover finds the one .json log and one .mp4 video inside a session
// directory.
func Discover(dir string) (logPath, videoPath string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", "", fmt.Errorf("read session dir %s: %w", dir, err)
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		full := filepath.Join(dir, e.Name())
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".json":
			if logPath != "" {
				return "", "", fmt.Errorf("session dir %s contains more than one .json log", dir)
			}
			logPath = full
		case ".mp4":
			if videoPath != "" {
				return "", "", fmt.Errorf("session dir %s contains more than one .mp4 video", dir)
			}
			videoPath = full
		}
	}

	if logPath == "" {
		return "", "", fmt.Errorf("session dir %s contains no .json experiment log", dir)
	}
	if videoPath == "" {
		return "", "", fmt.Errorf("session dir %s contains no .mp4 video", dir)
	}
	return logPath, videoPath, nil
}
