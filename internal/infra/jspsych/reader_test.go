package jspsych

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/GeoQI/Cognitive-State-Estimation/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLog(t *testing.T, name string, records []map[string]any) string {
	t.Helper()
	raw, err := json.Marshal(records)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

func validRecords(withLecture bool) []map[string]any {
	var records []map[string]any
	records = append(records, map[string]any{"trial_type": "instructions"})
	ts := 10.0
	for n := 1; n <= 5; n++ {
		for i := 0; i < 5; i++ {
			records = append(records, map[string]any{
				"trial_type": "n-back",
				"n":          n,
				"time_start": ts,
				"time_end":   ts + 5,
				"score":      float64(n*10+i) / 100,
			})
			ts += 10
		}
	}
	if withLecture {
		records = append(records, map[string]any{
			"trial_type": "lecture-video",
			"time_start": ts,
			"time_end":   ts + 600,
		})
	}
	return records
}

func TestLoadValidLog(t *testing.T) {
	path := writeLog(t, "subject-07.json", validRecords(true))
	session, err := NewReader().Load(path)
	require.NoError(t, err)

	assert.Equal(t, "subject-07", session.Participant)
	for n := 1; n <= 5; n++ {
		trials, err := session.Trials(n)
		require.NoError(t, err)
		require.Len(t, trials, 5)
		for i, trial := range trials {
			assert.Equal(t, i, trial.Index)
			assert.Equal(t, float64(n*10+i)/100, trial.Score)
		}
	}

	window, err := session.LectureWindow()
	require.NoError(t, err)
	assert.Less(t, window.Start, window.End)
}

func TestLoadKeepsLogOrder(t *testing.T) {
	records := validRecords(false)
	path := writeLog(t, "p.json", records)
	session, err := NewReader().Load(path)
	require.NoError(t, err)

	trials, err := session.Trials(2)
	require.NoError(t, err)
	for i := 1; i < len(trials); i++ {
		// log order, which for this fixture is also chronological
		assert.Greater(t, trials[i].Start, trials[i-1].Start)
	}
}

func TestLoadWithoutLecture(t *testing.T) {
	path := writeLog(t, "p.json", validRecords(false))
	session, err := NewReader().Load(path)
	require.NoError(t, err)

	_, err = session.LectureWindow()
	assert.ErrorIs(t, err, entity.ErrMissingSegment)
}

func TestLoadRejectsWrongTrialCount(t *testing.T) {
	records := validRecords(false)
	// drop one n=3 trial
	for i, rec := range records {
		if rec["trial_type"] == "n-back" && rec["n"] == 3 {
			records = append(records[:i], records[i+1:]...)
			break
		}
	}
	path := writeLog(t, "p.json", records)
	_, err := NewReader().Load(path)
	assert.ErrorIs(t, err, entity.ErrMalformedMetadata)
}

func TestLoadRejectsTrialWithoutScore(t *testing.T) {
	records := validRecords(false)
	for _, rec := range records {
		if rec["trial_type"] == "n-back" {
			delete(rec, "score")
			break
		}
	}
	path := writeLog(t, "p.json", records)
	_, err := NewReader().Load(path)
	assert.ErrorIs(t, err, entity.ErrMalformedMetadata)
}

func TestLoadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := NewReader().Load(path)
	assert.ErrorIs(t, err, entity.ErrMalformedMetadata)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewReader().Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, err, entity.ErrMalformedMetadata)
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "subject-07.json"), []byte("[]"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "recording.mp4"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	logPath, videoPath, err := Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "subject-07.json"), logPath)
	assert.Equal(t, filepath.Join(dir, "recording.mp4"), videoPath)
}

func TestDiscoverErrors(t *testing.T) {
	dir := t.TempDir()
	_, _, err := Discover(dir)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte("[]"), 0o644))
	_, _, err = Discover(dir)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "v.mp4"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.json"), []byte("[]"), 0o644))
	_, _, err = Discover(dir)
	assert.Error(t, err)
}
