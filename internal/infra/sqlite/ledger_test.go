package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/GeoQI/Cognitive-State-Estimation/internal/domain/entity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	ledger, err := OpenLedger(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { ledger.Close() })
	return ledger
}

func TestLedgerRecordsRunAndTrials(t *testing.T) {
	ledger := openTestLedger(t)
	ctx := context.Background()
	runID := uuid.New()

	require.NoError(t, ledger.CreateRun(ctx, runID, "subject-07", entity.MethodFace, 64))

	done := entity.NewTrialRun(entity.Trial{Level: 1, Index: 0, Start: 10, End: 15, Score: 0.9})
	done.MarkTimestampResolved()
	done.MarkFramesExtracted(150)
	done.MarkFeatureExtracted()
	done.MarkSerialized()
	done.MarkDone()
	require.NoError(t, ledger.RecordTrial(ctx, runID, done))

	failed := entity.NewTrialRun(entity.Trial{Level: 5, Index: 4, Start: 400, End: 9999})
	failed.MarkTimestampResolved()
	failed.MarkFailed(entity.ErrOutOfRange)
	require.NoError(t, ledger.RecordTrial(ctx, runID, failed))

	summary := &entity.RunSummary{Participant: "subject-07", Method: entity.MethodFace, Succeeded: 1}
	summary.Failed = append(summary.Failed, failed)
	require.NoError(t, ledger.FinishRun(ctx, runID, summary))

	results, err := ledger.TrialResults(ctx, runID)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, 1, results[0].N)
	assert.Equal(t, string(entity.TrialDone), results[0].Status)
	assert.Equal(t, 150, results[0].FrameCount)

	assert.Equal(t, 5, results[1].N)
	assert.Equal(t, 4, results[1].TrialIndex)
	assert.Equal(t, string(entity.TrialFailed), results[1].Status)
	assert.Equal(t, string(entity.TrialTimestampResolved), results[1].Stage)
	assert.Contains(t, results[1].Error, "exceeds video duration")
}

func TestLedgerRecordTrialIsIdempotent(t *testing.T) {
	ledger := openTestLedger(t)
	ctx := context.Background()
	runID := uuid.New()
	require.NoError(t, ledger.CreateRun(ctx, runID, "p", entity.MethodEye, 64))

	run := entity.NewTrialRun(entity.Trial{Level: 2, Index: 1})
	run.MarkTimestampResolved()
	run.MarkFailed(entity.ErrDecode)
	require.NoError(t, ledger.RecordTrial(ctx, runID, run))
	require.NoError(t, ledger.RecordTrial(ctx, runID, run))

	results, err := ledger.TrialResults(ctx, runID)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}
