package port

import (
	"context"

	"github.com/GeoQI/Cognitive-State-Estimation/internal/domain/entity"
	"github.com/google/uuid"
)

// RunLedger records runs and per-trial outcomes for later inspection.
type RunLedger interface {
	CreateRun(ctx context.Context, id uuid.UUID, participant string, method entity.Method, cropSize int) error
	RecordTrial(ctx context.Context, runID uuid.UUID, run *entity.TrialRun) error
	FinishRun(ctx context.Context, runID uuid.UUID, summary *entity.RunSummary) error
}
