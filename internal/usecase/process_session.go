package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/GeoQI/Cognitive-State-Estimation/internal/domain/entity"
	"github.com/GeoQI/Cognitive-State-Estimation/internal/domain/port"
	"github.com/GeoQI/Cognitive-State-Estimation/internal/infra/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ProcessSessionUseCase runs one recorded session through the extraction
// pipeline: 25 trials in level/index order, or the single lecture segment.
// Decode access is serialized inside the FrameProcessor; the compute and
// serialize stages run on a bounded pool. A failed trial is recorded and
// skipped; serialization failures abort the run.
type ProcessSessionUseCase struct {
	processor port.FrameProcessor
	writer    port.ArtifactWriter
	ledger    port.RunLedger       // nil disables the run ledger
	storage   port.ArtifactStorage // nil disables archival
	logger    *zap.Logger
	cfg       Config
}

type Config struct {
	Method       entity.Method
	CropSize     int
	OutputDir    string
	LectureVideo bool
	Workers      int
	TrialTimeout time.Duration
}

func NewProcessSessionUseCase(
	processor port.FrameProcessor,
	writer port.ArtifactWriter,
	ledger port.RunLedger,
	storage port.ArtifactStorage,
	logger *zap.Logger,
	cfg Config,
) *ProcessSessionUseCase {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &ProcessSessionUseCase{
		processor: processor,
		writer:    writer,
		ledger:    ledger,
		storage:   storage,
		logger:    logger,
		cfg:       cfg,
	}
}

func (uc *ProcessSessionUseCase) Execute(ctx context.Context, session *entity.ExperimentSession) (*entity.RunSummary, error) {
	runID := uuid.New()
	outDir := filepath.Join(uc.cfg.OutputDir, session.Participant)
	log := uc.logger.With(
		zap.String("run_id", runID.String()),
		zap.String("participant", session.Participant),
		zap.Stringer("method", uc.cfg.Method),
	)

	if uc.ledger != nil {
		if err := uc.ledger.CreateRun(ctx, runID, session.Participant, uc.cfg.Method, uc.cfg.CropSize); err != nil {
			log.Warn("ledger create run failed", zap.Error(err))
		}
	}

	summary := &entity.RunSummary{Participant: session.Participant, Method: uc.cfg.Method}

	var err error
	if uc.cfg.LectureVideo {
		err = uc.processLecture(ctx, session, outDir, log)
		if err == nil {
			summary.Succeeded = 1
		}
	} else {
		err = uc.processTrials(ctx, runID, session, outDir, summary, log)
	}
	if err != nil {
		return summary, err
	}

	if uc.ledger != nil {
		if err := uc.ledger.FinishRun(ctx, runID, summary); err != nil {
			log.Warn("ledger finish run failed", zap.Error(err))
		}
	}

	if uc.storage != nil && summary.Succeeded > 0 {
		if err := uc.storage.UploadArtifacts(ctx, session.Participant, outDir); err != nil {
			log.Warn("artifact upload failed", zap.Error(err))
		}
	}

	for _, line := range summary.FailureReport() {
		log.Warn(line)
	}
	log.Info("session processed",
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", len(summary.Failed)),
	)
	return summary, nil
}

func (uc *ProcessSessionUseCase) processTrials(
	ctx context.Context,
	runID uuid.UUID,
	session *entity.ExperimentSession,
	outDir string,
	summary *entity.RunSummary,
	log *zap.Logger,
) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.cfg.Workers)

	var mu sync.Mutex
	for n := entity.MinLevel; n <= entity.MaxLevel; n++ {
		trials, err := session.Trials(n)
		if err != nil {
			return err
		}
		for _, trial := range trials {
			trial := trial
			g.Go(func() error {
				return uc.processTrial(gctx, runID, trial, outDir, summary, &mu, log)
			})
		}
	}
	return g.Wait()
}

// processTrial walks one trial through the pipeline state machine. Only
// fatal errors are returned; per-trial failures are recorded and swallowed
// so the batch continues.
func (uc *ProcessSessionUseCase) processTrial(
	ctx context.Context,
	runID uuid.UUID,
	trial entity.Trial,
	outDir string,
	summary *entity.RunSummary,
	mu *sync.Mutex,
	log *zap.Logger,
) error {
	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	run := entity.NewTrialRun(trial)
	run.MarkTimestampResolved()

	tctx := ctx
	if uc.cfg.TrialTimeout > 0 {
		var cancel context.CancelFunc
		tctx, cancel = context.WithTimeout(ctx, uc.cfg.TrialTimeout)
		defer cancel()
	}

	extractStart := time.Now()
	tensor, err := uc.processor.Process(tctx, trial.Start, trial.End, uc.cfg.CropSize)
	metrics.TrialStageDuration.WithLabelValues("extract").Observe(time.Since(extractStart).Seconds())
	if err != nil {
		return uc.failTrial(ctx, runID, run, summary, mu, log, err)
	}
	run.MarkFramesExtracted(tensor.Frames())
	run.MarkFeatureExtracted()

	writeStart := time.Now()
	name := entity.TrialArtifactName(trial, uc.cfg.Method)
	label := &entity.Label{N: trial.Level, Score: trial.Score}
	err = uc.writer.Write(tctx, tensor, label, outDir, name)
	metrics.TrialStageDuration.WithLabelValues("serialize").Observe(time.Since(writeStart).Seconds())
	if err != nil {
		return uc.failTrial(ctx, runID, run, summary, mu, log, err)
	}
	run.MarkSerialized()
	run.MarkDone()

	metrics.TrialsProcessedTotal.WithLabelValues("done").Inc()
	log.Debug("trial processed",
		zap.Int("n", trial.Level),
		zap.Int("trial", trial.Index),
		zap.Int("frames", tensor.Frames()),
	)

	mu.Lock()
	summary.Record(run)
	mu.Unlock()
	uc.recordTrial(ctx, runID, run, log)
	return nil
}

// failTrial marks the run failed and reports whether the whole batch must
// stop. Out-of-range and decode errors only fail this trial.
func (uc *ProcessSessionUseCase) failTrial(
	ctx context.Context,
	runID uuid.UUID,
	run *entity.TrialRun,
	summary *entity.RunSummary,
	mu *sync.Mutex,
	log *zap.Logger,
	err error,
) error {
	run.MarkFailed(err)
	metrics.TrialsProcessedTotal.WithLabelValues("failed").Inc()

	mu.Lock()
	summary.Record(run)
	mu.Unlock()
	uc.recordTrial(ctx, runID, run, log)

	if entity.IsFatal(err) {
		log.Error("fatal pipeline error",
			zap.Int("n", run.Trial.Level),
			zap.Int("trial", run.Trial.Index),
			zap.Error(err),
		)
		return err
	}

	log.Warn("trial failed",
		zap.Int("n", run.Trial.Level),
		zap.Int("trial", run.Trial.Index),
		zap.Error(err),
	)
	return nil
}

func (uc *ProcessSessionUseCase) processLecture(
	ctx context.Context,
	session *entity.ExperimentSession,
	outDir string,
	log *zap.Logger,
) error {
	window, err := session.LectureWindow()
	if err != nil {
		return err
	}

	tctx := ctx
	if uc.cfg.TrialTimeout > 0 {
		var cancel context.CancelFunc
		tctx, cancel = context.WithTimeout(ctx, uc.cfg.TrialTimeout)
		defer cancel()
	}

	tensor, err := uc.processor.Process(tctx, window.Start, window.End, uc.cfg.CropSize)
	if err != nil {
		return fmt.Errorf("process lecture segment: %w", err)
	}

	name := entity.LectureArtifactName(uc.cfg.Method)
	if err := uc.writer.Write(tctx, tensor, nil, outDir, name); err != nil {
		return err
	}

	log.Info("lecture segment processed", zap.Int("frames", tensor.Frames()))
	return nil
}

func (uc *ProcessSessionUseCase) recordTrial(ctx context.Context, runID uuid.UUID, run *entity.TrialRun, log *zap.Logger) {
	if uc.ledger == nil {
		return
	}
	if err := uc.ledger.RecordTrial(ctx, runID, run); err != nil {
		log.Warn("ledger record trial failed", zap.Error(err))
	}
}
