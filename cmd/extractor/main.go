package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GeoQI/Cognitive-State-Estimation/internal/domain/entity"
	"github.com/GeoQI/Cognitive-State-Estimation/internal/domain/port"
	"github.com/GeoQI/Cognitive-State-Estimation/internal/infra/config"
	"github.com/GeoQI/Cognitive-State-Estimation/internal/infra/jspsych"
	"github.com/GeoQI/Cognitive-State-Estimation/internal/infra/metrics"
	miniostorage "github.com/GeoQI/Cognitive-State-Estimation/internal/infra/minio"
	"github.com/GeoQI/Cognitive-State-Estimation/internal/infra/npy"
	"github.com/GeoQI/Cognitive-State-Estimation/internal/infra/sqlite"
	"github.com/GeoQI/Cognitive-State-Estimation/internal/infra/video"
	"github.com/GeoQI/Cognitive-State-Estimation/internal/usecase"
	"github.com/GeoQI/Cognitive-State-Estimation/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	var (
		outputDir    string
		cropSize     int
		lectureVideo bool
	)

	rootCmd := &cobra.Command{
		Use:     "extractor <face|eye|opticalflow> <session-dir>",
		Short:   "Extract per-trial visual feature tensors from a recorded n-back session",
		Version: version,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], args[1], outputDir, cropSize, lectureVideo)
		},
		SilenceUsage: true,
	}
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", ".", "directory to store the output in")
	rootCmd.Flags().IntVarP(&cropSize, "crop", "c", 64, "crop size for the extracted frames")
	rootCmd.Flags().BoolVar(&lectureVideo, "lecture-video", false, "extract the lecture-video segment instead of the trials")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(methodArg, sessionDir, outputDir string, cropSize int, lectureVideo bool) error {
	method, err := entity.ParseMethod(methodArg)
	if err != nil {
		return err
	}
	if cropSize <= 0 {
		return fmt.Errorf("crop size must be positive, got %d", cropSize)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	logPath, videoPath, err := jspsych.Discover(sessionDir)
	if err != nil {
		return err
	}

	session, err := jspsych.NewReader().Load(logPath)
	if err != nil {
		return err
	}
	log.Info("session loaded",
		zap.String("participant", session.Participant),
		zap.String("log", logPath),
		zap.String("video", videoPath),
		zap.Stringer("method", method),
		zap.Bool("lecture_video", lectureVideo),
	)

	handler, err := video.NewHandler(videoPath, method, video.CascadeConfig{
		FacePath: cfg.FaceCascadePath,
		EyePath:  cfg.EyeCascadePath,
	}, log)
	if err != nil {
		return err
	}
	defer handler.Close()

	var ledger port.RunLedger
	if cfg.LedgerPath != "" {
		l, err := sqlite.OpenLedger(cfg.LedgerPath)
		if err != nil {
			return err
		}
		defer l.Close()
		ledger = l
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var storage port.ArtifactStorage
	if cfg.MinIOEndpoint != "" {
		s, err := miniostorage.NewStorage(miniostorage.StorageConfig{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			UseSSL:    cfg.MinIOUseSSL,
			Bucket:    cfg.MinIOBucket,
		})
		if err != nil {
			return err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return err
		}
		storage = s
	}

	metricsSrv := metrics.StartServer(cfg.MetricsPort, log)
	if metricsSrv != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			metricsSrv.Shutdown(shutdownCtx)
		}()
	}

	uc := usecase.NewProcessSessionUseCase(
		handler, npy.NewWriter(), ledger, storage, log,
		usecase.Config{
			Method:       method,
			CropSize:     cropSize,
			OutputDir:    outputDir,
			LectureVideo: lectureVideo,
			Workers:      cfg.WorkerCount,
			TrialTimeout: time.Duration(cfg.TrialTimeoutSeconds) * time.Second,
		},
	)

	summary, err := uc.Execute(ctx, session)
	if err != nil {
		return err
	}
	if len(summary.Failed) > 0 {
		fmt.Printf("completed with %d failed trial(s):\n", len(summary.Failed))
		for _, line := range summary.FailureReport() {
			fmt.Println("  " + line)
		}
	}
	return nil
}
