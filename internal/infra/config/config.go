package config

import (
	"github.com/caarlos0/env/v11"
)

type Config struct {
	FaceCascadePath string `env:"FACE_CASCADE_PATH" envDefault:"haarcascade_frontalface_default.xml"`
	EyeCascadePath  string `env:"EYE_CASCADE_PATH"  envDefault:"haarcascade_eye.xml"`

	WorkerCount         int `env:"WORKER_COUNT"          envDefault:"2"`
	TrialTimeoutSeconds int `env:"TRIAL_TIMEOUT_SECONDS" envDefault:"300"`

	// LedgerPath enables the sqlite run ledger when non-empty.
	LedgerPath string `env:"LEDGER_PATH" envDefault:""`

	// MinIOEndpoint enables artifact archival when non-empty.
	MinIOEndpoint  string `env:"MINIO_ENDPOINT"   envDefault:""`
	MinIOAccessKey string `env:"MINIO_ACCESS_KEY" envDefault:"minioadmin"`
	MinIOSecretKey string `env:"MINIO_SECRET_KEY" envDefault:"minioadmin"`
	MinIOUseSSL    bool   `env:"MINIO_USE_SSL"    envDefault:"false"`
	MinIOBucket    string `env:"MINIO_BUCKET"     envDefault:"features"`

	// MetricsPort starts the /metrics server when > 0.
	MetricsPort int    `env:"METRICS_PORT" envDefault:"0"`
	LogLevel    string `env:"LOG_LEVEL"    envDefault:"info"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
