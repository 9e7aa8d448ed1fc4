package config

import (
	"time"
)

type ModelConfig struct {
	Path            string        `yaml:"path"`
	RetrainInterval time.Duration `yaml:"retrain_interval"`
}

func loadModelConfig() *ModelConfig {
	return &ModelConfig{
		Path:            getEnv("MODEL_PATH", "data/eta_model.json"),
		RetrainInterval: getEnvAsDuration("MODEL_RETRAIN_INTERVAL", 24*time.Hour),
	}
}
