// Package config loads trainer settings from the environment. Command-line
// flags layered on top by the caller take precedence.
package config

import "github.com/ilyakaznacheev/cleanenv"

// Train holds the tunable knobs of a training run.
type Train struct {
	Iterations         int64  `env:"TOSSEM_ITERS" env-default:"1000000"`
	Threads            int    `env:"TOSSEM_THREADS" env-default:"0"` // 0 = NumCPU-1
	BatchSize          int64  `env:"TOSSEM_BATCH" env-default:"20000"`
	CheckpointInterval int64  `env:"TOSSEM_CHECKPOINT" env-default:"500000"`
	OutputPath         string `env:"TOSSEM_OUT" env-default:"cfr_strategy.bin"`
	RocksDBPath        string `env:"TOSSEM_ROCKSDB" env-default:""`
	Seed               int64  `env:"TOSSEM_SEED" env-default:"0"`
}

// Load reads environment variables into a Train config.
func Load() (*Train, error) {
	cfg := &Train{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
