// Command tossem-cfr trains a Toss'em Hold'em strategy table by batched
// CFR self-play and writes it as a V2 binary strategy file.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/golang/glog"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"

	cfr "github.com/timpalpant/tossem-cfr"
	"github.com/timpalpant/tossem-cfr/config"
	"github.com/timpalpant/tossem-cfr/rdbstore"
)

func main() {
	// Optional .env, then env vars, then flags; later layers win.
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		glog.Exitf("loading config: %v", err)
	}

	flag.Int64Var(&cfg.Iterations, "i", cfg.Iterations, "total iterations")
	flag.Int64Var(&cfg.Iterations, "iters", cfg.Iterations, "total iterations")
	flag.IntVar(&cfg.Threads, "t", cfg.Threads, "number of threads (0 = auto)")
	flag.IntVar(&cfg.Threads, "threads", cfg.Threads, "number of threads (0 = auto)")
	flag.Int64Var(&cfg.BatchSize, "b", cfg.BatchSize, "batch size per thread")
	flag.Int64Var(&cfg.BatchSize, "batch", cfg.BatchSize, "batch size per thread")
	flag.Int64Var(&cfg.CheckpointInterval, "c", cfg.CheckpointInterval, "checkpoint interval in iterations")
	flag.Int64Var(&cfg.CheckpointInterval, "checkpoint", cfg.CheckpointInterval, "checkpoint interval in iterations")
	flag.StringVar(&cfg.OutputPath, "o", cfg.OutputPath, "output file")
	flag.StringVar(&cfg.OutputPath, "out", cfg.OutputPath, "output file")
	flag.StringVar(&cfg.RocksDBPath, "rocksdb", cfg.RocksDBPath, "optional rocksdb directory to mirror checkpoints into")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "fixed seed for reproducible worker seeding (0 = entropy)")
	flag.Parse()

	trainer := cfr.NewTrainer(cfr.Params{
		Iterations:         cfg.Iterations,
		Threads:            cfg.Threads,
		BatchSize:          cfg.BatchSize,
		CheckpointInterval: cfg.CheckpointInterval,
		OutputPath:         cfg.OutputPath,
		Seed:               cfg.Seed,
	})

	var mirror *rdbstore.Store
	if cfg.RocksDBPath != "" {
		mirror, err = rdbstore.New(rdbstore.DefaultParams(cfg.RocksDBPath))
		if err != nil {
			glog.Exitf("opening rocksdb mirror: %v", err)
		}
		defer mirror.Close()
		trainer.OnCheckpoint = func(table cfr.RegretTable, iterations int64, path string) error {
			return mirror.PutTable(table)
		}
	}

	fmt.Println("Toss'em Hold'em MCCFR trainer - V2 format")
	fmt.Println("Streets: 0=PREFLOP, 1=FLOP, 2=BB_DISCARD, 3=SB_DISCARD, 4=TURN, 5=RIVER")

	bar := progressbar.NewOptions64(cfg.Iterations,
		progressbar.OptionSetDescription("training"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(os.Stderr) }),
	)

	var progressed int64
	trainer.Progress = func(s cfr.BatchStats) {
		bar.Describe(fmt.Sprintf("rate=%s/s total=%s/s states=%s",
			humanize.Comma(int64(s.BatchRate)), humanize.Comma(int64(s.TotalRate)),
			humanize.Comma(int64(s.Nodes))))
		_ = bar.Add64(s.Done - progressed)
		progressed = s.Done
	}

	if err := trainer.Run(); err != nil {
		glog.Exitf("training failed: %v", err)
	}
}
