package cfr

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/timpalpant/tossem-cfr/tossem"
)

// Params configure a training run. Zero values fall back to the defaults
// the trainer has always shipped with.
type Params struct {
	Iterations         int64  // total iterations (default 1,000,000)
	Threads            int    // worker count (default NumCPU-1, at least 1)
	BatchSize          int64  // iterations per worker per round (default 20,000)
	CheckpointInterval int64  // iterations between checkpoints (default 500,000)
	OutputPath         string // final strategy file (default cfr_strategy.bin)

	// Seed makes per-worker seeding deterministic for a fixed thread
	// count. Zero draws fresh entropy every batch.
	Seed int64
}

func (p *Params) setDefaults() {
	if p.Iterations <= 0 {
		p.Iterations = 1_000_000
	}
	if p.Threads <= 0 {
		p.Threads = max(1, runtime.NumCPU()-1)
	}
	if p.BatchSize <= 0 {
		p.BatchSize = 20_000
	}
	if p.CheckpointInterval <= 0 {
		p.CheckpointInterval = 500_000
	}
	if p.OutputPath == "" {
		p.OutputPath = "cfr_strategy.bin"
	}
}

// BatchStats describes one merged batch for progress reporting.
type BatchStats struct {
	Done      int64
	Total     int64
	BatchRate float64 // iterations/sec for this batch
	TotalRate float64 // iterations/sec since Run started
	Nodes     int     // global table size after the merge
}

// Trainer runs batched CFR self-play. Each batch spawns Threads workers
// with private tables and private rngs; the main goroutine merges their
// results into the global table between batches, so traversal itself needs
// no locks.
type Trainer struct {
	params Params
	runID  uuid.UUID

	global         RegretTable
	done           int64
	lastCheckpoint int64

	// Progress, if set, is called on the main goroutine after every
	// merged batch.
	Progress func(BatchStats)

	// OnCheckpoint, if set, is called after each checkpoint and the
	// final save, with the merged global table and the path written.
	OnCheckpoint func(table RegretTable, iterations int64, path string) error
}

// NewTrainer creates a trainer for the given parameters.
func NewTrainer(params Params) *Trainer {
	params.setDefaults()
	return &Trainer{
		params: params,
		runID:  uuid.New(),
		global: make(RegretTable),
	}
}

// Table returns the merged global table. Only valid between batches or
// after Run returns.
func (t *Trainer) Table() RegretTable { return t.global }

// Iterations returns the number of iterations completed so far.
func (t *Trainer) Iterations() int64 { return t.done }

// RunID identifies this training run in logs and checkpoints.
func (t *Trainer) RunID() uuid.UUID { return t.runID }

// Run trains until the configured iteration count is reached, writing the
// final table to the output path. A failed table write aborts the run.
func (t *Trainer) Run() error {
	p := t.params
	glog.Infof("run %s: iters=%d threads=%d batch=%d checkpoint=%d out=%s",
		t.runID, p.Iterations, p.Threads, p.BatchSize, p.CheckpointInterval, p.OutputPath)

	start := time.Now()
	for t.done < p.Iterations {
		remaining := p.Iterations - t.done
		per := max(1, min(p.BatchSize, remaining/int64(p.Threads)+1))

		batchStart := time.Now()
		results := make([]RegretTable, p.Threads)
		base := t.batchSeed()
		done := t.done

		var wg sync.WaitGroup
		for w := 0; w < p.Threads; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				seed := base ^ (done + int64(w)*1337)
				results[w] = runWorker(per, seed)
			}(w)
		}
		wg.Wait()

		var batchDone int64
		for _, r := range results {
			batchDone += per
			t.global.Merge(r)
		}
		t.done += batchDone

		batchSec := time.Since(batchStart).Seconds()
		totalSec := time.Since(start).Seconds()
		stats := BatchStats{
			Done:      t.done,
			Total:     p.Iterations,
			BatchRate: float64(batchDone) / max(batchSec, 1e-9),
			TotalRate: float64(t.done) / max(totalSec, 1e-9),
			Nodes:     len(t.global),
		}
		glog.V(1).Infof("batch done: %d/%d rate=%.0f/s total=%.0f/s states=%d",
			stats.Done, stats.Total, stats.BatchRate, stats.TotalRate, stats.Nodes)
		if t.Progress != nil {
			t.Progress(stats)
		}

		if t.done-t.lastCheckpoint >= p.CheckpointInterval {
			path := fmt.Sprintf("%s.checkpoint_%dk", p.OutputPath, t.done/1000)
			if err := t.save(path); err != nil {
				return err
			}
			t.lastCheckpoint = t.done
		}
	}

	return t.save(p.OutputPath)
}

func (t *Trainer) save(path string) error {
	if err := SaveTable(path, t.global, t.done); err != nil {
		return err
	}
	glog.Infof("run %s: saved %s (%d nodes, %d iters)", t.runID, path, len(t.global), t.done)

	if t.OnCheckpoint != nil {
		return t.OnCheckpoint(t.global, t.done, path)
	}
	return nil
}

// runWorker plays iters self-play iterations into a private table. Each
// iteration deals one hand and traverses it once per update player.
func runWorker(iters int64, seed int64) RegretTable {
	rng := rand.New(rand.NewSource(seed))
	table := make(RegretTable)
	var g tossem.Game

	for i := int64(0); i < iters; i++ {
		g.Reset(rng)
		for player := 0; player < 2; player++ {
			Traverse(&g, player, 1.0, 1.0, rng, table)
		}
	}
	return table
}

func (t *Trainer) batchSeed() int64 {
	if t.params.Seed != 0 {
		return t.params.Seed
	}
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}
