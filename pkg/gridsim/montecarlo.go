package gridsim

import (
	"context"
	"runtime"
	"sync"

	"github.com/google/uuid"

	"github.com/StevenRidder/Football-sub002/internal/logger"
)

// SimulationBatch holds the paired final scores of one Monte Carlo run.
// Home[i] and Away[i] belong to the same trial, so spread and total can be
// derived per trial without losing the correlation between the two series.
type SimulationBatch struct {
	ID        string
	Home      []float64
	Away      []float64
	Requested int
	Completed int
	Failed    int
	BaseSeed  uint64
}

// Spread returns the per-trial home minus away margins
func (b *SimulationBatch) Spread() []float64 {
	out := make([]float64, len(b.Home))
	for i := range b.Home {
		out[i] = b.Home[i] - b.Away[i]
	}
	return out
}

// Total returns the per-trial combined scores
func (b *SimulationBatch) Total() []float64 {
	out := make([]float64, len(b.Home))
	for i := range b.Home {
		out[i] = b.Home[i] + b.Away[i]
	}
	return out
}

// SimulateMany runs nTrials full games across a worker pool. Trial i always
// uses seed baseSeed+i and results are stored by trial index, so the output
// is identical regardless of worker count or scheduling.
//
// A failed trial is counted, not retried. When the failed fraction exceeds
// the configured tolerance, or a cancelled run leaves fewer than the minimum
// usable trials, the whole batch fails with a BatchIntegrityError rather than
// returning a biased sample.
func (g *GameSimulator) SimulateMany(ctx context.Context, nTrials int, baseSeed uint64) (*SimulationBatch, error) {
	if nTrials <= 0 {
		return nil, &BatchIntegrityError{Requested: nTrials}
	}

	workers := g.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > nTrials {
		workers = nTrials
	}

	homes := make([]float64, nTrials)
	aways := make([]float64, nTrials)
	ok := make([]bool, nTrials)

	var (
		mu       sync.Mutex
		failed   int
		firstErr error
	)

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				score, err := g.SimulateOne(baseSeed + uint64(i))
				if err != nil {
					mu.Lock()
					failed++
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					continue
				}
				homes[i] = float64(score.Home)
				aways[i] = float64(score.Away)
				ok[i] = true
			}
		}()
	}

	dispatched := 0
dispatch:
	for i := 0; i < nTrials; i++ {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- i:
			dispatched++
		}
	}
	close(jobs)
	wg.Wait()

	if dispatched < nTrials {
		logger.Warn("simulation cancelled, trials dispatched:", dispatched, "of", nTrials)
	}

	// Compact in trial order so the batch stays deterministic even when some
	// trials failed or the run was cut short.
	batch := &SimulationBatch{
		ID:        uuid.New().String(),
		Home:      make([]float64, 0, dispatched),
		Away:      make([]float64, 0, dispatched),
		Requested: nTrials,
		Failed:    failed,
		BaseSeed:  baseSeed,
	}
	for i := 0; i < nTrials; i++ {
		if ok[i] {
			batch.Home = append(batch.Home, homes[i])
			batch.Away = append(batch.Away, aways[i])
		}
	}
	batch.Completed = len(batch.Home)

	if float64(failed) > float64(nTrials)*g.cfg.MaxFailedTrialFraction {
		return nil, &BatchIntegrityError{
			Completed: batch.Completed,
			Failed:    failed,
			Requested: nTrials,
			First:     firstErr,
		}
	}
	if batch.Completed < g.cfg.MinBatchSize {
		return nil, &BatchIntegrityError{
			Completed: batch.Completed,
			Failed:    failed,
			Requested: nTrials,
			First:     firstErr,
		}
	}

	if failed > 0 {
		logger.Warn("batch completed with failed trials", batch.ID, failed, firstErr)
	} else {
		logger.Debug("batch completed", batch.ID, batch.Completed, "trials")
	}
	return batch, nil
}
