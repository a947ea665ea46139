package gridsim

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/StevenRidder/Football-sub002/internal/logger"
)

// CenteredBatch is the market-aligned copy of a simulation batch. The raw
// batch is never mutated; auditing relies on being able to compare the two.
type CenteredBatch struct {
	Home []float64
	Away []float64

	MarketSpread float64
	MarketTotal  float64

	// Raw batch summary, kept for result persistence and shape checks
	RawSpreadMean  float64
	RawSpreadStdev float64
	RawTotalMean   float64
	RawTotalStdev  float64

	Scale        float64
	ScaleClipped bool
	Degenerate   bool // variance too thin to rescale, additive-only correction
}

// SpreadStdev returns the sample standard deviation of the centered margins
func (c *CenteredBatch) SpreadStdev() float64 {
	spreads := make([]float64, len(c.Home))
	for i := range c.Home {
		spreads[i] = c.Home[i] - c.Away[i]
	}
	return stat.StdDev(spreads, nil)
}

// TotalStdev returns the sample standard deviation of the centered totals
func (c *CenteredBatch) TotalStdev() float64 {
	totals := make([]float64, len(c.Home))
	for i := range c.Home {
		totals[i] = c.Home[i] + c.Away[i]
	}
	return stat.StdDev(totals, nil)
}

// Center aligns a batch's sample means exactly onto the market spread and
// total while preserving the simulated shape:
//
//  1. compute the raw mean spread and mean total
//  2. rescale each score's deviation from its own series mean by the ratio
//     of market total to raw mean total, clipped to a bounded range
//  3. shift both scores equally to zero the total-mean error, which cannot
//     move the spread
//  4. shift the scores in opposite directions to zero the spread-mean error,
//     which cannot move the total
//
// The postcondition is verified, not assumed: both means must land within
// CenterEpsilon of the market even when the scale was clipped.
func Center(batch *SimulationBatch, marketSpread, marketTotal float64, cfg *SimConfig) (*CenteredBatch, error) {
	n := len(batch.Home)
	if n < 2 || len(batch.Away) != n {
		return nil, fmt.Errorf("batch of %d trials: %w", n, ErrCenteringDegenerate)
	}

	spreads := batch.Spread()
	totals := batch.Total()

	out := &CenteredBatch{
		Home:           append([]float64(nil), batch.Home...),
		Away:           append([]float64(nil), batch.Away...),
		MarketSpread:   marketSpread,
		MarketTotal:    marketTotal,
		RawSpreadMean:  stat.Mean(spreads, nil),
		RawSpreadStdev: stat.StdDev(spreads, nil),
		RawTotalMean:   stat.Mean(totals, nil),
		RawTotalStdev:  stat.StdDev(totals, nil),
		Scale:          1.0,
	}

	homeMean := stat.Mean(out.Home, nil)
	awayMean := stat.Mean(out.Away, nil)

	// Step 2: multiplicative rescale of deviations. A near-constant batch
	// cannot be rescaled safely, so it falls through to the additive steps.
	if out.RawTotalStdev < cfg.DegenerateStdDev || out.RawTotalMean <= 0 {
		out.Degenerate = true
		logger.Warn("degenerate raw batch, centering is additive only",
			out.RawTotalMean, out.RawTotalStdev)
	} else {
		scale := marketTotal / out.RawTotalMean
		if scale < cfg.CenterScaleMin {
			scale = cfg.CenterScaleMin
			out.ScaleClipped = true
		} else if scale > cfg.CenterScaleMax {
			scale = cfg.CenterScaleMax
			out.ScaleClipped = true
		}
		out.Scale = scale
		for i := range out.Home {
			out.Home[i] = homeMean + (out.Home[i]-homeMean)*scale
			out.Away[i] = awayMean + (out.Away[i]-awayMean)*scale
		}
	}

	// Step 3: equal shift fixes the total without moving the spread
	totalErr := marketTotal - (stat.Mean(out.Home, nil) + stat.Mean(out.Away, nil))
	for i := range out.Home {
		out.Home[i] += totalErr / 2
		out.Away[i] += totalErr / 2
	}

	// Step 4: opposite shift fixes the spread without moving the total
	spreadErr := marketSpread - (stat.Mean(out.Home, nil) - stat.Mean(out.Away, nil))
	for i := range out.Home {
		out.Home[i] += spreadErr / 2
		out.Away[i] -= spreadErr / 2
	}

	// Postcondition: exact mean alignment within tolerance
	gotSpread := stat.Mean(out.Home, nil) - stat.Mean(out.Away, nil)
	gotTotal := stat.Mean(out.Home, nil) + stat.Mean(out.Away, nil)
	if math.Abs(gotSpread-marketSpread) > cfg.CenterEpsilon ||
		math.Abs(gotTotal-marketTotal) > cfg.CenterEpsilon {
		return nil, fmt.Errorf("centering postcondition failed: spread %.4f want %.4f, total %.4f want %.4f",
			gotSpread, marketSpread, gotTotal, marketTotal)
	}

	return out, nil
}
