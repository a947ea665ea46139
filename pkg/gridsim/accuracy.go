package gridsim

import "math"

// BetOutcome is the graded result of one recommendation
type BetOutcome string

const (
	BetWin  BetOutcome = "WIN"
	BetLoss BetOutcome = "LOSS"
	BetPush BetOutcome = "PUSH"
)

// GradedGame pairs a stored prediction with the actual final score so the
// prediction can be evaluated after the fact.
type GradedGame struct {
	Result          *SimulationResult
	Recommendations []*BettingRecommendation
	ActualHome      int
	ActualAway      int
}

// GradeRecommendation settles one recommendation against the actual score.
// Integer scores never land on a half-point line, so pushes only occur on
// whole-number lines.
func GradeRecommendation(rec *BettingRecommendation, actualHome, actualAway int) BetOutcome {
	margin := float64(actualHome - actualAway)
	total := float64(actualHome + actualAway)

	switch rec.Market {
	case MarketSpread:
		if math.Abs(margin-rec.Line) < pushEpsilon {
			return BetPush
		}
		homeCovers := margin > rec.Line
		if (rec.Side == SideHome) == homeCovers {
			return BetWin
		}
		return BetLoss
	case MarketTotal:
		if math.Abs(total-rec.Line) < pushEpsilon {
			return BetPush
		}
		wentOver := total > rec.Line
		if (rec.Side == SideOver) == wentOver {
			return BetWin
		}
		return BetLoss
	}
	return BetPush
}

// unitProfit returns the profit on a one-unit stake at an American price
func unitProfit(outcome BetOutcome, price int) float64 {
	switch outcome {
	case BetWin:
		if price < 0 {
			return 100 / -float64(price)
		}
		return float64(price) / 100
	case BetLoss:
		return -1
	}
	return 0
}

// PredictionAccuracy holds the evaluation of a single graded game
type PredictionAccuracy struct {
	BatchID  string
	HomeTeam string
	AwayTeam string

	ActualHome int
	ActualAway int

	WinnerCorrect bool
	SpreadError   float64 // |raw spread mean - actual margin|
	TotalError    float64 // |raw total mean - actual total|

	// Outcomes grades every recommendation; the record and profit below
	// only count bets placed at a tier above PASS.
	Outcomes map[BetMarket]BetOutcome
	Wins     int
	Losses   int
	Pushes   int
	Placed   int
	Profit   float64
}

// EvaluatePrediction grades one stored prediction against the actual final
// score. Returns nil when there is no stored result to grade. Only
// recommendations above the PASS tier count as placed bets.
func EvaluatePrediction(g *GradedGame) *PredictionAccuracy {
	if g == nil || g.Result == nil {
		return nil
	}

	actualMargin := float64(g.ActualHome - g.ActualAway)
	actualTotal := float64(g.ActualHome + g.ActualAway)

	acc := &PredictionAccuracy{
		BatchID:    g.Result.BatchID,
		HomeTeam:   g.Result.HomeTeam,
		AwayTeam:   g.Result.AwayTeam,
		ActualHome: g.ActualHome,
		ActualAway: g.ActualAway,

		WinnerCorrect: (g.Result.RawSpreadMean > 0) == (actualMargin > 0) || actualMargin == 0,
		SpreadError:   math.Abs(g.Result.RawSpreadMean - actualMargin),
		TotalError:    math.Abs(g.Result.RawTotalMean - actualTotal),

		Outcomes: make(map[BetMarket]BetOutcome, len(g.Recommendations)),
	}

	for _, rec := range g.Recommendations {
		outcome := GradeRecommendation(rec, g.ActualHome, g.ActualAway)
		acc.Outcomes[rec.Market] = outcome
		if rec.Tier == TierPass {
			continue
		}
		acc.Placed++
		acc.Profit += unitProfit(outcome, rec.Price)
		switch outcome {
		case BetWin:
			acc.Wins++
		case BetLoss:
			acc.Losses++
		case BetPush:
			acc.Pushes++
		}
	}
	return acc
}

// AggregateAccuracy holds evaluation statistics across many graded games
type AggregateAccuracy struct {
	Games int

	WinnerAccuracy float64 // percentage of games with the winner called
	AvgSpreadError float64
	AvgTotalError  float64

	Wins   int
	Losses int
	Pushes int
	Placed int
	Units  float64
	ROI    float64 // units profit per unit staked
}

// EvaluateAllPredictions grades every game that has a stored result and
// aggregates the per-game evaluations. Returns nil when nothing is gradable.
func EvaluateAllPredictions(games []*GradedGame) *AggregateAccuracy {
	var accs []*PredictionAccuracy
	for _, g := range games {
		if acc := EvaluatePrediction(g); acc != nil {
			accs = append(accs, acc)
		}
	}
	if len(accs) == 0 {
		return nil
	}

	agg := &AggregateAccuracy{Games: len(accs)}
	winnerCorrect := 0
	for _, acc := range accs {
		if acc.WinnerCorrect {
			winnerCorrect++
		}
		agg.AvgSpreadError += acc.SpreadError
		agg.AvgTotalError += acc.TotalError
		agg.Placed += acc.Placed
		agg.Units += acc.Profit
		agg.Wins += acc.Wins
		agg.Losses += acc.Losses
		agg.Pushes += acc.Pushes
	}

	n := float64(agg.Games)
	agg.WinnerAccuracy = float64(winnerCorrect) / n * 100
	agg.AvgSpreadError /= n
	agg.AvgTotalError /= n
	if agg.Placed > 0 {
		agg.ROI = agg.Units / float64(agg.Placed)
	}
	return agg
}
