package gridsim

import (
	"fmt"
	"math"
	"time"

	"github.com/StevenRidder/Football-sub002/internal/logger"
)

const pushEpsilon = 1e-9

// BetMarket identifies which market a recommendation applies to
type BetMarket string

const (
	MarketSpread BetMarket = "SPREAD"
	MarketTotal  BetMarket = "TOTAL"
)

// BetSide is the recommended side of a market
type BetSide string

const (
	SideHome  BetSide = "HOME"
	SideAway  BetSide = "AWAY"
	SideOver  BetSide = "OVER"
	SideUnder BetSide = "UNDER"
)

// ConvictionTier sizes a recommendation by its capped edge
type ConvictionTier string

const (
	TierHigh   ConvictionTier = "HIGH"
	TierMedium ConvictionTier = "MEDIUM"
	TierLow    ConvictionTier = "LOW"
	TierPass   ConvictionTier = "PASS"
)

// CoverProbability returns the fraction of centered trials where the home
// margin strictly exceeds the market spread. Pushes are excluded from both
// numerator and denominator and reported separately, so the probability is
// conditional on the bet being decided.
func CoverProbability(c *CenteredBatch) (float64, int) {
	covers, pushes := 0, 0
	for i := range c.Home {
		margin := c.Home[i] - c.Away[i]
		switch {
		case math.Abs(margin-c.MarketSpread) < pushEpsilon:
			pushes++
		case margin > c.MarketSpread:
			covers++
		}
	}
	decided := len(c.Home) - pushes
	if decided == 0 {
		return 0, pushes
	}
	return float64(covers) / float64(decided), pushes
}

// OverProbability returns the fraction of centered trials where the combined
// score strictly exceeds the market total, with pushes excluded the same way
// as CoverProbability.
func OverProbability(c *CenteredBatch) (float64, int) {
	overs, pushes := 0, 0
	for i := range c.Home {
		total := c.Home[i] + c.Away[i]
		switch {
		case math.Abs(total-c.MarketTotal) < pushEpsilon:
			pushes++
		case total > c.MarketTotal:
			overs++
		}
	}
	decided := len(c.Home) - pushes
	if decided == 0 {
		return 0, pushes
	}
	return float64(overs) / float64(decided), pushes
}

// BreakEvenProbability converts an American price into the win probability at
// which the bet returns exactly zero. -110 yields about 0.524.
func BreakEvenProbability(americanPrice int) float64 {
	p := float64(americanPrice)
	if americanPrice < 0 {
		return -p / (-p + 100)
	}
	return 100 / (p + 100)
}

// CapEdge bounds an edge so a handful of extreme trials cannot inflate
// conviction sizing. The sign is preserved.
func CapEdge(edge float64, cfg *SimConfig) float64 {
	if edge > cfg.EdgeCap {
		return cfg.EdgeCap
	}
	if edge < -cfg.EdgeCap {
		return -cfg.EdgeCap
	}
	return edge
}

// TierFor maps a capped edge onto a conviction tier
func TierFor(edge float64, cfg *SimConfig) ConvictionTier {
	switch {
	case edge >= cfg.HighTierEdge:
		return TierHigh
	case edge >= cfg.MediumTierEdge:
		return TierMedium
	case edge >= cfg.LowTierEdge:
		return TierLow
	default:
		return TierPass
	}
}

// Compile-time checks against the persistence interface
var (
	_ Persistable = (*SimulationResult)(nil)
	_ Persistable = (*BettingRecommendation)(nil)
)

// SimulationResult is the persisted summary of one prediction: the raw and
// centered distribution statistics plus the derived probabilities.
type SimulationResult struct {
	BatchID  string `json:"batchId" column:"batch_id" dbtype:"TEXT NOT NULL" primary:"true"`
	HomeTeam string `json:"homeTeam" column:"home_team" dbtype:"TEXT NOT NULL" index:"true"`
	AwayTeam string `json:"awayTeam" column:"away_team" dbtype:"TEXT NOT NULL" index:"true"`
	Season   int    `json:"season" column:"season" dbtype:"INTEGER NOT NULL" index:"true"`
	Week     int    `json:"week" column:"week" dbtype:"INTEGER NOT NULL" index:"true"`

	Trials   int    `json:"trials" column:"trials" dbtype:"INTEGER DEFAULT 0"`
	Failed   int    `json:"failed" column:"failed" dbtype:"INTEGER DEFAULT 0"`
	BaseSeed uint64 `json:"baseSeed" column:"base_seed" dbtype:"INTEGER DEFAULT 0"`

	MarketSpread float64 `json:"marketSpread" column:"market_spread" dbtype:"REAL DEFAULT 0.0"`
	MarketTotal  float64 `json:"marketTotal" column:"market_total" dbtype:"REAL DEFAULT 0.0"`

	RawSpreadMean       float64 `json:"rawSpreadMean" column:"raw_spread_mean" dbtype:"REAL DEFAULT 0.0"`
	RawSpreadStdev      float64 `json:"rawSpreadStdev" column:"raw_spread_stdev" dbtype:"REAL DEFAULT 0.0"`
	RawTotalMean        float64 `json:"rawTotalMean" column:"raw_total_mean" dbtype:"REAL DEFAULT 0.0"`
	RawTotalStdev       float64 `json:"rawTotalStdev" column:"raw_total_stdev" dbtype:"REAL DEFAULT 0.0"`
	CenteredSpreadStdev float64 `json:"centeredSpreadStdev" column:"centered_spread_stdev" dbtype:"REAL DEFAULT 0.0"`
	CenteredTotalStdev  float64 `json:"centeredTotalStdev" column:"centered_total_stdev" dbtype:"REAL DEFAULT 0.0"`

	CenterScale        float64 `json:"centerScale" column:"center_scale" dbtype:"REAL DEFAULT 1.0"`
	CenterScaleClipped bool    `json:"centerScaleClipped" column:"center_scale_clipped" dbtype:"INTEGER DEFAULT 0"`
	CenterDegenerate   bool    `json:"centerDegenerate" column:"center_degenerate" dbtype:"INTEGER DEFAULT 0"`

	CoverProb   float64 `json:"coverProb" column:"cover_prob" dbtype:"REAL DEFAULT 0.0"`
	CoverPushes int     `json:"coverPushes" column:"cover_pushes" dbtype:"INTEGER DEFAULT 0"`
	OverProb    float64 `json:"overProb" column:"over_prob" dbtype:"REAL DEFAULT 0.0"`
	OverPushes  int     `json:"overPushes" column:"over_pushes" dbtype:"INTEGER DEFAULT 0"`

	CreatedAt time.Time `json:"createdAt" column:"created_at" dbtype:"DATETIME DEFAULT CURRENT_TIMESTAMP"`
}

func (r *SimulationResult) GetTableName() string { return "simulation_result" }

func (r *SimulationResult) GetPrimaryKey() map[string]interface{} {
	return map[string]any{"batch_id": r.BatchID}
}

func (r *SimulationResult) SetPrimaryKey(pk map[string]interface{}) error {
	id, ok := pk["batch_id"].(string)
	if !ok {
		return fmt.Errorf("primary key 'batch_id' must be a string")
	}
	r.BatchID = id
	return nil
}

func (r *SimulationResult) BeforeSave() error {
	if r.BatchID == "" {
		return fmt.Errorf("simulation result has no batch id")
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	return nil
}

func (r *SimulationResult) AfterSave() error    { return nil }
func (r *SimulationResult) BeforeDelete() error { return nil }
func (r *SimulationResult) AfterDelete() error  { return nil }

// BettingRecommendation is one persisted market call: the chosen side, the
// model's probability against the price's break-even, and the conviction tier
// assigned from the capped edge.
type BettingRecommendation struct {
	BatchID string    `json:"batchId" column:"batch_id" dbtype:"TEXT NOT NULL" primary:"true" index:"true"`
	Market  BetMarket `json:"market" column:"market" dbtype:"TEXT NOT NULL" primary:"true"`

	Side      BetSide        `json:"side" column:"side" dbtype:"TEXT NOT NULL"`
	Line      float64        `json:"line" column:"line" dbtype:"REAL DEFAULT 0.0"`
	Price     int            `json:"price" column:"price" dbtype:"INTEGER DEFAULT -110"`
	ModelProb float64        `json:"modelProb" column:"model_prob" dbtype:"REAL DEFAULT 0.0"`
	BreakEven float64        `json:"breakEven" column:"break_even" dbtype:"REAL DEFAULT 0.0"`
	Edge      float64        `json:"edge" column:"edge" dbtype:"REAL DEFAULT 0.0"`
	Tier      ConvictionTier `json:"tier" column:"tier" dbtype:"TEXT DEFAULT 'PASS'"`

	CreatedAt time.Time `json:"createdAt" column:"created_at" dbtype:"DATETIME DEFAULT CURRENT_TIMESTAMP"`
}

func (b *BettingRecommendation) GetTableName() string { return "betting_recommendation" }

func (b *BettingRecommendation) GetPrimaryKey() map[string]interface{} {
	return map[string]any{"batch_id": b.BatchID, "market": string(b.Market)}
}

func (b *BettingRecommendation) SetPrimaryKey(pk map[string]interface{}) error {
	id, ok := pk["batch_id"].(string)
	if !ok {
		return fmt.Errorf("primary key 'batch_id' must be a string")
	}
	market, ok := pk["market"].(string)
	if !ok {
		return fmt.Errorf("primary key 'market' must be a string")
	}
	b.BatchID = id
	b.Market = BetMarket(market)
	return nil
}

func (b *BettingRecommendation) BeforeSave() error {
	if b.BatchID == "" {
		return fmt.Errorf("recommendation has no batch id")
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	return nil
}

func (b *BettingRecommendation) AfterSave() error    { return nil }
func (b *BettingRecommendation) BeforeDelete() error { return nil }
func (b *BettingRecommendation) AfterDelete() error  { return nil }

// recommend picks the better side of a two-way market at a single price and
// assigns a tier from the capped edge.
func recommend(batchID string, market BetMarket, line float64, price int,
	prob float64, a, b BetSide, cfg *SimConfig) *BettingRecommendation {

	breakEven := BreakEvenProbability(price)
	side, modelProb := a, prob
	if 1-prob > prob {
		side, modelProb = b, 1-prob
	}

	edge := CapEdge(modelProb-breakEven, cfg)
	return &BettingRecommendation{
		BatchID:   batchID,
		Market:    market,
		Side:      side,
		Line:      line,
		Price:     price,
		ModelProb: modelProb,
		BreakEven: breakEven,
		Edge:      edge,
		Tier:      TierFor(edge, cfg),
	}
}

// Summarize derives the persisted result and the per-market recommendations
// from a completed batch and its centered transform. Prices default to the
// configured price when zero.
func Summarize(batch *SimulationBatch, centered *CenteredBatch,
	homeTeam, awayTeam string, season, week int,
	spreadPrice, totalPrice int, cfg *SimConfig) (*SimulationResult, []*BettingRecommendation) {

	if spreadPrice == 0 {
		spreadPrice = cfg.DefaultPrice
	}
	if totalPrice == 0 {
		totalPrice = cfg.DefaultPrice
	}

	coverProb, coverPushes := CoverProbability(centered)
	overProb, overPushes := OverProbability(centered)

	result := &SimulationResult{
		BatchID:  batch.ID,
		HomeTeam: homeTeam,
		AwayTeam: awayTeam,
		Season:   season,
		Week:     week,

		Trials:   batch.Completed,
		Failed:   batch.Failed,
		BaseSeed: batch.BaseSeed,

		MarketSpread: centered.MarketSpread,
		MarketTotal:  centered.MarketTotal,

		RawSpreadMean:       centered.RawSpreadMean,
		RawSpreadStdev:      centered.RawSpreadStdev,
		RawTotalMean:        centered.RawTotalMean,
		RawTotalStdev:       centered.RawTotalStdev,
		CenteredSpreadStdev: centered.SpreadStdev(),
		CenteredTotalStdev:  centered.TotalStdev(),

		CenterScale:        centered.Scale,
		CenterScaleClipped: centered.ScaleClipped,
		CenterDegenerate:   centered.Degenerate,

		CoverProb:   coverProb,
		CoverPushes: coverPushes,
		OverProb:    overProb,
		OverPushes:  overPushes,
	}

	recs := []*BettingRecommendation{
		recommend(batch.ID, MarketSpread, centered.MarketSpread, spreadPrice,
			coverProb, SideHome, SideAway, cfg),
		recommend(batch.ID, MarketTotal, centered.MarketTotal, totalPrice,
			overProb, SideOver, SideUnder, cfg),
	}

	for _, rec := range recs {
		logger.Info("recommendation", string(rec.Market), string(rec.Side),
			rec.ModelProb, rec.Edge, string(rec.Tier))
	}
	return result, recs
}
