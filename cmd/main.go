package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/StevenRidder/Football-sub002/internal/logger"
	"github.com/StevenRidder/Football-sub002/pkg/gridsim"
)

func main() {
	home := flag.String("home", "", "home team id")
	away := flag.String("away", "", "away team id")
	season := flag.Int("season", 2025, "season year")
	week := flag.Int("week", 1, "prediction week")
	spread := flag.Float64("spread", 0, "market spread, home margin")
	total := flag.Float64("total", 44.5, "market total")
	spreadPrice := flag.Int("spread-price", 0, "American price on the spread, 0 uses the default")
	totalPrice := flag.Int("total-price", 0, "American price on the total, 0 uses the default")
	trials := flag.Int("trials", 0, "trial count override, 0 uses the configured count")
	seed := flag.Uint64("seed", 1, "base seed for the batch")
	dbPath := flag.String("db", "gridsim.db", "sqlite database path")
	configPath := flag.String("config", "", "yaml config path, empty uses defaults")
	tracePath := flag.String("trace", "", "write one traced game's events to this file")
	calibrate := flag.Int("calibrate", 0, "run this many calibration games and exit")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	logger.SetShowDateTime(true)
	logger.SetLogOutput('b')
	if *verbose {
		logger.SetLevel(logger.DEBUG)
	}

	if *home == "" || *away == "" {
		fmt.Fprintln(os.Stderr, "both -home and -away are required")
		flag.Usage()
		os.Exit(2)
	}

	cfg := gridsim.DefaultSimConfig()
	if *configPath != "" {
		loaded, err := gridsim.LoadSimConfig(*configPath)
		if err != nil {
			logger.Error("failed to load config:", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *trials > 0 {
		cfg.Trials = *trials
	}

	if err := gridsim.InitDatabase(*dbPath); err != nil {
		logger.Error("database init failed:", err)
		os.Exit(1)
	}
	defer gridsim.CloseDatabase()

	homeProfile, err := gridsim.LoadTeamProfile(*home, *season, *week)
	if err != nil {
		logger.Error("failed to load home profile:", err)
		os.Exit(1)
	}
	awayProfile, err := gridsim.LoadTeamProfile(*away, *season, *week)
	if err != nil {
		logger.Error("failed to load away profile:", err)
		os.Exit(1)
	}

	sim, err := gridsim.NewGameSimulator(cfg, homeProfile, awayProfile)
	if err != nil {
		logger.Error("simulator setup failed:", err)
		os.Exit(1)
	}

	if *calibrate > 0 {
		sample, err := gridsim.RunCalibration(sim, *calibrate, *seed)
		if err != nil {
			logger.Error("calibration run failed:", err)
			os.Exit(1)
		}
		results := gridsim.EvaluateCalibration(sample, gridsim.DefaultCalibrationTargets())
		for _, r := range results {
			fmt.Println(r)
		}
		if !gridsim.CalibrationPasses(results) {
			os.Exit(1)
		}
		return
	}

	if *tracePath != "" {
		f, err := os.Create(*tracePath)
		if err != nil {
			logger.Error("failed to open trace file:", err)
			os.Exit(1)
		}
		tracer := gridsim.NewTracer(f)
		score, err := sim.SimulateOneTraced(*seed, tracer, nil)
		f.Close()
		if err != nil {
			logger.Error("traced game failed:", err)
			os.Exit(1)
		}
		logger.Info("traced game", tracer.GameID(), score.Home, score.Away)
	}

	batch, err := sim.SimulateMany(context.Background(), cfg.Trials, *seed)
	if err != nil {
		logger.Error("simulation failed:", err)
		os.Exit(1)
	}

	centered, err := gridsim.Center(batch, *spread, *total, cfg)
	if err != nil {
		logger.Error("centering failed:", err)
		os.Exit(1)
	}

	result, recs := gridsim.Summarize(batch, centered,
		*home, *away, *season, *week, *spreadPrice, *totalPrice, cfg)

	if err := gridsim.Save(result); err != nil {
		logger.Error("failed to save result:", err)
		os.Exit(1)
	}
	for _, rec := range recs {
		if err := gridsim.Save(rec); err != nil {
			logger.Error("failed to save recommendation:", err)
			os.Exit(1)
		}
	}

	fmt.Printf("%s @ %s (season %d week %d)\n", *away, *home, *season, *week)
	fmt.Printf("trials: %d (failed %d)  seed: %d\n", result.Trials, result.Failed, result.BaseSeed)
	fmt.Printf("raw: spread %.2f sd %.2f, total %.2f sd %.2f\n",
		result.RawSpreadMean, result.RawSpreadStdev, result.RawTotalMean, result.RawTotalStdev)
	fmt.Printf("market: spread %.1f total %.1f (scale %.3f clipped=%v degenerate=%v)\n",
		result.MarketSpread, result.MarketTotal,
		result.CenterScale, result.CenterScaleClipped, result.CenterDegenerate)
	fmt.Printf("cover %.3f (%d pushes), over %.3f (%d pushes)\n",
		result.CoverProb, result.CoverPushes, result.OverProb, result.OverPushes)
	for _, rec := range recs {
		fmt.Printf("%s: %s %.1f at %+d, prob %.3f, edge %+.3f, tier %s\n",
			rec.Market, rec.Side, rec.Line, rec.Price, rec.ModelProb, rec.Edge, rec.Tier)
	}
}
