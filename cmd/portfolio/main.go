package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"main/internal/feed"
	"main/internal/market"
	"main/internal/ops"
	"main/internal/oracle"
	"main/internal/position"
	"main/internal/valuation"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
)

func main() {
	if err := run(); err != nil {
		logs.Errorf("portfolio: %+v", err)
		os.Exit(1)
	}
}

func run() error {
	configFlag := flag.String("config", "config.json", "config file path")
	positionsFlag := flag.String("positions", "positions.json", "open position snapshot path")
	profileFlag := flag.String("profile", "", "pyroscope server address (optional)")
	flag.Parse()

	cfg, err := ops.Load(*configFlag)
	if err != nil {
		return errors.Wrap(err, "load config")
	}
	positions, err := loadPositions(*positionsFlag, cfg)
	if err != nil {
		return errors.Wrap(err, "load positions")
	}

	if *profileFlag != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "portfolio",
			ServerAddress:   *profileFlag,
			Logger:          emptyLogger{},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			return errors.Wrap(err, "start profiler")
		}
		defer func() { _ = profiler.Stop() }()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	manager, err := feed.NewManager(feed.Config{
		Dialer:         feed.NewDialer(cfg.Stream.Host, cfg.Stream.Port, cfg.Stream.Path),
		ReconnectDelay: cfg.ReconnectDelay,
	})
	if err != nil {
		return errors.Wrap(err, "build feed manager")
	}
	defer manager.Close()

	feedByPair := cfg.FeedByPair()
	warm := warmPrices(ctx, cfg, positions, feedByPair)

	lookup := func(pairIndex int) (float64, bool) {
		if price, ok := manager.PairPrice(pairIndex); ok {
			return price, true
		}
		id, ok := feedByPair[pairIndex]
		if !ok {
			return 0, false
		}
		price, ok := warm[id]
		return price, ok
	}

	engine := valuation.NewEngine(cfg.FlatFeeRate)
	manager.OnPriceUpdate(func(id oracle.FeedID, unitPrice float64) {
		totals := valuation.Aggregate(positions, engine, lookup)
		logs.Infof("tick %s=%.6f | collateral: %.2f, net pnl: %.2f, positions: %d, pending: %d",
			id, unitPrice, totals.Collateral, totals.NetPnl, totals.Positions, totals.Pending)
	})

	manager.SetActiveFeeds(activeFeeds(positions, feedByPair))
	logs.Infof("tracking %d positions across %d pairs", len(positions), len(cfg.Pairs))

	<-ctx.Done()
	snap := manager.Metrics()
	logs.Infof("shutting down, samples: %d, drops: %d, reconnects: %d",
		snap.Samples, snap.DecodeDrops+snap.FrameDrops, snap.Reconnects)
	return nil
}

func loadPositions(path string, cfg ops.Loaded) ([]position.Position, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []position.RawRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}

	positions := make([]position.Position, 0, len(records))
	for _, rec := range records {
		pos, err := position.FromRaw(rec)
		if err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("position %d:%d", rec.PairIndex, rec.Index))
		}
		pair, ok := cfg.Pairs[pos.PairIndex]
		if !ok {
			return nil, errors.Errorf("position %d:%d references unknown pair", rec.PairIndex, rec.Index)
		}
		if err := pos.ValidateLeverage(pair.MinLeverage, pair.MaxLeverage); err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("position %d:%d", rec.PairIndex, rec.Index))
		}
		if pair.ClosingFeeRate > 0 {
			pos.Fees = &position.FeeSchedule{ClosingFeeRate: pair.ClosingFeeRate}
		}
		positions = append(positions, pos)
	}
	return positions, nil
}

// activeFeeds derives the required feed set from the open positions:
// several pairs may resolve to one feed id.
func activeFeeds(positions []position.Position, feedByPair map[int]oracle.FeedID) map[oracle.FeedID][]int {
	feeds := make(map[oracle.FeedID][]int)
	for _, pos := range positions {
		id, ok := feedByPair[pos.PairIndex]
		if !ok {
			continue
		}
		feeds[id] = append(feeds[id], pos.PairIndex)
	}
	return feeds
}

// warmPrices seeds the lookup with a REST snapshot so valuations do not
// all start pending while the stream warms up. Failure is not fatal.
func warmPrices(ctx context.Context, cfg ops.Loaded, positions []position.Position, feedByPair map[int]oracle.FeedID) map[oracle.FeedID]float64 {
	if cfg.Stream.SnapshotURL == "" {
		return nil
	}

	seen := make(map[oracle.FeedID]struct{})
	ids := make([]oracle.FeedID, 0, len(positions))
	for _, pos := range positions {
		id, ok := feedByPair[pos.PairIndex]
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	prices, err := market.NewSnapshotClient(cfg.Stream.SnapshotURL).Latest(ctx, ids)
	if err != nil {
		logs.Errorf("warm price snapshot, err: %+v", err)
		return nil
	}
	return prices
}

type emptyLogger struct{}

func (emptyLogger) Infof(_ string, _ ...interface{})  {}
func (emptyLogger) Debugf(_ string, _ ...interface{}) {}
func (emptyLogger) Errorf(_ string, _ ...interface{}) {}
