// Command vmtrun runs a scenario to completion (or until interrupted),
// following the shape of the teacher binary's main: build a logger, open
// collaborators, wire them to the core, run, report a summary on exit.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	humanize "github.com/dustin/go-humanize"
	isatty "github.com/mattn/go-isatty"

	"github.com/vmtsim/vmt/internal/loader"
	"github.com/vmtsim/vmt/internal/telemetry"
	"github.com/vmtsim/vmt/internal/vmtcore/agent"
	"github.com/vmtsim/vmt/internal/vmtcore/grid"
	"github.com/vmtsim/vmt/internal/vmtcore/rng"
	"github.com/vmtsim/vmt/internal/vmtcore/sim"
)

func main() {
	scenarioPath := flag.String("scenario", "", "path to a scenario YAML file")
	seedOverride := flag.Int64("seed", 0, "override the scenario's run seed (0 = use scenario's own seed)")
	maxTicks := flag.Int64("max-ticks", -1, "stop after this many ticks (-1 = run until interrupted)")
	dbPath := flag.String("telemetry-db", "", "path to a SQLite file for the event stream (empty disables telemetry)")
	flag.Parse()

	logger := slog.New(newHandler(os.Stdout))
	slog.SetDefault(logger)

	if *scenarioPath == "" {
		slog.Error("missing required flag", "flag", "-scenario")
		os.Exit(1)
	}

	cfg, seed, err := loader.Load(*scenarioPath)
	if err != nil {
		slog.Error("failed to load scenario", "path", *scenarioPath, "err", err)
		os.Exit(1)
	}
	if *seedOverride != 0 {
		seed = *seedOverride
	}
	slog.Info("scenario loaded", "name", cfg.Name, "agents", cfg.Agents, "n", cfg.N, "seed", seed)

	root := rng.NewRoot(seed)
	g := grid.Generate(grid.GenConfig{
		N: cfg.N, Seed: seed,
		Density: cfg.ResourceSeed.Density, Amount: cfg.ResourceSeed.Amount,
	})
	agents := agent.NewSpawner(cfg, root.Rand()).SpawnAll(g)

	scheduler := sim.NewScheduler(cfg, g, agents)

	var sink *telemetry.Sink
	if *dbPath != "" {
		sink, err = telemetry.Open(*dbPath)
		if err != nil {
			slog.Error("failed to open telemetry sink", "err", err)
			os.Exit(1)
		}
		defer sink.Close()
		slog.Info("telemetry enabled", "run_id", sink.RunID())

		subID, ch := scheduler.Subscribe()
		defer scheduler.Unsubscribe(subID)
		go func() {
			if err := sink.Drain(ch); err != nil {
				slog.Error("telemetry drain failed", "err", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	if err := runUntil(ctx, scheduler, *maxTicks); err != nil {
		slog.Error("run aborted", "err", err, "tick", scheduler.Tick)
		os.Exit(1)
	}

	elapsed := time.Since(start)
	fmt.Printf("Run finished after %s ticks in %s.\n", humanize.Comma(int64(scheduler.Tick)), elapsed.Round(time.Millisecond))
	fmt.Printf("Trades settled: %s  Pairs formed: %s  Pairs failed: %s  Units harvested: %s\n",
		humanize.Comma(int64(scheduler.Stats.TradesSettled)),
		humanize.Comma(int64(scheduler.Stats.PairsFormed)),
		humanize.Comma(int64(scheduler.Stats.PairsFailed)),
		humanize.Comma(int64(scheduler.Stats.UnitsHarvested)))
}

// runUntil steps the scheduler until maxTicks is reached (maxTicks < 0
// runs forever), an invariant violation aborts the run, or ctx is
// cancelled by a signal — in the latter case the current tick is
// allowed to finish so no event stream is left mid-tick, mirroring the
// teacher binary's "stop after current tick" shutdown contract.
func runUntil(ctx context.Context, s *sim.Scheduler, maxTicks int64) error {
	for maxTicks < 0 || int64(s.Tick) < maxTicks {
		select {
		case <-ctx.Done():
			slog.Info("shutdown requested, stopping after current tick", "tick", s.Tick)
			return nil
		default:
		}
		if err := s.Step(); err != nil {
			return err
		}
	}
	return nil
}

// newHandler picks a human-readable text handler for an interactive
// terminal and a JSON handler otherwise, so output piped to a file or a
// collaborator process stays machine-parseable.
func newHandler(f *os.File) slog.Handler {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if isatty.IsTerminal(f.Fd()) {
		return slog.NewTextHandler(f, opts)
	}
	return slog.NewJSONHandler(f, opts)
}
