// Command syncd runs scheduled synchronization of equity market data from
// all configured providers into canonical storage.
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

	"github.com/robfig/cron/v3"

	"github.com/lihao-quant/equidata/internal/app"
	"github.com/lihao-quant/equidata/internal/config"
	"github.com/lihao-quant/equidata/internal/model"
	"github.com/lihao-quant/equidata/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/syncd.yaml", "path to config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("syncd", version.String())
		return
	}

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting syncd",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"storage_backend", cfg.Storage.Backend,
		"symbols", len(cfg.Schedule.Symbols),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build engine", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	insts, err := app.ParseInstruments(cfg.Schedule.Symbols)
	if err != nil {
		logger.Error("bad symbol list", "error", err)
		os.Exit(1)
	}

	fields := cfg.Schedule.Fields
	if len(fields) == 0 {
		fields = a.Registry.Fields()
	}

	go a.Engine.RunProbes(ctx, cfg.Sync.ProbeInterval)

	runOnce := func() {
		end := model.DateOf(time.Now().UTC())
		start := end.Add(-cfg.Schedule.LookbackDays)
		req := model.DateRange{Start: start, End: end}

		rep, err := a.Engine.Synchronize(ctx, insts, req, fields, model.Daily)
		if err != nil {
			logger.Error("sync run aborted", "error", err)
			return
		}
		logger.Info("scheduled sync complete",
			"run_id", rep.RunID,
			"committed_days", rep.CommittedDays,
			"conflicts", rep.Conflicts,
			"permanent_gaps", len(rep.PermanentGaps),
		)
	}

	sched := cron.New(cron.WithSeconds())
	if _, err := sched.AddFunc(cfg.Schedule.Cron, runOnce); err != nil {
		logger.Error("bad cron expression", "cron", cfg.Schedule.Cron, "error", err)
		os.Exit(1)
	}
	sched.Start()
	logger.Info("syncd running", "cron", cfg.Schedule.Cron)

	<-ctx.Done()

	logger.Info("shutting down...")
	stopCtx := sched.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
		logger.Warn("in-flight run did not finish before shutdown timeout")
	}
	logger.Info("syncd stopped")
}
