// Package commands wires configuration, the store, the simulator, and the
// reconciler into the shelfwatch CLI entrypoint.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/retailops/shelfwatch/pkg/application/services/reconcile"
	"github.com/retailops/shelfwatch/pkg/application/services/simulation"
	"github.com/retailops/shelfwatch/pkg/infrastructure/config"
	"github.com/retailops/shelfwatch/pkg/infrastructure/events"
	"github.com/retailops/shelfwatch/pkg/infrastructure/store"
	"github.com/retailops/shelfwatch/pkg/infrastructure/transport/natsfeed"
	"github.com/retailops/shelfwatch/pkg/interfaces/cli/output"
)

// Config holds configuration for the run command.
type Config struct {
	ConfigFile     string
	Duration       time.Duration
	RenderInterval time.Duration
	Seed           int64
	Demo           bool
	Verbose        bool
	Help           bool
}

// RunCommand drives the monitoring loop from the terminal.
type RunCommand struct {
	config Config
}

// NewRunCommand creates a run command with the given configuration.
func NewRunCommand(config Config) *RunCommand {
	return &RunCommand{config: config}
}

// Execute generates the mock store, starts the reconciler, and renders the
// dashboard until the duration elapses or ctx is cancelled.
func (c *RunCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.showHelp()
		return nil
	}

	level := slog.LevelWarn
	if c.config.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	seed := c.config.Seed
	if seed == 0 {
		seed = cfg.Simulation.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	sim := simulation.New(seed)
	shelves, err := sim.GenerateMockShelves()
	if err != nil {
		return fmt.Errorf("generate shelves: %w", err)
	}

	log := events.NewInMemoryLog()
	st := store.New(store.State{}, log)
	defer st.Close()
	st.Dispatch(store.Initialize{
		Shelves: shelves,
		Alerts:  sim.GenerateAlertsFromShelves(shelves),
	})

	sources := []reconcile.UpdateSource{
		reconcile.NewPushSource(cfg.Push.Interval, cfg.Push.Probability, sim, st),
		reconcile.NewPollSource(cfg.Poll.Interval, cfg.Poll.Probability, sim, st),
	}
	if cfg.NATS.URL != "" {
		sources = append(sources, natsfeed.New(cfg.NATS.URL, cfg.NATS.Subject, logger))
	}

	rec := reconcile.New(st, sim, sources, reconcile.Config{RescanLatency: cfg.Rescan.Latency}, logger)
	if err := rec.Start(ctx); err != nil {
		return fmt.Errorf("start reconciler: %w", err)
	}
	defer rec.Stop()

	if c.config.Demo {
		runner := reconcile.NewScenarioRunner(rec, st, logger)
		if err := runner.Start(ctx, sim.DemoScenario()); err != nil {
			return fmt.Errorf("start demo scenario: %w", err)
		}
		defer runner.Cancel()
	}

	return c.renderLoop(ctx, st, rec, log)
}

func (c *RunCommand) loadConfig() (*config.Config, error) {
	if c.config.ConfigFile == "" {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.LoadFromFile(c.config.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func (c *RunCommand) renderLoop(ctx context.Context, st *store.Store, rec *reconcile.Reconciler, log *events.InMemoryLog) error {
	deadline := time.NewTimer(c.config.Duration)
	defer deadline.Stop()
	ticker := time.NewTicker(c.config.RenderInterval)
	defer ticker.Stop()

	render := func() {
		output.RenderDashboard(os.Stdout, st.Snapshot(), rec.Stats(), time.Now())
	}
	render()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-deadline.C:
			render()
			fmt.Printf("Recorded %d state transitions, %d events\n", st.Transitions(), log.Len())
			return nil
		case <-ticker.C:
			render()
		}
	}
}

// showHelp displays the help message
func (c *RunCommand) showHelp() {
	fmt.Printf(`shelfwatch - retail shelf inventory monitor

USAGE:
    shelfwatch [flags]

FLAGS:
    -config <file>     Path to YAML configuration (optional)
    -duration <d>      How long to run before exiting (default: 30s)
    -interval <d>      Dashboard refresh interval (default: 2s)
    -seed <n>          Random seed for reproducible simulation (default: time-based)
    -demo              Replay the scripted demo scenario
    -verbose           Enable debug logging
    -help              Show this help message

CONFIG FILE:
    simulation:
      seed: 42
    push:
      interval: 5s
      probability: 0.4
    poll:
      interval: 10s
      probability: 0.3
    rescan:
      latency: 800ms
    detection:
      min_confidence: 0.3
    nats:
      url: nats://localhost:4222
      subject: shelfwatch.scans

EXAMPLES:
    # Run the simulated store for a minute
    shelfwatch -duration 1m -seed 42

    # Replay the scripted demo
    shelfwatch -demo -verbose

    # Consume live scan updates from NATS
    shelfwatch -config shelfwatch.yaml
`)
}
