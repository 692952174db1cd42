package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/retailops/shelfwatch/pkg/interfaces/cli/commands"
)

func main() {
	// Command line flags
	var (
		configFile = flag.String("config", "", "Path to YAML configuration file (optional)")
		duration   = flag.Duration("duration", 30*time.Second, "How long to run before exiting")
		interval   = flag.Duration("interval", 2*time.Second, "Dashboard refresh interval")
		seed       = flag.Int64("seed", 0, "Random seed for reproducible simulation")
		demo       = flag.Bool("demo", false, "Replay the scripted demo scenario")
		verbose    = flag.Bool("verbose", false, "Enable debug logging")
		help       = flag.Bool("help", false, "Show help message")
	)

	flag.Parse()

	config := commands.Config{
		ConfigFile:     *configFile,
		Duration:       *duration,
		RenderInterval: *interval,
		Seed:           *seed,
		Demo:           *demo,
		Verbose:        *verbose,
		Help:           *help,
	}

	cmd := commands.NewRunCommand(config)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
