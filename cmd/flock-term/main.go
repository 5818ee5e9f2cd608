package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/gdamore/tcell/v2"
	"github.com/lao-tseu-is-alive/go-flock-simulation/internal/simulation"
	"github.com/lao-tseu-is-alive/go-flock-simulation/internal/term"
	golog "github.com/tochemey/goakt/v3/log"
)

func main() {
	configFile := flag.String("config", "configs/flock.json", "JSON configuration file, empty for the defaults")
	schemaFile := flag.String("schema", "", "JSON schema file, empty for the embedded one")
	logFile := flag.String("log", "", "write logs to this file, they are discarded otherwise")
	flag.Parse()

	if err := run(*configFile, *schemaFile, *logFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configFile, schemaFile, logFile string) error {
	cfg, err := simulation.LoadConfigOrDefault(configFile, schemaFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// the terminal belongs to tcell, logs go to a file or nowhere
	var logger golog.Logger = golog.DiscardLogger
	if logFile != "" {
		f, err := os.Create(logFile)
		if err != nil {
			return err
		}
		defer f.Close()
		logger = golog.New(golog.InfoLevel, f)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	host, err := simulation.StartHost(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("start flock: %w", err)
	}
	defer host.Stop(context.Background())

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	return term.NewApp(host, screen).Run(ctx)
}
