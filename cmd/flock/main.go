package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/lao-tseu-is-alive/go-flock-simulation/internal/simulation"
	"github.com/lao-tseu-is-alive/go-flock-simulation/internal/viewer"
	golog "github.com/tochemey/goakt/v3/log"
)

func main() {
	configFile := flag.String("config", "configs/flock.json", "JSON configuration file, empty for the defaults")
	schemaFile := flag.String("schema", "", "JSON schema file, empty for the embedded one")
	debug := flag.Bool("debug", false, "log every spawn and flocking step")
	flag.Parse()

	cfg, err := simulation.LoadConfigOrDefault(*configFile, *schemaFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	level := golog.InfoLevel
	if *debug {
		level = golog.DebugLevel
	}
	ctx := context.Background()
	host, err := simulation.StartHost(ctx, cfg, golog.New(level, os.Stdout))
	if err != nil {
		log.Fatalf("Failed to start flock: %v", err)
	}
	defer host.Stop(ctx)

	ebiten.SetWindowSize(cfg.WindowWidth, cfg.WindowHeight)
	ebiten.SetWindowTitle("Boids: 3D Flock")
	ebiten.SetTPS(cfg.TickRate)

	if err := ebiten.RunGame(viewer.NewGame(ctx, host)); err != nil {
		log.Fatal(err)
	}
}
