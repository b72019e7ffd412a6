package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/fx"

	"github.com/feedsink/feedsink/internal/config"
	"github.com/feedsink/feedsink/internal/daemon"
	"github.com/feedsink/feedsink/internal/paths"
)

func main() {
	configFlag := flag.String("config", "", "path to config.toml (default: <data-dir>/config.toml)")
	dataDirFlag := flag.String("data-dir", "", "data directory (overrides config)")
	flag.Parse()

	// A .env next to the binary is optional; absence is not an error.
	_ = godotenv.Load()

	dataDir := *dataDirFlag
	if dataDir == "" {
		dataDir = paths.DefaultDataDir()
	}

	configPath := *configFlag
	if configPath == "" {
		configPath = paths.ConfigPath(dataDir)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "error: loading config %s: %v\n", configPath, err)
			os.Exit(1)
		}
		cfg = config.Default()
	}
	if *dataDirFlag != "" {
		cfg.DataDir = *dataDirFlag
	}
	if cfg.DataDir == "" {
		cfg.DataDir = dataDir
	}
	cfg.ApplyEnv()

	if cfg.FeedURL == "" {
		fmt.Fprintln(os.Stderr, "error: no feed URL configured (set feed_url in config.toml or the FEED_URL environment variable)")
		os.Exit(1)
	}

	app := fx.New(
		daemon.Module(cfg),
	)

	app.Run()
}
