package main

import (
	"flag"
	"log"
	"os"

	"BotBourse/internal/di"
	"BotBourse/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	skipFetch := flag.Bool("skip-fetch", false, "skip the bar fetch and use the stored prices")
	serve := flag.Bool("serve", false, "keep serving the API after the run")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *skipFetch {
		cfg.Fetch.Enabled = false
	}
	if *serve {
		cfg.Server.Enabled = true
	}

	log.Printf("env=%s assets=%d fetch=%v serve=%v", cfg.Environment, len(cfg.Universe), cfg.Fetch.Enabled, cfg.Server.Enabled)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
