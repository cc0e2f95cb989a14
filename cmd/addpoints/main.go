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

	"github.com/joho/godotenv"

	"addpoints/pkg/catalog"
	"addpoints/pkg/config"
	"addpoints/pkg/db"
	"addpoints/pkg/logging"
	"addpoints/pkg/player"
	"addpoints/pkg/request"
	"addpoints/pkg/session"
	"addpoints/pkg/store"
	"addpoints/pkg/tracker"
	"addpoints/pkg/tts"
	"addpoints/pkg/tts/azure"
	"addpoints/pkg/tts/edgetts"
	"addpoints/pkg/version"
	"addpoints/pkg/voice"
)

var (
	configPath    = flag.String("config", "configs/addpoints.yaml", "Path to the config file")
	initConfig    = flag.Bool("init-config", false, "Generate default config file and exit")
	refreshVoices = flag.Bool("refresh-voices", false, "Force a refresh of the voice catalog")
)

func main() {
	flag.Parse()

	if *initConfig {
		if err := config.GenerateDefault(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config file generated: %s\n", *configPath)
		return
	}

	if err := run(context.Background(), *configPath, *refreshVoices); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, refresh bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Credentials may live in a .env file next to the binary.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	tts.SetLogPath(cfg.History.TTS.Path)
	tts.SetEnabled(cfg.History.TTS.Enabled)

	if err := cfg.Validate(); err != nil {
		return err
	}

	slog.Info("addpoints started", "version", version.Version, "engine", cfg.TTS.Engine)

	dbConn, err := db.Init(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	st := store.NewSQLiteStore(dbConn)
	defer st.Close()

	tr := tracker.New()
	reqClient := request.New(cfg.Request, tr)

	provider, err := newProvider(cfg, reqClient, tr)
	if err != nil {
		return err
	}

	catSvc := catalog.NewService(provider, st, time.Duration(cfg.Catalog.RefreshInterval))
	cat, err := catSvc.Load(ctx, refresh)
	if err != nil {
		return fmt.Errorf("failed to load voice catalog: %w", err)
	}

	pl, err := player.New(cfg.Player)
	if err != nil {
		return err
	}

	selector := voice.NewSelector(cat, cfg.Catalog.MinVoiceCount, nil)
	sess := session.New(cfg, cat, selector, provider, pl, st, os.Stdin, os.Stdout)

	// Ctrl+C unblocks pending synthesis/playback and lets deferred cleanup run.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Shutdown signal received")
		cancel()
	}()

	err = sess.Run(ctx)

	for provider, stats := range tr.Snapshot() {
		slog.Info("API usage", "provider", provider, "success", stats.APISuccess, "failures", stats.APIFailures)
	}

	return err
}

// newProvider builds the TTS engine selected in the config.
func newProvider(cfg *config.Config, rc *request.Client, tr *tracker.Tracker) (tts.Provider, error) {
	switch cfg.TTS.Engine {
	case "azure-speech":
		return azure.NewProvider(cfg.TTS.AzureSpeech, rc, tr), nil
	case "edge-tts":
		return edgetts.NewProvider(tr), nil
	default:
		return nil, fmt.Errorf("unknown tts engine %q (options: azure-speech, edge-tts)", cfg.TTS.Engine)
	}
}
