package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	AemetToken   string
	GrafcanToken string

	// QuestDBAddr is the host:port of the store's ILP write endpoint.
	QuestDBAddr string

	// Poll cadence per provider; backoff stretches it after failures.
	AemetPollInterval   time.Duration
	GrafcanPollInterval time.Duration

	BackoffBase time.Duration
	BackoffMax  time.Duration

	// HTTPTimeout bounds every outbound provider request.
	HTTPTimeout time.Duration

	// GrafcanStationsCron schedules the station registry refresh.
	GrafcanStationsCron string

	Port string
}

// Load reads configuration from environment with sensible defaults. Provider
// tokens may be absent; whether that is fatal is decided per worker at
// startup, never here.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.AemetToken = os.Getenv("AEMET_TOKEN")
	cfg.GrafcanToken = os.Getenv("GRAFCAN_TOKEN")

	host := getenvDefault("QUESTDB_HOST", "climacan-questdb")
	port := getenvDefault("QUESTDB_PORT", "9000")
	cfg.QuestDBAddr = host + ":" + port

	var err error
	if cfg.AemetPollInterval, err = getenvDuration("AEMET_POLL_INTERVAL", "1h"); err != nil {
		return nil, err
	}
	if cfg.GrafcanPollInterval, err = getenvDuration("GRAFCAN_POLL_INTERVAL", "10m"); err != nil {
		return nil, err
	}
	if cfg.BackoffBase, err = getenvDuration("BACKOFF_BASE", "30s"); err != nil {
		return nil, err
	}
	if cfg.BackoffMax, err = getenvDuration("BACKOFF_MAX", "15m"); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "20s"); err != nil {
		return nil, err
	}

	if cfg.BackoffBase <= 0 || cfg.BackoffMax < cfg.BackoffBase {
		return nil, fmt.Errorf("invalid backoff configuration: base %s, max %s", cfg.BackoffBase, cfg.BackoffMax)
	}

	cfg.GrafcanStationsCron = getenvDefault("GRAFCAN_STATIONS_CRON", "0 23 * * 1,3,5")
	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
