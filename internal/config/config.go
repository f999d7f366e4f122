package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/ltumat/AirQualityPrediction/internal/common"
)

var validate = validator.New()

type AppConfig struct {
	// SensorsFile is the YAML registry the sync patches in place.
	SensorsFile string `validate:"required"`

	// AqicnToken authenticates station feed lookups. Empty is allowed:
	// resolution then goes straight to the public observation endpoint.
	AqicnToken string

	// HTTPTimeout bounds every request to api.waqi.info.
	HTTPTimeout time.Duration `validate:"gt=0"`

	// SyncInterval controls how often serve mode refreshes coordinates.
	SyncInterval time.Duration `validate:"gt=0"`

	// Run-history retention.
	RunMaxHistory int           // max number of run reports per registry (0 = unlimited)
	RunMaxAge     time.Duration // max age of run reports (0 = unlimited)

	Port string `validate:"required"`
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.SensorsFile = getenvDefault("SENSORS_FILE", "sensors/sensors.yml")
	cfg.AqicnToken = common.FirstNonEmpty(os.Getenv("AQI_API_KEY"), os.Getenv("AQICN_API_KEY"))

	// Request timeout: default 20 seconds.
	timeoutStr := getenvDefault("HTTP_TIMEOUT", "20s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	// Serve-mode sync interval: default once a day.
	intervalStr := getenvDefault("SYNC_INTERVAL", "24h")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_INTERVAL: %w", err)
	}
	cfg.SyncInterval = interval

	// Run-history retention.
	cfg.RunMaxHistory = getenvInt("RUN_MAX_HISTORY", 50)

	maxAgeStr := getenvDefault("RUN_MAX_AGE", "168h") // one week
	maxAge, err := time.ParseDuration(maxAgeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid RUN_MAX_AGE: %w", err)
	}
	cfg.RunMaxAge = maxAge
	cfg.Port = getenvDefault("PORT", "8080")

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
