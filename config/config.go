package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Fetch backends.
const (
	BackendHTTP    = "http"
	BackendBrowser = "browser"
)

// Run phases.
const (
	PhaseAll      = "all"
	PhaseDiscover = "discover"
	PhaseExtract  = "extract"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresEnabled  bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	DiscoveryWorkers  int
	ExtractionWorkers int
	RequestTimeout    time.Duration
	MaxPages          int
	MaxRPS            float64

	RateLimitCooldown   time.Duration
	RateLimitMaxRetries int

	PageDelayMin   time.Duration
	PageDelayMax   time.Duration
	DetailDelayMin time.Duration
	DetailDelayMax time.Duration

	FetchBackend string
	ChromeBin    string
	RunPhase     string

	URLsOutputPath string
	CSVOutputPath  string
	NullMarker     string
	CatalogPath    string

	LogLevel string
	LogColor bool
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "harvester"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "harvester"),
		PostgresDB:       getEnv("POSTGRES_DB", "listings_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		DiscoveryWorkers:  getEnvInt("DISCOVERY_WORKERS", 20),
		ExtractionWorkers: getEnvInt("EXTRACTION_WORKERS", 20),
		RequestTimeout:    time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 15)) * time.Second,
		MaxPages:          getEnvInt("MAX_PAGES", 50),
		MaxRPS:            getEnvFloat("MAX_RPS", 0),

		RateLimitCooldown:   getEnvMillis("RATE_LIMIT_COOLDOWN_MS", 5000),
		RateLimitMaxRetries: getEnvInt("RATE_LIMIT_MAX_RETRIES", 0),

		PageDelayMin:   getEnvMillis("PAGE_DELAY_MIN_MS", 100),
		PageDelayMax:   getEnvMillis("PAGE_DELAY_MAX_MS", 300),
		DetailDelayMin: getEnvMillis("DETAIL_DELAY_MIN_MS", 500),
		DetailDelayMax: getEnvMillis("DETAIL_DELAY_MAX_MS", 1000),

		FetchBackend: strings.ToLower(getEnv("FETCH_BACKEND", BackendHTTP)),
		ChromeBin:    getEnv("CHROME_BIN", ""),
		RunPhase:     strings.ToLower(getEnv("RUN_PHASE", PhaseAll)),

		URLsOutputPath: getEnv("URLS_OUTPUT_PATH", "./output/all_provinces_links.txt"),
		CSVOutputPath:  getEnv("CSV_OUTPUT_PATH", "./output/listings.csv"),
		NullMarker:     getEnv("NULL_MARKER", "None"),
		CatalogPath:    getEnv("CATALOG_PATH", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogColor: getEnvBool("LOG_COLOR", true),
	}
}

// Validate checks the settings that would make a run meaningless.
func (c *Config) Validate() error {
	if c.DiscoveryWorkers < 1 || c.ExtractionWorkers < 1 {
		return fmt.Errorf("config: worker counts must be positive (discovery=%d, extraction=%d)",
			c.DiscoveryWorkers, c.ExtractionWorkers)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("config: request timeout must be positive")
	}
	if c.MaxPages < 1 {
		return fmt.Errorf("config: MAX_PAGES must be at least 1")
	}
	if c.PageDelayMax < c.PageDelayMin || c.DetailDelayMax < c.DetailDelayMin {
		return fmt.Errorf("config: delay ranges must have max >= min")
	}
	switch c.FetchBackend {
	case BackendHTTP, BackendBrowser:
	default:
		return fmt.Errorf("config: unknown FETCH_BACKEND %q", c.FetchBackend)
	}
	switch c.RunPhase {
	case PhaseAll, PhaseDiscover, PhaseExtract:
	default:
		return fmt.Errorf("config: unknown RUN_PHASE %q", c.RunPhase)
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

func getEnvMillis(key string, fallback int) time.Duration {
	return time.Duration(getEnvInt(key, fallback)) * time.Millisecond
}
