package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// minServersToTest is the floor applied to SERVERS_TO_TEST. The public feeds
// carry tens of thousands of links and their quality is poor; testing fewer
// than this leaves the selected pool starved after the latency gate.
const minServersToTest = 1000

type Config struct {
	// App Settings
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`
	DBPath   string `envconfig:"DB_PATH" default:"./data/pimx.db"`

	// Harvesting
	SourcesFile   string        `envconfig:"SOURCES_FILE" default:""`
	ServersToTest int           `envconfig:"SERVERS_TO_TEST" default:"1000"`
	FetchTimeout  time.Duration `envconfig:"SOURCE_FETCH_TIMEOUT" default:"15s"`

	// Probing
	TestTimeout    time.Duration `envconfig:"TEST_TIMEOUT" default:"3s"`
	MaxLatencyMS   int           `envconfig:"MAX_LATENCY_MS" default:"2000"`
	MaxConcurrency int           `envconfig:"MAX_CONCURRENCY" default:"80"`

	// Scan cadence and selection band
	ScanInterval time.Duration `envconfig:"SCAN_INTERVAL" default:"1h"`
	MinSelected  int           `envconfig:"MIN_SELECTED_SERVERS" default:"100"`
	MaxSelected  int           `envconfig:"MAX_SELECTED_SERVERS" default:"150"`

	// Geo enrichment
	GeoAPIBaseURL string `envconfig:"GEO_API_URL" default:"http://ip-api.com"`
	GeoIPPath     string `envconfig:"GEOIP_PATH" default:""`

	// Web API
	WebAddr        string `envconfig:"WEB_ADDR" default:":8080"`
	ServersPerPage int    `envconfig:"SERVERS_PER_PAGE" default:"10"`
	PublicBaseURL  string `envconfig:"PUBLIC_BASE_URL" default:""`
	APIKey         string `envconfig:"API_KEY" default:""`

	// Channel notifications (disabled while BOT_TOKEN is empty)
	BotToken  string `envconfig:"BOT_TOKEN" default:""`
	ChannelID string `envconfig:"CHANNEL_ID" default:""`
}

// Load reads .env and processes environment variables
func Load() *Config {
	// Silently ignore if .env is missing (production might use real ENV vars)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Configuration Error: %v", err)
	}

	if cfg.ServersToTest < minServersToTest {
		cfg.ServersToTest = minServersToTest
	}
	return &cfg
}
