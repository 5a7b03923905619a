package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config contains all configurable parameters for the analytics backend.
// This centralizes all magic numbers and paths for easy adjustment.
type Config struct {
	// HTTP server settings
	ListenAddr     string        `yaml:"listenAddr"`     // address the API listens on (default: ":8000")
	RequestTimeout time.Duration `yaml:"requestTimeout"` // overall per-request deadline (default: 30s)

	// Database settings
	DatabasePath string `yaml:"databasePath"` // location of the sqlite database

	// === PREDICTION ENGINE ===

	// The engine is an external executable invoked once per request with
	// four positional arguments: home team, away team, home season code,
	// away season code. Its stdout must be a single JSON document.
	EngineCommand string        `yaml:"engineCommand"` // interpreter or binary (default: "python3")
	EngineArgs    []string      `yaml:"engineArgs"`    // fixed leading arguments, e.g. the script path
	EngineTimeout time.Duration `yaml:"engineTimeout"` // wall-clock limit per invocation (default: 20s)

	// Number of most recent matches per team passed to the engine as
	// optional context. Zero disables context gathering entirely.
	ContextMatches int `yaml:"contextMatches"`

	// === LIVE DATA PROVIDER ===

	LiveAPIBaseURL   string `yaml:"liveApiBaseUrl"`   // football-data.org v4 base URL
	LiveAPIKey       string `yaml:"liveApiKey"`       // X-Auth-Token value; empty enables the scrape fallback
	LiveCompetition  string `yaml:"liveCompetition"`  // competition code (default: "PL")
	StandingsPageURL string `yaml:"standingsPageUrl"` // public HTML standings table used when no API key is set
}

// Default returns the default configuration with all standard values
func Default() *Config {
	return &Config{
		ListenAddr:     ":8000",
		RequestTimeout: 30 * time.Second,

		DatabasePath: "futstat.db",

		EngineCommand:  "python3",
		EngineArgs:     []string{"MLModelTraining/predict_matches.py"},
		EngineTimeout:  20 * time.Second,
		ContextMatches: 6,

		LiveAPIBaseURL:   "https://api.football-data.org/v4",
		LiveCompetition:  "PL",
		StandingsPageURL: "https://www.bbc.co.uk/sport/football/premier-league/table",
	}
}

// UnmarshalYAML merges a YAML document over whatever is already in the
// Config. Durations are written as Go duration strings ("20s", "1m30s");
// yaml.v3 has no native time.Duration support, hence the string mirror.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	type rawConfig struct {
		ListenAddr       *string   `yaml:"listenAddr"`
		RequestTimeout   *string   `yaml:"requestTimeout"`
		DatabasePath     *string   `yaml:"databasePath"`
		EngineCommand    *string   `yaml:"engineCommand"`
		EngineArgs       *[]string `yaml:"engineArgs"`
		EngineTimeout    *string   `yaml:"engineTimeout"`
		ContextMatches   *int      `yaml:"contextMatches"`
		LiveAPIBaseURL   *string   `yaml:"liveApiBaseUrl"`
		LiveAPIKey       *string   `yaml:"liveApiKey"`
		LiveCompetition  *string   `yaml:"liveCompetition"`
		StandingsPageURL *string   `yaml:"standingsPageUrl"`
	}

	var raw rawConfig
	if err := value.Decode(&raw); err != nil {
		return err
	}

	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setDuration := func(dst *time.Duration, src *string) error {
		if src == nil {
			return nil
		}
		d, err := time.ParseDuration(*src)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", *src, err)
		}
		*dst = d
		return nil
	}

	setString(&c.ListenAddr, raw.ListenAddr)
	setString(&c.DatabasePath, raw.DatabasePath)
	setString(&c.EngineCommand, raw.EngineCommand)
	setString(&c.LiveAPIBaseURL, raw.LiveAPIBaseURL)
	setString(&c.LiveAPIKey, raw.LiveAPIKey)
	setString(&c.LiveCompetition, raw.LiveCompetition)
	setString(&c.StandingsPageURL, raw.StandingsPageURL)
	if raw.EngineArgs != nil {
		c.EngineArgs = *raw.EngineArgs
	}
	if raw.ContextMatches != nil {
		c.ContextMatches = *raw.ContextMatches
	}
	if err := setDuration(&c.RequestTimeout, raw.RequestTimeout); err != nil {
		return err
	}
	return setDuration(&c.EngineTimeout, raw.EngineTimeout)
}

// Load reads a YAML config file over the defaults. A missing file is not an
// error; the defaults are used unchanged. The environment override applies
// whether or not a file was found.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through to the defaults
		case err != nil:
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", path, err)
			}
		}
	}
	if env := os.Getenv("FUTSTAT_LIVE_API_KEY"); env != "" {
		cfg.LiveAPIKey = env
	}
	return cfg, nil
}
