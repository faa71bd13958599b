package commands

import (
	"time"

	"reviewharvest/internal/selectors"
	"reviewharvest/lib/configutil"
	configsqlite "reviewharvest/lib/configutil/sqlite"
	"reviewharvest/lib/telemetry"
)

type RetryConfig struct {
	Attempts int                 `json:"attempts"`
	Delay    configutil.Duration `json:"delay"`
}

type NavigationConfig struct {
	LoadTimeout     configutil.Duration `json:"load_timeout"`
	LandmarkTimeout configutil.Duration `json:"landmark_timeout"`
}

type PaginationConfig struct {
	MaxPages  int                 `json:"max_pages"`
	Deadline  configutil.Duration `json:"deadline"`
	JitterMin configutil.Duration `json:"jitter_min"`
	JitterMax configutil.Duration `json:"jitter_max"`
}

type HttpConfig struct {
	// requests per second
	RateLimit float64 `json:"rate_limit"`
	Bypass    bool    `json:"bypass"`
	// if set, every http exchange is written to this directory
	DumpDir      string              `json:"dump_dir"`
	PollInterval configutil.Duration `json:"poll_interval"`
}

type Config struct {
	Targets     []string `json:"targets"`
	Headless    bool     `json:"headless"`
	Concurrency int      `json:"concurrency"`
	UserAgents  []string `json:"user_agents"`

	Retry      RetryConfig         `json:"retry"`
	Navigation NavigationConfig    `json:"navigation"`
	Pagination PaginationConfig    `json:"pagination"`
	Http       HttpConfig          `json:"http"`
	Database   configsqlite.Struct `json:"database"`
	Selectors  selectors.Map       `json:"selectors"`
	Log        telemetry.LogConfig `json:"log"`
}

func DefaultConfig() Config {
	return Config{
		Concurrency: 1,
		UserAgents: []string{
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36",
			"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:107.0) Gecko/20100101 Firefox/107.0",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:107.0) Gecko/20100101 Firefox/107.0",
		},
		Retry: RetryConfig{
			Attempts: 3,
			Delay:    configutil.Duration(5 * time.Second),
		},
		Navigation: NavigationConfig{
			LoadTimeout:     configutil.Duration(90 * time.Second),
			LandmarkTimeout: configutil.Duration(45 * time.Second),
		},
		Pagination: PaginationConfig{
			MaxPages:  200,
			Deadline:  configutil.Duration(15 * time.Minute),
			JitterMin: configutil.Duration(1 * time.Second),
			JitterMax: configutil.Duration(2 * time.Second),
		},
		Http: HttpConfig{
			RateLimit:    2,
			PollInterval: configutil.Duration(2 * time.Second),
		},
		Database: configsqlite.Struct{
			File: "data/products.db",
		},
		Selectors: selectors.Default(),
		Log: telemetry.LogConfig{
			Level: "info",
			File:  "logs/harvest.log",
		},
	}
}

// LoadConfig reads `path` (and its .local override) over DefaultConfig, a
// missing file leaves the defaults as they are.
func LoadConfig(path string) (Config, error) {
	return configutil.ReadWithDefaults(path, DefaultConfig())
}
