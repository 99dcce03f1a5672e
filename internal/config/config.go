package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Catalog     CatalogConfig     `yaml:"catalog" mapstructure:"catalog"`
	Eligibility EligibilityConfig `yaml:"eligibility" mapstructure:"eligibility"`
	Scoring     ScoringConfig     `yaml:"scoring" mapstructure:"scoring"`
	Notion      NotionConfig      `yaml:"notion" mapstructure:"notion"`
	Render      RenderConfig      `yaml:"render" mapstructure:"render"`
	Batch       BatchConfig       `yaml:"batch" mapstructure:"batch"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the profile/answer store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// CatalogConfig selects where the questionnaire catalog comes from.
type CatalogConfig struct {
	// Source is one of embedded, file or notion.
	Source string `yaml:"source" mapstructure:"source"`
	Path   string `yaml:"path" mapstructure:"path"`
}

// EligibilityConfig holds the classifier's fixed policy constants.
type EligibilityConfig struct {
	Tier1StartDate string `yaml:"tier1_start_date" mapstructure:"tier1_start_date"`
	Tier2StartDate string `yaml:"tier2_start_date" mapstructure:"tier2_start_date"`
	Tier3StartDate string `yaml:"tier3_start_date" mapstructure:"tier3_start_date"`
	// MinThresholdsMet is how many of the three size thresholds place an
	// entity in scope.
	MinThresholdsMet int `yaml:"min_thresholds_met" mapstructure:"min_thresholds_met"`
	// StatutoryReportingSufficient keeps the permissive rule under which an
	// affirmative Chapter 2M answer alone places the entity in scope.
	StatutoryReportingSufficient bool `yaml:"statutory_reporting_sufficient" mapstructure:"statutory_reporting_sufficient"`
	// AssuranceInScope marks in-scope entities as requiring limited assurance.
	AssuranceInScope bool `yaml:"assurance_in_scope" mapstructure:"assurance_in_scope"`
}

// ScoringConfig holds the aggregator's fixed thresholds.
type ScoringConfig struct {
	MaxSeverity        int  `yaml:"max_severity" mapstructure:"max_severity"`
	UnansweredSeverity int  `yaml:"unanswered_severity" mapstructure:"unanswered_severity"`
	ExcludeUnanswered  bool `yaml:"exclude_unanswered" mapstructure:"exclude_unanswered"`
	HighReadinessMax   int  `yaml:"high_readiness_max" mapstructure:"high_readiness_max"`
	ModerateMax        int  `yaml:"moderate_readiness_max" mapstructure:"moderate_readiness_max"`
	HeavyWeight        int  `yaml:"heavy_weight" mapstructure:"heavy_weight"`
	MediumWeight       int  `yaml:"medium_weight" mapstructure:"medium_weight"`
	CriticalWeighted   int  `yaml:"critical_weighted" mapstructure:"critical_weighted"`
}

// NotionConfig holds Notion API credentials for the catalog database.
type NotionConfig struct {
	Token     string  `yaml:"token" mapstructure:"token"`
	CatalogDB string  `yaml:"catalog_db" mapstructure:"catalog_db"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// RenderConfig configures PDF report rendering.
type RenderConfig struct {
	Title       string `yaml:"title" mapstructure:"title"`
	Placeholder string `yaml:"placeholder" mapstructure:"placeholder"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	ChromePath  string `yaml:"chrome_path" mapstructure:"chrome_path"`
}

// BatchConfig configures batch re-scoring.
type BatchConfig struct {
	MaxConcurrency int `yaml:"max_concurrency" mapstructure:"max_concurrency"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	RatePerSecond  float64  `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	RateBurst      int      `yaml:"rate_burst" mapstructure:"rate_burst"`
	MaxBodyBytes   int64    `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("READINESS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "readiness.db")
	v.SetDefault("catalog.source", "embedded")
	v.SetDefault("eligibility.tier1_start_date", "2025-01-01")
	v.SetDefault("eligibility.tier2_start_date", "2026-07-01")
	v.SetDefault("eligibility.tier3_start_date", "2027-07-01")
	v.SetDefault("eligibility.min_thresholds_met", 2)
	v.SetDefault("eligibility.statutory_reporting_sufficient", true)
	v.SetDefault("eligibility.assurance_in_scope", false)
	v.SetDefault("scoring.max_severity", 4)
	v.SetDefault("scoring.unanswered_severity", 2)
	v.SetDefault("scoring.exclude_unanswered", false)
	v.SetDefault("scoring.high_readiness_max", 20)
	v.SetDefault("scoring.moderate_readiness_max", 40)
	v.SetDefault("scoring.heavy_weight", 8)
	v.SetDefault("scoring.medium_weight", 5)
	v.SetDefault("scoring.critical_weighted", 3)
	v.SetDefault("notion.rate_limit", 3)
	v.SetDefault("render.title", "AASB S2 Readiness Report")
	v.SetDefault("render.placeholder", "Not provided")
	v.SetDefault("render.timeout_secs", 30)
	v.SetDefault("batch.max_concurrency", 4)
	v.SetDefault("server.port", 8787)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.rate_per_second", 10)
	v.SetDefault("server.rate_burst", 20)
	v.SetDefault("server.max_body_bytes", 10<<20)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the settings a command depends on are present.
// section is one of store, catalog, notion, batch or server.
func (c *Config) Validate(section string) error {
	var missing []string
	switch section {
	case "store":
		switch c.Store.Driver {
		case "sqlite", "postgres":
		default:
			return eris.Errorf("config: unsupported store driver %q", c.Store.Driver)
		}
		if c.Store.DatabaseURL == "" {
			missing = append(missing, "store.database_url (READINESS_STORE_DATABASE_URL)")
		}
	case "catalog":
		switch c.Catalog.Source {
		case "embedded":
		case "file":
			if c.Catalog.Path == "" {
				missing = append(missing, "catalog.path (READINESS_CATALOG_PATH)")
			}
		case "notion":
			return c.Validate("notion")
		default:
			return eris.Errorf("config: unsupported catalog source %q", c.Catalog.Source)
		}
	case "notion":
		if c.Notion.Token == "" {
			missing = append(missing, "notion.token (READINESS_NOTION_TOKEN)")
		}
		if c.Notion.CatalogDB == "" {
			missing = append(missing, "notion.catalog_db (READINESS_NOTION_CATALOG_DB)")
		}
	case "batch":
		if c.Batch.MaxConcurrency < 1 || c.Batch.MaxConcurrency > 50 {
			return eris.New("config: batch.max_concurrency must be between 1 and 50")
		}
	case "server":
		if c.Server.Port <= 0 {
			return eris.New("config: server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown section %q", section)
	}
	if len(missing) > 0 {
		return eris.Errorf("config: missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
