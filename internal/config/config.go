package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/digitarr/digitarr/internal/model"
)

// Config holds the full application configuration.
type Config struct {
	TMDB      TMDBConfig     `yaml:"tmdb" mapstructure:"tmdb"`
	Overseerr ServiceConfig  `yaml:"overseerr" mapstructure:"overseerr"`
	Riven     ServiceConfig  `yaml:"riven" mapstructure:"riven"`
	Radarr    RadarrConfig   `yaml:"radarr" mapstructure:"radarr"`
	Discord   DiscordConfig  `yaml:"discord" mapstructure:"discord"`
	Source    SourceConfig   `yaml:"source" mapstructure:"source"`
	Filters   FilterConfig   `yaml:"filters" mapstructure:"filters"`
	Schedule  ScheduleConfig `yaml:"schedule" mapstructure:"schedule"`
	Dispatch  DispatchConfig `yaml:"dispatch" mapstructure:"dispatch"`
	Log       LogConfig      `yaml:"log" mapstructure:"log"`
}

// TMDBConfig holds TMDB API credentials and tuning.
type TMDBConfig struct {
	APIKey            string  `yaml:"api_key" mapstructure:"api_key"`
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	Region            string  `yaml:"region" mapstructure:"region"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// ServiceConfig holds one request-service endpoint. A service is enabled by
// the presence of its API key.
type ServiceConfig struct {
	APIURL string `yaml:"api_url" mapstructure:"api_url"`
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
}

// Enabled reports whether the service has both a URL and a key configured.
func (s ServiceConfig) Enabled() bool { return s.APIKey != "" && s.APIURL != "" }

// RadarrConfig extends ServiceConfig with Radarr's add-movie parameters.
type RadarrConfig struct {
	ServiceConfig    `yaml:",inline" mapstructure:",squash"`
	QualityProfileID int    `yaml:"quality_profile_id" mapstructure:"quality_profile_id"`
	RootFolder       string `yaml:"root_folder" mapstructure:"root_folder"`
}

// DiscordConfig holds the notification webhook.
type DiscordConfig struct {
	WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url"`
}

// Enabled reports whether notifications are configured.
func (d DiscordConfig) Enabled() bool { return d.WebhookURL != "" }

// SourceConfig selects and tunes the release source.
type SourceConfig struct {
	// Kind is "tmdb" or "dvdsreleasedates".
	Kind string `yaml:"kind" mapstructure:"kind"`
	// Timezone is the IANA zone used to evaluate "today". Empty means the
	// process-local zone. TMDB's notion of the current date can drift from
	// local midnight, so deployments near a date boundary should pin this.
	Timezone string `yaml:"timezone" mapstructure:"timezone"`
	// ScrapeURL overrides the dvdsreleasedates listing page.
	ScrapeURL string `yaml:"scrape_url" mapstructure:"scrape_url"`
	// MatchThreshold is the minimum title similarity (0..1) for resolving a
	// scraped title against TMDB search results.
	MatchThreshold float64 `yaml:"match_threshold" mapstructure:"match_threshold"`
}

// FilterConfig holds the inclusion rules applied to enriched records.
// Rules combine as a logical AND; an absent or empty rule always passes.
type FilterConfig struct {
	MinRating              float64  `yaml:"min_rating" mapstructure:"min_rating"`
	ExcludeAdult           bool     `yaml:"exclude_adult" mapstructure:"exclude_adult"`
	AllowedLanguages       []string `yaml:"allowed_languages" mapstructure:"allowed_languages"`
	ExcludedGenres         []string `yaml:"excluded_genres" mapstructure:"excluded_genres"`
	ExcludedCertifications []string `yaml:"excluded_certifications" mapstructure:"excluded_certifications"`
}

// ScheduleConfig controls run-once vs run-daily behavior.
type ScheduleConfig struct {
	// RunTime is a daily "HH:MM" trigger. Empty means run once and exit.
	RunTime string `yaml:"run_time" mapstructure:"run_time"`
	// RequestDelayMinutes delays dispatch after detection, giving indexers
	// time to pick up fresh releases.
	RequestDelayMinutes int `yaml:"request_delay_minutes" mapstructure:"request_delay_minutes"`
}

// RequestDelay returns the configured pre-dispatch delay.
func (s ScheduleConfig) RequestDelay() time.Duration {
	return time.Duration(s.RequestDelayMinutes) * time.Minute
}

// DispatchConfig tunes dispatch retries and fan-out.
type DispatchConfig struct {
	MaxRetries     int `yaml:"max_retries" mapstructure:"max_retries"`
	RetryBackoffMS int `yaml:"retry_backoff_ms" mapstructure:"retry_backoff_ms"`
	Concurrency    int `yaml:"concurrency" mapstructure:"concurrency"`
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
	v.AddConfigPath("/etc/digitarr")

	// Environment
	v.SetEnvPrefix("DIGITARR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("tmdb.base_url", "https://api.themoviedb.org/3")
	v.SetDefault("tmdb.region", "US")
	v.SetDefault("tmdb.requests_per_second", 4.0)
	v.SetDefault("source.kind", "tmdb")
	v.SetDefault("source.scrape_url", "https://www.dvdsreleasedates.com/digital-releases/")
	v.SetDefault("source.match_threshold", 0.5)
	v.SetDefault("filters.exclude_adult", true)
	v.SetDefault("dispatch.max_retries", 2)
	v.SetDefault("dispatch.retry_backoff_ms", 500)
	v.SetDefault("dispatch.concurrency", 4)
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

// Validate checks startup requirements. Failures here are the only condition
// under which the process exits non-zero.
func (c *Config) Validate() error {
	if c.TMDB.APIKey == "" {
		return eris.New("config: tmdb.api_key is required")
	}
	targets := c.Targets()
	if len(targets) == 0 {
		return eris.New("config: at least one request service (overseerr, riven, radarr) must be configured with an API key")
	}
	for _, t := range targets {
		if !strings.HasPrefix(t.BaseURL, "http://") && !strings.HasPrefix(t.BaseURL, "https://") {
			return eris.Errorf("config: %s api_url must start with http:// or https://", t.Kind)
		}
	}
	if c.Filters.MinRating < 0 || c.Filters.MinRating > 10 {
		return eris.New("config: filters.min_rating must be between 0 and 10")
	}
	switch c.Source.Kind {
	case "tmdb", "dvdsreleasedates":
	default:
		return eris.Errorf("config: unknown source.kind %q", c.Source.Kind)
	}
	if rt := c.Schedule.RunTime; rt != "" {
		if _, err := time.Parse("15:04", rt); err != nil {
			return eris.Errorf("config: schedule.run_time %q is not HH:MM", rt)
		}
	}
	if c.Source.MatchThreshold < 0 || c.Source.MatchThreshold > 1 {
		return eris.New("config: source.match_threshold must be between 0 and 1")
	}
	if c.Schedule.RequestDelayMinutes < 0 {
		return eris.New("config: schedule.request_delay_minutes must not be negative")
	}
	return nil
}

// Targets returns the configured downstream request services.
func (c *Config) Targets() []model.ServiceTarget {
	var targets []model.ServiceTarget
	if c.Overseerr.Enabled() {
		targets = append(targets, model.ServiceTarget{
			Kind:    model.ServiceOverseerr,
			BaseURL: c.Overseerr.APIURL,
			APIKey:  c.Overseerr.APIKey,
		})
	}
	if c.Riven.Enabled() {
		targets = append(targets, model.ServiceTarget{
			Kind:    model.ServiceRiven,
			BaseURL: c.Riven.APIURL,
			APIKey:  c.Riven.APIKey,
		})
	}
	if c.Radarr.Enabled() {
		targets = append(targets, model.ServiceTarget{
			Kind:    model.ServiceRadarr,
			BaseURL: c.Radarr.APIURL,
			APIKey:  c.Radarr.APIKey,
		})
	}
	return targets
}

// Location resolves the configured source timezone, defaulting to local.
func (c *Config) Location() (*time.Location, error) {
	if c.Source.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Source.Timezone)
	if err != nil {
		return nil, eris.Wrapf(err, "config: load timezone %q", c.Source.Timezone)
	}
	return loc, nil
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
