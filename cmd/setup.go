package main

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/digitarr/digitarr/internal/config"
	"github.com/digitarr/digitarr/internal/dispatch"
	"github.com/digitarr/digitarr/internal/enrich"
	"github.com/digitarr/digitarr/internal/notify"
	"github.com/digitarr/digitarr/internal/pipeline"
	"github.com/digitarr/digitarr/internal/source"
	"github.com/digitarr/digitarr/pkg/discord"
	"github.com/digitarr/digitarr/pkg/overseerr"
	"github.com/digitarr/digitarr/pkg/radarr"
	"github.com/digitarr/digitarr/pkg/riven"
	"github.com/digitarr/digitarr/pkg/tmdb"
)

// buildSourceAndEnricher wires the read-only half of the pipeline. It needs
// only a TMDB key, so dry runs work without any request service configured.
func buildSourceAndEnricher(cfg *config.Config) (source.Source, *enrich.Enricher, error) {
	if cfg.TMDB.APIKey == "" {
		return nil, nil, eris.New("tmdb.api_key is required")
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}

	tmdbClient := tmdb.NewClient(cfg.TMDB.APIKey,
		tmdb.WithBaseURL(cfg.TMDB.BaseURL),
		tmdb.WithRateLimit(cfg.TMDB.RequestsPerSecond),
	)

	var src source.Source
	switch cfg.Source.Kind {
	case "dvdsreleasedates":
		src = source.NewScrapedSource(cfg.Source.ScrapeURL, loc)
	case "tmdb":
		src = source.NewTMDBSource(tmdbClient, cfg.TMDB.Region, loc)
	default:
		return nil, nil, eris.Errorf("unknown source kind %q", cfg.Source.Kind)
	}

	enricher := enrich.New(tmdbClient, cfg.TMDB.Region, cfg.Source.MatchThreshold, cfg.Dispatch.Concurrency)
	return src, enricher, nil
}

// buildOrchestrator wires the full pipeline from config, including targets
// and the notification webhook.
func buildOrchestrator(cfg *config.Config) (*pipeline.Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	src, enricher, err := buildSourceAndEnricher(cfg)
	if err != nil {
		return nil, err
	}

	var targets []dispatch.Target
	if cfg.Overseerr.Enabled() {
		targets = append(targets, &dispatch.OverseerrTarget{
			Client: overseerr.NewClient(cfg.Overseerr.APIURL, cfg.Overseerr.APIKey),
		})
	}
	if cfg.Riven.Enabled() {
		targets = append(targets, &dispatch.RivenTarget{
			Client: riven.NewClient(cfg.Riven.APIURL, cfg.Riven.APIKey),
		})
	}
	if cfg.Radarr.Enabled() {
		targets = append(targets, &dispatch.RadarrTarget{
			Client: radarr.NewClient(cfg.Radarr.APIURL, cfg.Radarr.APIKey,
				radarr.WithQualityProfile(cfg.Radarr.QualityProfileID),
				radarr.WithRootFolder(cfg.Radarr.RootFolder),
			),
		})
	}

	dispatcher := dispatch.New(targets, dispatch.Options{
		MaxRetries:   cfg.Dispatch.MaxRetries,
		RetryBackoff: time.Duration(cfg.Dispatch.RetryBackoffMS) * time.Millisecond,
	})

	var notifier *notify.Notifier
	if cfg.Discord.Enabled() {
		notifier = notify.New(discord.NewClient(cfg.Discord.WebhookURL))
	} else {
		notifier = notify.New(nil)
	}

	return pipeline.New(src, enricher, cfg.Filters, dispatcher, notifier, cfg.Schedule.RequestDelay()), nil
}
