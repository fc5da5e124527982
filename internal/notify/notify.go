// Package notify announces newly requested movies on Discord. Delivery is
// best-effort: a dead webhook is logged and counted, never fatal.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/digitarr/digitarr/internal/model"
	"github.com/digitarr/digitarr/pkg/discord"
)

const posterBaseURL = "https://image.tmdb.org/t/p/w500"

// embedColor is the accent color of release notifications.
const embedColor = 0x2ECC71

// Notifier sends one notification per newly added movie. Notifications are
// never batched: each carries its own poster, rating and synopsis.
type Notifier struct {
	client discord.Client
}

// New creates a Notifier. A nil client disables notifications.
func New(client discord.Client) *Notifier {
	return &Notifier{client: client}
}

// Enabled reports whether a webhook is configured.
func (n *Notifier) Enabled() bool { return n != nil && n.client != nil }

// Notify announces that rec was added to the named services.
func (n *Notifier) Notify(ctx context.Context, rec *model.MovieRecord, services []string) error {
	if !n.Enabled() {
		return nil
	}

	now := time.Now().UTC()
	embed := discord.Embed{
		Title:       fmt.Sprintf("%s — digital release", rec.Title),
		Description: truncate(rec.Overview, 400),
		Color:       embedColor,
		Fields: []discord.Field{
			{Name: "Rating", Value: fmt.Sprintf("%.1f/10", rec.VoteAverage), Inline: true},
			{Name: "Requested on", Value: strings.Join(services, ", "), Inline: true},
		},
		Footer:    &discord.Footer{Text: "Digitarr"},
		Timestamp: &now,
	}
	if rec.ReleaseDate != "" {
		embed.Fields = append(embed.Fields, discord.Field{
			Name: "Release date", Value: rec.ReleaseDate, Inline: true,
		})
	}
	if rec.PosterPath != "" {
		embed.Thumbnail = &discord.Image{URL: posterBaseURL + rec.PosterPath}
	}

	err := n.client.Send(ctx, discord.Message{Embeds: []discord.Embed{embed}})
	if err != nil {
		zap.L().Warn("notification failed",
			zap.String("title", rec.Title),
			zap.Error(err),
		)
		return err
	}

	zap.L().Info("notification sent",
		zap.String("title", rec.Title),
		zap.Strings("services", services),
	)
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut + "…"
}
