// Package notify posts club announcements to a Discord webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/disgoorg/disgo/discord"

	"github.com/topi314/clubagenda/server/database"
)

const embedColor = 0x004165

type Config struct {
	Enabled    bool   `toml:"enabled"`
	WebhookURL string `toml:"webhook_url" env:"NOTIFICATIONS_WEBHOOK_URL"`
}

func (c Config) String() string {
	return fmt.Sprintf("\n Enabled: %t\n WebhookURL: %s",
		c.Enabled,
		maskURL(c.WebhookURL),
	)
}

// maskURL hides the webhook token, which is the last path segment.
func maskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Scheme + "://" + u.Host + "/..."
}

func New(cfg Config, client *http.Client) *Notifier {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Notifier{
		cfg:    cfg,
		client: client,
	}
}

type Notifier struct {
	cfg    Config
	client *http.Client
}

func (n *Notifier) Enabled() bool {
	return n != nil && n.cfg.Enabled && n.cfg.WebhookURL != ""
}

var awardTitles = map[database.AwardCategory]string{
	database.AwardCategorySpeaker:    "Best Speaker",
	database.AwardCategoryEvaluator:  "Best Evaluator",
	database.AwardCategoryRoleTaker:  "Best Role Taker",
	database.AwardCategoryTableTopic: "Best Table Topic",
}

// MeetingFinished announces the award winners of a finished meeting. winners maps a category to the winner's name.
func (n *Notifier) MeetingFinished(ctx context.Context, meeting database.Meeting, winners map[database.AwardCategory]string) error {
	if !n.Enabled() {
		return nil
	}

	inline := true
	embed := discord.Embed{
		Title: fmt.Sprintf("Meeting #%d awards", meeting.Number),
		Color: embedColor,
	}
	if meeting.Title != "" {
		embed.Description = meeting.Title
	}
	for _, category := range database.AwardCategories {
		name, ok := winners[category]
		if !ok {
			continue
		}
		embed.Fields = append(embed.Fields, discord.EmbedField{
			Name:   awardTitles[category],
			Value:  name,
			Inline: &inline,
		})
	}
	if meeting.RecommendationScore != nil {
		embed.Fields = append(embed.Fields, discord.EmbedField{
			Name:  "Recommendation",
			Value: fmt.Sprintf("%.1f / 10", *meeting.RecommendationScore),
		})
	}

	return n.Send(ctx, discord.WebhookMessageCreate{
		Embeds: []discord.Embed{embed},
	})
}

func (n *Notifier) Send(ctx context.Context, message discord.WebhookMessageCreate) error {
	if !n.Enabled() {
		return nil
	}

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to encode webhook message: %w", err)
	}

	rq, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	rq.Header.Set("Content-Type", "application/json")

	rs, err := n.client.Do(rq)
	if err != nil {
		return fmt.Errorf("failed to send webhook request: %w", err)
	}
	defer rs.Body.Close()

	if rs.StatusCode >= http.StatusMultipleChoices {
		data, _ := io.ReadAll(io.LimitReader(rs.Body, 1024))
		return fmt.Errorf("webhook returned status %d: %s", rs.StatusCode, data)
	}

	slog.DebugContext(ctx, "Sent webhook notification", slog.Int("status", rs.StatusCode))
	return nil
}
