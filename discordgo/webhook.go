// Package discordgo provides Discord API adapters using package github.com/bwmarrin/discordgo
package discordgo

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"

	"github.com/benjamonnguyen/pomomo-tui"
)

type webhookNotifier struct {
	cl              *discordgo.Session
	l               *log.Logger
	id, token, name string
}

var _ pomomo.Notifier = (*webhookNotifier)(nil)

// NewWebhookNotifier posts messages to the Discord webhook at webhookURL as
// botName. Webhook execution needs no bot token.
func NewWebhookNotifier(webhookURL, botName string, logger *log.Logger) (*webhookNotifier, error) {
	id, token, err := ParseWebhookURL(webhookURL)
	if err != nil {
		return nil, err
	}
	cl, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("failed to create discord client: %w", err)
	}
	cl.ShouldRetryOnRateLimit = false
	return &webhookNotifier{
		cl:    cl,
		l:     logger,
		id:    id,
		token: token,
		name:  botName,
	}, nil
}

func (n *webhookNotifier) Notify(ctx context.Context, content string) error {
	n.l.Debug("executing discord webhook", "webhookID", n.id)
	_, err := n.cl.WebhookExecute(n.id, n.token, false, &discordgo.WebhookParams{
		Content:  content,
		Username: n.name,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to execute discord webhook: %w", err)
	}
	return nil
}

// ParseWebhookURL extracts the webhook ID and token from
// https://discord.com/api/webhooks/{id}/{token}.
func ParseWebhookURL(raw string) (id, token string, err error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", fmt.Errorf("invalid webhook url: %w", err)
	}
	if u.Scheme != "https" || u.Host == "" {
		return "", "", fmt.Errorf("invalid webhook url: %s", raw)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, p := range parts {
		if p == "webhooks" && i+2 < len(parts) {
			id, token = parts[i+1], parts[i+2]
			break
		}
	}
	if id == "" || token == "" {
		return "", "", fmt.Errorf("invalid webhook url: %s", raw)
	}
	return id, token, nil
}
