package config

import (
	"log/slog"

	"github.com/BlueRidgeLabs/chatpro/pkg/domain/interfaces"
	"github.com/BlueRidgeLabs/chatpro/pkg/service/slack"
	"github.com/BlueRidgeLabs/chatpro/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

type Slack struct {
	botToken string
	channel  string
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot User OAuth Token used to post sync reports",
			Category:    "Slack",
			Destination: &x.botToken,
			Sources:     cli.EnvVars("CHATPRO_SLACK_BOT_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "slack-notify-channel",
			Usage:       "Slack channel ID receiving failed or flagged sync reports",
			Category:    "Slack",
			Destination: &x.channel,
			Sources:     cli.EnvVars("CHATPRO_SLACK_NOTIFY_CHANNEL"),
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("bot-token.len", len(x.botToken)),
		slog.String("channel", x.channel),
	)
}

// IsConfigured reports whether both the token and the channel are set
func (x *Slack) IsConfigured() bool {
	return x.botToken != "" && x.channel != ""
}

// Configure returns the sync notifier, or nil when Slack is not configured
func (x *Slack) Configure() (interfaces.SyncNotifier, error) {
	if x.botToken == "" && x.channel == "" {
		return nil, nil
	}
	if !x.IsConfigured() {
		return nil, goerr.New("both slack-bot-token and slack-notify-channel are required")
	}

	svc, err := slack.New(x.botToken)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize slack service")
	}
	logging.Default().Info("Slack sync notification enabled", "channel", x.channel)
	return slack.NewSyncNotifier(svc, x.channel), nil
}
