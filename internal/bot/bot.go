package bot

import (
	"context"
	"fmt"

	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"go.uber.org/zap"

	"github.com/wardenbot/warden/internal/database"
	discordaction "github.com/wardenbot/warden/internal/discord"
	"github.com/wardenbot/warden/internal/jobs"
	"github.com/wardenbot/warden/internal/moderation"
	"github.com/wardenbot/warden/pkg/utils"
)

// Bot wires the Discord gateway to the moderation case pipeline. It owns the
// slash command surface and translates interactions into service calls.
type Bot struct {
	client  bot.Client
	service *moderation.Service
	logger  *zap.Logger
}

// New builds the Discord client and the moderation service it drives.
// The gateway is not opened until Start is called.
func New(
	token string,
	db database.Client,
	jobClient *jobs.Client,
	logger *zap.Logger,
) (*Bot, error) {
	b := &Bot{
		logger: logger.Named("bot"),
	}

	client, err := disgo.New(token,
		bot.WithGatewayConfigOpts(
			gateway.WithIntents(
				gateway.IntentGuilds,
				gateway.IntentGuildModeration,
			),
		),
		bot.WithEventListeners(&events.ListenerAdapter{
			OnApplicationCommandInteraction: b.handleApplicationCommandInteraction,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord client: %w", err)
	}

	b.client = client
	b.service = moderation.NewService(
		db.Model().Case(),
		jobClient,
		discordaction.NewExecutor(client, logger),
		discordaction.NewNotifier(client, logger),
		logger,
	)

	return b, nil
}

// Service exposes the moderation pipeline for other consumers of the same
// Discord client, such as the expiry worker when run in-process.
func (b *Bot) Service() *moderation.Service {
	return b.service
}

// Start registers the command set with Discord and opens the gateway.
// Registration is retried with backoff so a transient API outage at startup
// does not take the process down.
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Registering commands")

	_, err := utils.WithRetry(ctx, func() ([]discord.ApplicationCommand, error) {
		return b.client.Rest().SetGlobalCommands(b.client.ApplicationID(), commands())
	}, utils.GetDiscordRetryOptions())
	if err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	b.logger.Info("Starting bot")

	return b.client.OpenGateway(ctx)
}

// Close gracefully shuts down the Discord gateway connection.
func (b *Bot) Close(ctx context.Context) {
	b.logger.Info("Closing bot")
	b.client.Close(ctx)
}
