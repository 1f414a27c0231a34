package discord

import (
	"context"
	"fmt"
	"strconv"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"github.com/wardenbot/warden/internal/database/types"
	"go.uber.org/zap"
)

const embedColor = 0x57F287

// Notifier delivers expiration notices to users over DM. Delivery is
// best-effort; users with closed DMs simply don't get one.
type Notifier struct {
	client bot.Client
	logger *zap.Logger
}

// NewNotifier creates a notifier over the given Discord client.
func NewNotifier(client bot.Client, logger *zap.Logger) *Notifier {
	return &Notifier{
		client: client,
		logger: logger.Named("discord_notifier"),
	}
}

// NotifyExpired tells the user their temporary restriction has lapsed.
func (n *Notifier) NotifyExpired(ctx context.Context, record *types.Case) error {
	channel, err := n.client.Rest().CreateDMChannel(snowflake.ID(record.UserID), rest.WithCtx(ctx))
	if err != nil {
		return fmt.Errorf("failed to open DM channel for user %d: %w", record.UserID, err)
	}

	guildName := strconv.FormatUint(record.GuildID, 10)
	if guild, err := n.client.Rest().GetGuild(snowflake.ID(record.GuildID), false, rest.WithCtx(ctx)); err == nil {
		guildName = guild.Name
	}

	embed := discord.NewEmbedBuilder().
		SetTitle(fmt.Sprintf("Your %s has expired", record.Type)).
		SetDescriptionf("Your temporary %s in **%s** has ended.", record.Type, guildName).
		SetColor(embedColor).
		AddField("Case", fmt.Sprintf("#%d", record.CaseID), true)

	if record.Reason != "" {
		embed.AddField("Original reason", record.Reason, false)
	}

	_, err = n.client.Rest().CreateMessage(
		channel.ID(),
		discord.NewMessageCreateBuilder().SetEmbeds(embed.Build()).Build(),
		rest.WithCtx(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to send expiration notice to user %d: %w", record.UserID, err)
	}

	n.logger.Debug("Sent expiration notice",
		zap.Uint64("userID", record.UserID),
		zap.Int64("caseID", record.CaseID))

	return nil
}
