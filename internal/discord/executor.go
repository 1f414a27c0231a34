package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/json"
	"github.com/disgoorg/snowflake/v2"
	"go.uber.org/zap"
)

// Executor applies and reverses moderation effects through the Discord API.
// Audit-log reasons are attached to every call so the platform's own log
// stays consistent with the case ledger.
type Executor struct {
	client bot.Client
	logger *zap.Logger
}

// NewExecutor creates an executor over the given Discord client.
func NewExecutor(client bot.Client, logger *zap.Logger) *Executor {
	return &Executor{
		client: client,
		logger: logger.Named("discord_executor"),
	}
}

// ApplyBan bans the user from the guild without deleting message history.
func (e *Executor) ApplyBan(ctx context.Context, guildID, userID uint64, reason string) error {
	err := e.client.Rest().AddBan(
		snowflake.ID(guildID), snowflake.ID(userID), 0,
		rest.WithCtx(ctx), rest.WithReason(reason),
	)
	if err != nil {
		return fmt.Errorf("failed to ban user %d: %w", userID, err)
	}

	return nil
}

// RemoveBan lifts the user's ban.
func (e *Executor) RemoveBan(ctx context.Context, guildID, userID uint64, reason string) error {
	err := e.client.Rest().DeleteBan(
		snowflake.ID(guildID), snowflake.ID(userID),
		rest.WithCtx(ctx), rest.WithReason(reason),
	)
	if err != nil {
		return fmt.Errorf("failed to unban user %d: %w", userID, err)
	}

	return nil
}

// SetTimeout applies a communication timeout until now+duration.
func (e *Executor) SetTimeout(
	ctx context.Context, guildID, userID uint64, duration time.Duration, reason string,
) error {
	until := time.Now().Add(duration)

	_, err := e.client.Rest().UpdateMember(
		snowflake.ID(guildID), snowflake.ID(userID),
		discord.MemberUpdate{CommunicationDisabledUntil: json.NewNullablePtr(until)},
		rest.WithCtx(ctx), rest.WithReason(reason),
	)
	if err != nil {
		return fmt.Errorf("failed to time out user %d: %w", userID, err)
	}

	return nil
}

// RemoveTimeout clears the user's communication timeout.
func (e *Executor) RemoveTimeout(ctx context.Context, guildID, userID uint64, reason string) error {
	_, err := e.client.Rest().UpdateMember(
		snowflake.ID(guildID), snowflake.ID(userID),
		discord.MemberUpdate{CommunicationDisabledUntil: json.NullPtr[time.Time]()},
		rest.WithCtx(ctx), rest.WithReason(reason),
	)
	if err != nil {
		return fmt.Errorf("failed to remove timeout for user %d: %w", userID, err)
	}

	return nil
}

// Kick removes the user from the guild.
func (e *Executor) Kick(ctx context.Context, guildID, userID uint64, reason string) error {
	err := e.client.Rest().RemoveMember(
		snowflake.ID(guildID), snowflake.ID(userID),
		rest.WithCtx(ctx), rest.WithReason(reason),
	)
	if err != nil {
		return fmt.Errorf("failed to kick user %d: %w", userID, err)
	}

	return nil
}

// IsBanned checks whether the guild still has a ban entry for the user.
func (e *Executor) IsBanned(ctx context.Context, guildID, userID uint64) (bool, error) {
	_, err := e.client.Rest().GetBan(
		snowflake.ID(guildID), snowflake.ID(userID), rest.WithCtx(ctx),
	)
	if err != nil {
		var restErr *rest.Error
		if errors.As(err, &restErr) && restErr.Response != nil &&
			restErr.Response.StatusCode == http.StatusNotFound {
			return false, nil
		}

		return false, fmt.Errorf("failed to check ban state for user %d: %w", userID, err)
	}

	return true, nil
}
