package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"go.uber.org/zap"

	"github.com/wardenbot/warden/internal/database/types"
	"github.com/wardenbot/warden/internal/database/types/enum"
	"github.com/wardenbot/warden/internal/moderation"
)

// actionCommands maps the top-level action commands to their case types.
var actionCommands = map[string]enum.CaseType{
	"warn":   enum.CaseTypeWarn,
	"mute":   enum.CaseTypeMute,
	"kick":   enum.CaseTypeKick,
	"ban":    enum.CaseTypeBan,
	"unmute": enum.CaseTypeUnmute,
	"unban":  enum.CaseTypeUnban,
}

// handleApplicationCommandInteraction processes slash commands by first deferring
// the response, then running the moderation pipeline in a goroutine. Deferring
// keeps Discord from timing out while REST actions complete.
func (b *Bot) handleApplicationCommandInteraction(event *events.ApplicationCommandInteractionCreate) {
	go func() {
		if err := event.DeferCreateMessage(true); err != nil {
			b.logger.Error("Failed to defer create message", zap.Error(err))
			return
		}

		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("Panic in command handler", zap.Any("panic", r))
				b.respond(event, "Internal error. Please report this to an administrator.")
			}
		}()

		if event.GuildID() == nil {
			b.respond(event, "This command can only be used in a server.")
			return
		}

		ctx := context.Background()
		data := event.SlashCommandInteractionData()

		var (
			content string
			err     error
		)

		if caseType, ok := actionCommands[data.CommandName()]; ok {
			content, err = b.handleAction(ctx, event, caseType)
		} else if data.CommandName() == "case" {
			content, err = b.handleCase(ctx, event)
		} else {
			content = "This command is not available."
		}

		if err != nil {
			b.logger.Warn("Command failed",
				zap.String("command", data.CommandName()),
				zap.Error(err))

			content = userMessage(err)
		}

		b.respond(event, content)
	}()
}

// handleAction runs one of the six action commands against the service.
func (b *Bot) handleAction(
	ctx context.Context, event *events.ApplicationCommandInteractionCreate, caseType enum.CaseType,
) (string, error) {
	data := event.SlashCommandInteractionData()
	guildID := uint64(*event.GuildID())
	target := uint64(data.Snowflake("user"))

	params := moderation.CreateParams{
		GuildID:     guildID,
		UserID:      target,
		ModeratorID: uint64(event.User().ID),
		Type:        caseType,
		Reason:      data.String("reason"),
	}

	if raw, ok := data.OptString("duration"); ok {
		duration, err := parseDuration(raw)
		if err != nil {
			return "", err
		}

		params.Duration = &duration
	}

	record, err := b.service.CreateCase(ctx, params)
	if err != nil {
		return "", err
	}

	msg := fmt.Sprintf("Case #%d: %s <@%d>", record.CaseID, pastTense(record.Type), record.UserID)
	if record.ExpiresAt != nil {
		msg += fmt.Sprintf(" until <t:%d:f>", record.ExpiresAt.Unix())
	}

	return msg, nil
}

// handleCase dispatches the case management subcommands.
func (b *Bot) handleCase(
	ctx context.Context, event *events.ApplicationCommandInteractionCreate,
) (string, error) {
	data := event.SlashCommandInteractionData()
	guildID := uint64(*event.GuildID())
	caseID := int64(data.Int("number"))

	switch sub := data.SubCommandName; {
	case sub == nil:
		return "This command is not available.", nil

	case *sub == "view":
		record, err := b.service.GetCase(ctx, guildID, caseID)
		if err != nil {
			return "", err
		}

		return formatCase(record), nil

	case *sub == "edit":
		return b.handleCaseEdit(ctx, event, guildID, caseID)

	case *sub == "pardon":
		reason, _ := data.OptString("reason")

		reversal, err := b.service.Pardon(ctx, guildID, caseID, uint64(event.User().ID), reason)
		if err != nil {
			return "", err
		}

		return fmt.Sprintf("Case #%d pardoned by case #%d.", caseID, reversal.CaseID), nil

	case *sub == "delete":
		if err := b.service.DeleteCase(ctx, guildID, caseID); err != nil {
			return "", err
		}

		return fmt.Sprintf("Case #%d deleted.", caseID), nil

	default:
		return "This command is not available.", nil
	}
}

// handleCaseEdit loads the case, applies the requested field changes, and
// persists them through the mutator so the expiration schedule stays in sync.
func (b *Bot) handleCaseEdit(
	ctx context.Context, event *events.ApplicationCommandInteractionCreate, guildID uint64, caseID int64,
) (string, error) {
	data := event.SlashCommandInteractionData()

	record, err := b.service.GetCase(ctx, guildID, caseID)
	if err != nil {
		return "", err
	}

	updated := record.Clone()

	if reason, ok := data.OptString("reason"); ok {
		updated.Reason = reason
	}

	if raw, ok := data.OptString("duration"); ok {
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "permanent", "none":
			updated.ExpiresAt = nil
		default:
			duration, err := parseDuration(raw)
			if err != nil {
				return "", err
			}

			expiresAt := time.Now().UTC().Add(duration)
			updated.ExpiresAt = &expiresAt
		}
	}

	result, err := b.service.Apply(ctx, updated)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("Case #%d updated.\n%s", result.CaseID, formatCase(result)), nil
}

// respond replaces the deferred response with the final message.
func (b *Bot) respond(event *events.ApplicationCommandInteractionCreate, content string) {
	_, err := event.Client().Rest().UpdateInteractionResponse(
		event.ApplicationID(),
		event.Token(),
		discord.NewMessageUpdateBuilder().SetContent(content).Build(),
	)
	if err != nil {
		b.logger.Error("Failed to update interaction response", zap.Error(err))
	}
}

// parseDuration converts user input into a positive duration.
func parseDuration(raw string) (time.Duration, error) {
	duration, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: invalid duration %q", moderation.ErrInvalidExpiration, raw)
	}

	if duration <= 0 {
		return 0, fmt.Errorf("%w: duration must be positive", moderation.ErrInvalidExpiration)
	}

	return duration, nil
}

// formatCase renders a case record for display.
func formatCase(record *types.Case) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "**Case #%d** (%s)\n", record.CaseID, record.Type)
	fmt.Fprintf(&sb, "User: <@%d>\n", record.UserID)
	fmt.Fprintf(&sb, "Moderator: <@%d>\n", record.ModeratorID)
	fmt.Fprintf(&sb, "Created: <t:%d:f>\n", record.CreatedAt.Unix())

	if record.Reason != "" {
		fmt.Fprintf(&sb, "Reason: %s\n", record.Reason)
	}

	switch {
	case record.RelatedCaseID != nil:
		fmt.Fprintf(&sb, "Linked case: #%d\n", *record.RelatedCaseID)
	case record.ExpiresAt != nil:
		fmt.Fprintf(&sb, "Expires: <t:%d:f>\n", record.ExpiresAt.Unix())
	case record.Type.CanExpire():
		sb.WriteString("Expires: never\n")
	}

	return strings.TrimSuffix(sb.String(), "\n")
}

// pastTense renders a case type as the verb shown in command confirmations.
func pastTense(caseType enum.CaseType) string {
	switch caseType {
	case enum.CaseTypeWarn:
		return "warned"
	case enum.CaseTypeMute:
		return "muted"
	case enum.CaseTypeKick:
		return "kicked"
	case enum.CaseTypeBan:
		return "banned"
	case enum.CaseTypeUnmute:
		return "unmuted"
	case enum.CaseTypeUnban:
		return "unbanned"
	default:
		return caseType.String()
	}
}

// userMessage maps pipeline errors to the messages moderators see.
func userMessage(err error) string {
	switch {
	case errors.Is(err, moderation.ErrCaseNotFound):
		return "No case with that number exists in this server."
	case errors.Is(err, moderation.ErrNotPardonable):
		return "Only mute and ban cases can be pardoned."
	case errors.Is(err, moderation.ErrInvalidExpiration):
		return "That expiration is not valid. Use a positive duration like 30m, 12h or 72h."
	case errors.Is(err, moderation.ErrInvariantViolation):
		return "That field cannot be changed after the case is created."
	case errors.Is(err, moderation.ErrLiveTimeoutUpdate):
		return "The case was updated, but the member's live timeout could not be adjusted."
	case errors.Is(err, moderation.ErrInvalidState):
		return "The case is not in a state that allows that action."
	default:
		return "Something went wrong while handling the command."
	}
}
