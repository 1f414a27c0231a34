package bot

import (
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/json"
)

// commands returns the full slash command surface. Action commands mirror the
// case types; the case command manages existing records.
func commands() []discord.ApplicationCommandCreate {
	return []discord.ApplicationCommandCreate{
		discord.SlashCommandCreate{
			Name:                     "warn",
			Description:              "Record a warning for a member",
			DefaultMemberPermissions: json.NewNullablePtr(discord.PermissionModerateMembers),
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        "user",
					Description: "The member to warn",
					Required:    true,
				},
				discord.ApplicationCommandOptionString{
					Name:        "reason",
					Description: "Why the member is being warned",
					Required:    true,
				},
			},
		},
		discord.SlashCommandCreate{
			Name:                     "mute",
			Description:              "Time out a member",
			DefaultMemberPermissions: json.NewNullablePtr(discord.PermissionModerateMembers),
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        "user",
					Description: "The member to mute",
					Required:    true,
				},
				discord.ApplicationCommandOptionString{
					Name:        "reason",
					Description: "Why the member is being muted",
					Required:    true,
				},
				discord.ApplicationCommandOptionString{
					Name:        "duration",
					Description: "How long the mute lasts, e.g. 30m or 12h (omit for the maximum)",
				},
			},
		},
		discord.SlashCommandCreate{
			Name:                     "kick",
			Description:              "Kick a member from the server",
			DefaultMemberPermissions: json.NewNullablePtr(discord.PermissionKickMembers),
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        "user",
					Description: "The member to kick",
					Required:    true,
				},
				discord.ApplicationCommandOptionString{
					Name:        "reason",
					Description: "Why the member is being kicked",
					Required:    true,
				},
			},
		},
		discord.SlashCommandCreate{
			Name:                     "ban",
			Description:              "Ban a user from the server",
			DefaultMemberPermissions: json.NewNullablePtr(discord.PermissionBanMembers),
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        "user",
					Description: "The user to ban",
					Required:    true,
				},
				discord.ApplicationCommandOptionString{
					Name:        "reason",
					Description: "Why the user is being banned",
					Required:    true,
				},
				discord.ApplicationCommandOptionString{
					Name:        "duration",
					Description: "How long the ban lasts, e.g. 72h (omit for permanent)",
				},
			},
		},
		discord.SlashCommandCreate{
			Name:                     "unmute",
			Description:              "Lift a member's timeout",
			DefaultMemberPermissions: json.NewNullablePtr(discord.PermissionModerateMembers),
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        "user",
					Description: "The member to unmute",
					Required:    true,
				},
				discord.ApplicationCommandOptionString{
					Name:        "reason",
					Description: "Why the mute is being lifted",
					Required:    true,
				},
			},
		},
		discord.SlashCommandCreate{
			Name:                     "unban",
			Description:              "Lift a user's ban",
			DefaultMemberPermissions: json.NewNullablePtr(discord.PermissionBanMembers),
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        "user",
					Description: "The user to unban",
					Required:    true,
				},
				discord.ApplicationCommandOptionString{
					Name:        "reason",
					Description: "Why the ban is being lifted",
					Required:    true,
				},
			},
		},
		discord.SlashCommandCreate{
			Name:                     "case",
			Description:              "Manage moderation cases",
			DefaultMemberPermissions: json.NewNullablePtr(discord.PermissionModerateMembers),
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionSubCommand{
					Name:        "view",
					Description: "Show a case",
					Options: []discord.ApplicationCommandOption{
						discord.ApplicationCommandOptionInt{
							Name:        "number",
							Description: "The case number",
							Required:    true,
						},
					},
				},
				discord.ApplicationCommandOptionSubCommand{
					Name:        "edit",
					Description: "Change a case's reason or expiration",
					Options: []discord.ApplicationCommandOption{
						discord.ApplicationCommandOptionInt{
							Name:        "number",
							Description: "The case number",
							Required:    true,
						},
						discord.ApplicationCommandOptionString{
							Name:        "reason",
							Description: "The new reason",
						},
						discord.ApplicationCommandOptionString{
							Name:        "duration",
							Description: "New duration from now, e.g. 24h, or 'permanent' to clear",
						},
					},
				},
				discord.ApplicationCommandOptionSubCommand{
					Name:        "pardon",
					Description: "Reverse an active mute or ban case",
					Options: []discord.ApplicationCommandOption{
						discord.ApplicationCommandOptionInt{
							Name:        "number",
							Description: "The case number",
							Required:    true,
						},
						discord.ApplicationCommandOptionString{
							Name:        "reason",
							Description: "Why the case is being pardoned",
						},
					},
				},
				discord.ApplicationCommandOptionSubCommand{
					Name:        "delete",
					Description: "Remove a case from the record",
					Options: []discord.ApplicationCommandOption{
						discord.ApplicationCommandOptionInt{
							Name:        "number",
							Description: "The case number",
							Required:    true,
						},
					},
				},
			},
		},
	}
}
