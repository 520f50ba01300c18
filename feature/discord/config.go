package discord

import (
	"strings"

	"doubloon-tracker/core/utils"
)

// Config holds the chat gateway settings.
type Config struct {
	// Token is the bot token. The gateway stays offline without one.
	Token   string `mapstructure:"token" default:""`
	GuildID string `mapstructure:"guild_id" default:""`
	// ReactionChannel is the only channel whose reactions move doubloons.
	ReactionChannel string `mapstructure:"reaction_channel" default:""`
	// OperatorID receives direct messages about failures.
	OperatorID string `mapstructure:"operator_id" default:""`
	// Admins is a space or comma separated list of user IDs allowed to run admin commands.
	Admins string `mapstructure:"admins" default:""`
	// TierRoles maps rank labels to role IDs or names ("bronze:Bronze,silver:Silver").
	TierRoles string `mapstructure:"tier_roles" default:""`
	Prefix    string `mapstructure:"prefix" default:"!"`
}

// Enabled reports whether the gateway should connect.
func (c Config) Enabled() bool {
	return c.Token != ""
}

// AdminIDs returns the admin set.
func (c Config) AdminIDs() map[string]struct{} {
	out := make(map[string]struct{})
	for _, id := range strings.FieldsFunc(c.Admins, func(r rune) bool { return r == ',' || r == ' ' }) {
		out[utils.StripMention(id)] = struct{}{}
	}
	return out
}

// TierRoleMap parses TierRoles.
func (c Config) TierRoleMap() map[string]string {
	out := make(map[string]string)
	for _, pair := range utils.SplitPairs(c.TierRoles) {
		if pair[0] != "" && pair[1] != "" {
			out[pair[0]] = pair[1]
		}
	}
	return out
}
