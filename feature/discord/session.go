package discord

import (
	"context"
	"errors"
	"net/http"

	"github.com/bwmarrin/discordgo"
)

// Session is the part of *discordgo.Session the bot uses.
type Session interface {
	User(userID string, options ...discordgo.RequestOption) (*discordgo.User, error)
	ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error)
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildMemberRoleRemove(guildID, userID, roleID string, options ...discordgo.RequestOption) error
}

var _ Session = (*discordgo.Session)(nil)

// ErrUnknownUser is returned when the platform has no user with the given ID.
var ErrUnknownUser = errors.New("unknown user")

// isNotFound reports whether err is a REST 404 or carries one of the given
// JSON error codes.
func isNotFound(err error, codes ...int) bool {
	var rest *discordgo.RESTError
	if !errors.As(err, &rest) {
		return false
	}
	if rest.Message != nil {
		for _, code := range codes {
			if rest.Message.Code == code {
				return true
			}
		}
	}
	return rest.Response != nil && rest.Response.StatusCode == http.StatusNotFound
}

func withContext(ctx context.Context) discordgo.RequestOption {
	return discordgo.WithContext(ctx)
}

// DisplayName returns the name a user is shown with.
func DisplayName(u *discordgo.User) string {
	if u == nil {
		return ""
	}
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}
