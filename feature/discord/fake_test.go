package discord

import (
	"net/http"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// fakeSession is an in-memory Session.
type fakeSession struct {
	mu       sync.Mutex
	users    map[string]*discordgo.User
	messages map[string]*discordgo.Message
	roles    []*discordgo.Role
	members  map[string]map[string]bool
	sent     map[string][]string

	roleErr error
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		users:    make(map[string]*discordgo.User),
		messages: make(map[string]*discordgo.Message),
		members:  make(map[string]map[string]bool),
		sent:     make(map[string][]string),
	}
}

func restError(status, code int) error {
	return &discordgo.RESTError{
		Response: &http.Response{StatusCode: status},
		Message:  &discordgo.APIErrorMessage{Code: code, Message: "not found"},
	}
}

func (f *fakeSession) User(userID string, _ ...discordgo.RequestOption) (*discordgo.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[userID]; ok {
		return u, nil
	}
	return nil, restError(http.StatusNotFound, discordgo.ErrCodeUnknownUser)
}

func (f *fakeSession) ChannelMessage(channelID, messageID string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.messages[messageID]; ok {
		return m, nil
	}
	return nil, restError(http.StatusNotFound, discordgo.ErrCodeUnknownMessage)
}

func (f *fakeSession) ChannelMessageSend(channelID string, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent[channelID] = append(f.sent[channelID], content)
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

func (f *fakeSession) UserChannelCreate(recipientID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	return &discordgo.Channel{ID: "dm-" + recipientID}, nil
}

func (f *fakeSession) GuildRoles(guildID string, _ ...discordgo.RequestOption) ([]*discordgo.Role, error) {
	return f.roles, nil
}

func (f *fakeSession) GuildMemberRoleAdd(guildID, userID, roleID string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.roleErr != nil {
		return f.roleErr
	}
	if f.members[userID] == nil {
		f.members[userID] = make(map[string]bool)
	}
	f.members[userID][roleID] = true
	return nil
}

func (f *fakeSession) GuildMemberRoleRemove(guildID, userID, roleID string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.roleErr != nil {
		return f.roleErr
	}
	delete(f.members[userID], roleID)
	return nil
}

func (f *fakeSession) sentTo(channelID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent[channelID]...)
}
