package discord

import (
	"context"
	"fmt"

	"doubloon-tracker/core/reconcile"

	"github.com/bwmarrin/discordgo"
)

// Membership grants and revokes guild roles.
type Membership struct {
	session Session
	guildID string
}

// NewMembership creates a role membership adapter for guildID.
func NewMembership(session Session, guildID string) *Membership {
	return &Membership{session: session, guildID: guildID}
}

// AddUserToGroups implements reconcile.Membership.
func (m *Membership) AddUserToGroups(ctx context.Context, userID string, roleIDs []string) error {
	for _, roleID := range roleIDs {
		if err := m.session.GuildMemberRoleAdd(m.guildID, userID, roleID, withContext(ctx)); err != nil {
			return m.wrap(err, "add", userID, roleID)
		}
	}
	return nil
}

// RemoveUserFromGroups implements reconcile.Membership.
func (m *Membership) RemoveUserFromGroups(ctx context.Context, userID string, roleIDs []string) error {
	for _, roleID := range roleIDs {
		if err := m.session.GuildMemberRoleRemove(m.guildID, userID, roleID, withContext(ctx)); err != nil {
			return m.wrap(err, "remove", userID, roleID)
		}
	}
	return nil
}

func (m *Membership) wrap(err error, op, userID, roleID string) error {
	if isNotFound(err, discordgo.ErrCodeUnknownMember, discordgo.ErrCodeUnknownUser) {
		return fmt.Errorf("%w: %s", reconcile.ErrNoExternalIdentity, userID)
	}
	return fmt.Errorf("failed to %s role %s for %s: %w", op, roleID, userID, err)
}

// Directory lists the guild roles by name.
type Directory struct {
	session Session
	guildID string
}

// NewDirectory creates a role directory for guildID.
func NewDirectory(session Session, guildID string) *Directory {
	return &Directory{session: session, guildID: guildID}
}

// ListGroups implements reconcile.Directory.
func (d *Directory) ListGroups(ctx context.Context) (map[string]string, error) {
	roles, err := d.session.GuildRoles(d.guildID, withContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to list roles of %s: %w", d.guildID, err)
	}
	out := make(map[string]string, len(roles))
	for _, r := range roles {
		out[r.Name] = r.ID
	}
	return out, nil
}

// Notifier sends direct messages to the operator.
type Notifier struct {
	session    Session
	operatorID string
}

// NewNotifier creates a notifier. Without an operator ID it drops messages.
func NewNotifier(session Session, operatorID string) *Notifier {
	return &Notifier{session: session, operatorID: operatorID}
}

// Notify implements reconcile.Notifier.
func (n *Notifier) Notify(ctx context.Context, message string) error {
	if n == nil || n.operatorID == "" {
		return nil
	}
	ch, err := n.session.UserChannelCreate(n.operatorID, withContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to open DM with operator: %w", err)
	}
	if _, err := n.session.ChannelMessageSend(ch.ID, message, withContext(ctx)); err != nil {
		return fmt.Errorf("failed to message operator: %w", err)
	}
	return nil
}

// LookupUser returns the display name of userID or ErrUnknownUser.
func LookupUser(ctx context.Context, session Session, userID string) (string, error) {
	u, err := session.User(userID, withContext(ctx))
	if err != nil {
		if isNotFound(err, discordgo.ErrCodeUnknownUser) {
			return "", fmt.Errorf("%w: %s", ErrUnknownUser, userID)
		}
		return "", fmt.Errorf("failed to look up %s: %w", userID, err)
	}
	return DisplayName(u), nil
}
