package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"doubloon-tracker/core/audit"
	"doubloon-tracker/core/utils"
	"doubloon-tracker/feature/leaderboard"
	"doubloon-tracker/feature/ledger"
	"doubloon-tracker/feature/ledger/models"

	"go.uber.org/zap"
)

// TopCount is the number of rows in the chat leaderboard.
const TopCount = 10

// Ledger is the set of ledger operations chat commands use.
type Ledger interface {
	Adjust(ctx context.Context, a ledger.AdminChange) (*ledger.Result, error)
	Register(ctx context.Context, actor, userID, name string) (*models.User, error)
	Balance(ctx context.Context, userID string) (*models.User, error)
	Top(ctx context.Context, n int) ([]models.User, error)
}

// Trigger starts a manual leaderboard sync.
type Trigger interface {
	TriggerManual(ctx context.Context, actor string) (*leaderboard.Result, error)
}

// UserLookupFunc resolves a user ID to a display name, failing with ErrUnknownUser.
type UserLookupFunc func(ctx context.Context, userID string) (string, error)

// Command is one parsed text command.
type Command struct {
	AuthorID   string
	AuthorName string
	ChannelID  string
	Name       string
	Args       []string
}

// ParseCommand splits content into a command when it starts with prefix.
func ParseCommand(prefix, content string) (Command, bool) {
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return Command{}, false
	}
	fields := strings.Fields(strings.TrimPrefix(content, prefix))
	if len(fields) == 0 {
		return Command{}, false
	}
	return Command{Name: strings.ToLower(fields[0]), Args: fields[1:]}, true
}

// Dispatcher runs text commands and returns the reply to post.
type Dispatcher struct {
	ledger   Ledger
	trigger  Trigger
	lookup   UserLookupFunc
	admins   map[string]struct{}
	link     string
	prefix   string
	cooldown string

	logger *zap.Logger
	trail  *audit.Trail
}

// DispatcherOptions configures a Dispatcher. Trigger and Lookup are optional.
type DispatcherOptions struct {
	Ledger  Ledger
	Trigger Trigger
	Lookup  UserLookupFunc
	Admins  map[string]struct{}
	Link    string
	Prefix  string
	// Cooldown describes the manual sync limit in replies, e.g. "5 minutes".
	Cooldown string
}

// NewDispatcher creates a command dispatcher.
func NewDispatcher(opts DispatcherOptions, logger *zap.Logger, trail *audit.Trail) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "!"
	}
	return &Dispatcher{
		ledger:   opts.Ledger,
		trigger:  opts.Trigger,
		lookup:   opts.Lookup,
		admins:   opts.Admins,
		link:     opts.Link,
		prefix:   prefix,
		cooldown: opts.Cooldown,
		logger:   logger,
		trail:    trail,
	}
}

// Prefix returns the command prefix.
func (d *Dispatcher) Prefix() string {
	return d.prefix
}

// Dispatch runs cmd. An empty reply means nothing should be posted.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command) string {
	switch cmd.Name {
	case "doubloons":
		return d.balance(ctx, cmd)
	case "leaderboard":
		return d.leaderboard(ctx, cmd)
	case "updateleaderboard":
		return d.updateLeaderboard(ctx, cmd)
	case "adddoubloons":
		return d.admin(ctx, cmd, d.adjust(false))
	case "removedoubloons":
		return d.admin(ctx, cmd, d.adjust(true))
	case "register":
		return d.admin(ctx, cmd, d.register)
	case "help":
		return d.help()
	}
	return ""
}

func (d *Dispatcher) help() string {
	p := d.prefix
	return strings.Join([]string{
		"Commands:",
		p + "doubloons - your balance",
		p + "leaderboard - top " + fmt.Sprint(TopCount),
		p + "updateleaderboard - refresh the public leaderboard",
		p + "adddoubloons [userid] [points] - admin",
		p + "removedoubloons [userid] [points] - admin",
		p + "register [userid] [user name] - admin",
	}, "\n")
}

func (d *Dispatcher) balance(ctx context.Context, cmd Command) string {
	d.trail.Command("%s checked their doubloon count", cmd.AuthorID)
	u, err := d.ledger.Balance(ctx, cmd.AuthorID)
	if errors.Is(err, ledger.ErrUserNotFound) {
		return "You don't have any doubloons yet!"
	}
	if err != nil {
		d.logger.Error("Balance lookup failed", zap.String("user_id", cmd.AuthorID), zap.Error(err))
		return "Something went wrong looking up your doubloons."
	}
	return fmt.Sprintf("You have %d doubloons!", u.Balance)
}

func (d *Dispatcher) leaderboard(ctx context.Context, cmd Command) string {
	d.trail.Command("%s viewed the leaderboard", cmd.AuthorID)
	users, err := d.ledger.Top(ctx, TopCount)
	if err != nil {
		d.logger.Error("Leaderboard lookup failed", zap.Error(err))
		return "Something went wrong loading the leaderboard."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Leaderboard TOP %d:\n", TopCount)
	for i, u := range users {
		name := u.Name
		if name == "" {
			name = u.ID
		}
		fmt.Fprintf(&b, "%d. %s - %d doubloons\n", i+1, name, u.Balance)
	}
	if d.link != "" {
		fmt.Fprintf(&b, "\nSee the full board here: <%s>", d.link)
		if d.trigger != nil {
			fmt.Fprintf(&b, "\nand update it with %supdateleaderboard", d.prefix)
			if d.cooldown != "" {
				fmt.Fprintf(&b, " (limited to every %s)", d.cooldown)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (d *Dispatcher) updateLeaderboard(ctx context.Context, cmd Command) string {
	if d.trigger == nil {
		return "The public leaderboard is not configured."
	}
	res, err := d.trigger.TriggerManual(ctx, cmd.AuthorID)
	var cooldown *leaderboard.CooldownError
	switch {
	case errors.As(err, &cooldown):
		return fmt.Sprintf("Updating sheet too often, try again in %d seconds", cooldown.Seconds())
	case err != nil:
		return "Updating the leaderboard failed, the operator has been notified."
	case res.Skipped:
		return d.withLink("Leaderboard is already up to date!")
	}
	return d.withLink("Leaderboard updated!")
}

func (d *Dispatcher) withLink(msg string) string {
	if d.link == "" {
		return msg
	}
	return fmt.Sprintf("%s View it here: <%s>", msg, d.link)
}

type adminFunc func(ctx context.Context, cmd Command, userID, name string) string

// admin checks the caller and resolves the target user before running fn.
// Non-admins get no reply.
func (d *Dispatcher) admin(ctx context.Context, cmd Command, fn adminFunc) string {
	d.trail.Command("%s used %s with arguments %v", cmd.AuthorID, cmd.Name, cmd.Args)
	if _, ok := d.admins[cmd.AuthorID]; !ok {
		return ""
	}
	if len(cmd.Args) < 2 || cmd.Args[0] == "help" {
		return d.usage(cmd.Name)
	}

	userID := utils.StripMention(cmd.Args[0])
	name := ""
	if d.lookup != nil {
		var err error
		name, err = d.lookup(ctx, userID)
		if errors.Is(err, ErrUnknownUser) {
			return fmt.Sprintf("User ID %s does not exist", userID)
		}
		if err != nil {
			d.logger.Warn("User lookup failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return fn(ctx, cmd, userID, name)
}

func (d *Dispatcher) usage(name string) string {
	switch name {
	case "register":
		return fmt.Sprintf("register usage: %sregister [userid] [user name]", d.prefix)
	default:
		return fmt.Sprintf("%s usage: %s%s [userid] [points]", name, d.prefix, name)
	}
}

func (d *Dispatcher) adjust(revoke bool) adminFunc {
	return func(ctx context.Context, cmd Command, userID, name string) string {
		amount := cmd.Args[1]
		change := ledger.AdminChange{
			Actor:     cmd.AuthorName,
			UserID:    userID,
			Magnitude: amount,
			Revoke:    revoke,
		}
		if !revoke {
			change.DisplayName = name
		}
		target := name
		if target == "" {
			target = userID
		}

		res, err := d.ledger.Adjust(ctx, change)
		var insufficient *ledger.InsufficientBalanceError
		switch {
		case errors.Is(err, ledger.ErrInvalidMagnitude):
			return fmt.Sprintf("%s is not a valid number of doubloons!", amount)
		case errors.Is(err, ledger.ErrUserNotFound):
			return fmt.Sprintf("%s doesn't have any doubloons yet!", target)
		case errors.As(err, &insufficient):
			return fmt.Sprintf("%s only has %d doubloon(s)! You can remove them all by using the exact number.", target, insufficient.Balance)
		case err != nil:
			d.logger.Error("Admin adjustment failed", zap.String("user_id", userID), zap.Error(err))
			return "Something went wrong updating doubloons."
		}

		if res.Name != "" {
			target = res.Name
		}
		if revoke {
			return fmt.Sprintf("%s doubloons removed from %s, they now have %d doubloon(s)!", amount, target, res.NewBalance)
		}
		return fmt.Sprintf("%s added to %s! They now have %d doubloon(s)!", amount, target, res.NewBalance)
	}
}

func (d *Dispatcher) register(ctx context.Context, cmd Command, userID, _ string) string {
	username := strings.TrimSpace(strings.Join(cmd.Args[1:], " "))
	if _, err := d.ledger.Register(ctx, cmd.AuthorName, userID, username); err != nil {
		d.logger.Error("Registration failed", zap.String("user_id", userID), zap.Error(err))
		return "Something went wrong registering that user."
	}
	return fmt.Sprintf("Updated %s's username to %s", userID, username)
}
