package ledger

import "strings"

// Action is the direction of a reaction event.
type Action string

const (
	ActionAdded   Action = "added"
	ActionRemoved Action = "removed"
)

// Source tells where a balance change came from.
type Source string

const (
	SourceReaction Source = "reaction"
	SourceAdmin    Source = "admin"
)

// ReactionEvent is a reaction added to or removed from a message in the
// reaction channel. The message author is the one who gains or loses doubloons.
type ReactionEvent struct {
	ChannelID   string
	MessageID   string
	ReactorID   string
	ReactorName string
	AuthorID    string
	AuthorName  string
	Emoji       string
	Action      Action
}

// Key identifies the event for redelivery detection.
func (e ReactionEvent) Key() string {
	return strings.Join([]string{e.MessageID, e.ReactorID, e.Emoji, string(e.Action)}, ":")
}

// Describe renders the event for the command history.
func (e ReactionEvent) Describe() string {
	verb, prep := "added", "to"
	if e.Action == ActionRemoved {
		verb, prep = "removed", "from"
	}
	return strings.Join([]string{e.ReactorID, verb, e.Emoji, prep, e.MessageID}, " ")
}

// Opposite returns the same reaction with the other action.
func (e ReactionEvent) Opposite() ReactionEvent {
	o := e
	if e.Action == ActionAdded {
		o.Action = ActionRemoved
	} else {
		o.Action = ActionAdded
	}
	return o
}

// Change is one signed balance change request.
type Change struct {
	UserID      string
	DisplayName string
	Delta       int64
	Source      Source
	// Actor names who caused the change, for the point history.
	Actor string
}

// Transition is emitted when a committed change moves a user to another rank.
type Transition struct {
	UserID  string `json:"user_id"`
	OldRank string `json:"old_rank"`
	NewRank string `json:"new_rank"`
}

// Result is the outcome of a committed change.
type Result struct {
	UserID     string      `json:"user_id"`
	Name       string      `json:"name"`
	Delta      int64       `json:"delta"`
	OldBalance int64       `json:"old_balance"`
	NewBalance int64       `json:"new_balance"`
	OldRank    string      `json:"old_rank"`
	NewRank    string      `json:"new_rank"`
	Source     Source      `json:"source"`
	Transition *Transition `json:"transition,omitempty"`
}
