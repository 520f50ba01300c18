package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeduplicator(t *testing.T) {
	d := NewDeduplicator(10, time.Hour)
	assert.True(t, d.Claim("k"))
	assert.False(t, d.Claim("k"))
	assert.Equal(t, 1, d.Len())

	d.Release("k")
	assert.True(t, d.Claim("k"))
}

func TestDeduplicator_Expiry(t *testing.T) {
	d := NewDeduplicator(10, 20*time.Millisecond)
	assert.True(t, d.Claim("k"))
	assert.Eventually(t, func() bool { return d.Claim("k") }, time.Second, 10*time.Millisecond)
}

func TestDeduplicator_Nil(t *testing.T) {
	var d *Deduplicator
	assert.True(t, d.Claim("k"))
	assert.True(t, d.Claim("k"))
	d.Release("k")
	assert.Equal(t, 0, d.Len())
}

func TestReactionEvent_Key(t *testing.T) {
	ev := ReactionEvent{MessageID: "m", ReactorID: "r", Emoji: "✅", Action: ActionAdded}
	assert.Equal(t, "m:r:✅:added", ev.Key())
	assert.Equal(t, "m:r:✅:removed", ev.Opposite().Key())
	assert.Equal(t, ev.Key(), ev.Opposite().Opposite().Key())
}
