package audit_test

import (
	"fmt"
	"strings"
	"testing"

	"doubloon-tracker/core/audit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTrail(t *testing.T) *audit.Trail {
	trail, err := audit.New(audit.Config{Dir: t.TempDir(), MaxSizeMB: 1, MaxBackups: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = trail.Close() })
	return trail
}

func TestTrail_WriteAndTail(t *testing.T) {
	trail := newTrail(t)

	for i := 1; i <= 5; i++ {
		trail.Point("alice added %d doubloons to bob", i)
	}

	lines, err := trail.Tail(audit.Points, 3)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.True(t, strings.HasSuffix(lines[0], " - alice added 3 doubloons to bob"), lines[0])
	assert.True(t, strings.HasSuffix(lines[2], " - alice added 5 doubloons to bob"), lines[2])

	// Fewer lines than requested
	lines, err = trail.Tail(audit.Points, 50)
	require.NoError(t, err)
	assert.Len(t, lines, 5)

	// The request size does not drive allocation
	lines, err = trail.Tail(audit.Points, 1<<45)
	require.NoError(t, err)
	assert.Len(t, lines, 5)

	// Other trails are untouched
	lines, err = trail.Tail(audit.Commands, 10)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestTrail_Full(t *testing.T) {
	trail := newTrail(t)
	trail.Error("Invalid reaction %s", "🍕")
	trail.Error("Invalid reaction %s", "🌮")

	full, err := trail.Full(audit.Errors)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(full, "\n"))
	assert.Contains(t, full, "Invalid reaction 🌮")
}

func TestTrail_UnknownName(t *testing.T) {
	trail := newTrail(t)
	_, err := trail.Tail(audit.Name("secrets"), 10)
	assert.ErrorIs(t, err, audit.ErrUnknownTrail)
	_, err = trail.Full(audit.Name("secrets"))
	assert.ErrorIs(t, err, audit.ErrUnknownTrail)
}

func TestTrail_Nop(t *testing.T) {
	trail := audit.Nop()
	trail.Command("ignored")
	lines, err := trail.Tail(audit.Commands, 5)
	assert.NoError(t, err)
	assert.Empty(t, lines)
}

func TestNames(t *testing.T) {
	assert.Equal(t, []audit.Name{audit.Commands, audit.Debug, audit.Errors, audit.Points}, audit.Names())
	assert.Equal(t, "points", fmt.Sprint(audit.Points))
}
