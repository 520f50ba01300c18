package ranks

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"doubloon-tracker/core/utils"
)

// ErrInvalidBalance is returned when classifying a negative balance.
var ErrInvalidBalance = errors.New("invalid balance")

// DefaultTiers is the tier table used when none is configured.
const DefaultTiers = "0:skull,100:bronze,500:silver,1000:gold,2500:platinum"

// Tier is one row of the tier table. It covers [Min, next tier's Min).
type Tier struct {
	Min   int64
	Label string
}

// Table is an ordered, contiguous tier table starting at zero.
// The last tier is open-ended.
type Table struct {
	tiers []Tier
	index map[string]int
}

// NewTable validates tiers and builds a table.
// Tiers must start at 0, be strictly ascending, and carry unique non-empty labels.
func NewTable(tiers []Tier) (*Table, error) {
	if len(tiers) == 0 {
		return nil, errors.New("tier table is empty")
	}
	if tiers[0].Min != 0 {
		return nil, fmt.Errorf("first tier must start at 0, got %d", tiers[0].Min)
	}

	t := &Table{
		tiers: make([]Tier, len(tiers)),
		index: make(map[string]int, len(tiers)),
	}
	copy(t.tiers, tiers)

	for i, tier := range t.tiers {
		if tier.Label == "" {
			return nil, fmt.Errorf("tier %d has an empty label", i)
		}
		if i > 0 && tier.Min <= t.tiers[i-1].Min {
			return nil, fmt.Errorf("tier %q (%d) is not above %q (%d)", tier.Label, tier.Min, t.tiers[i-1].Label, t.tiers[i-1].Min)
		}
		if _, dup := t.index[tier.Label]; dup {
			return nil, fmt.Errorf("duplicate tier label %q", tier.Label)
		}
		t.index[tier.Label] = i
	}
	return t, nil
}

// ParseTable parses "0:skull,100:bronze,..." into a table.
func ParseTable(raw string) (*Table, error) {
	var tiers []Tier
	for _, pair := range utils.SplitPairs(raw) {
		min, ok := utils.ToInt64(pair[0])
		if !ok {
			return nil, fmt.Errorf("tier bound %q is not an integer", pair[0])
		}
		tiers = append(tiers, Tier{Min: min, Label: pair[1]})
	}
	return NewTable(tiers)
}

// MustDefault returns the default table. It panics only if DefaultTiers is malformed.
func MustDefault() *Table {
	t, err := ParseTable(DefaultTiers)
	if err != nil {
		panic(err)
	}
	return t
}

// Classify returns the label of the tier containing balance.
func (t *Table) Classify(balance int64) (string, error) {
	if balance < 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidBalance, balance)
	}
	// First tier whose lower bound is above balance; the one before it contains balance.
	i := sort.Search(len(t.tiers), func(i int) bool { return t.tiers[i].Min > balance })
	return t.tiers[i-1].Label, nil
}

// Lowest returns the label of tier 0, the rank of a fresh record.
func (t *Table) Lowest() string {
	return t.tiers[0].Label
}

// Ordinal returns the position of label in the table.
func (t *Table) Ordinal(label string) (int, bool) {
	i, ok := t.index[label]
	return i, ok
}

// Tiers returns a copy of the table rows.
func (t *Table) Tiers() []Tier {
	out := make([]Tier, len(t.tiers))
	copy(out, t.tiers)
	return out
}

// Labels returns the tier labels in ascending order.
func (t *Table) Labels() []string {
	out := make([]string, len(t.tiers))
	for i, tier := range t.tiers {
		out[i] = tier.Label
	}
	return out
}

// Cumulative returns the labels of tiers 1..ordinal(label), the tiers a member at
// label has earned. Tier 0 and unknown labels yield nothing.
func (t *Table) Cumulative(label string) []string {
	i, ok := t.index[label]
	if !ok || i == 0 {
		return nil
	}
	out := make([]string, 0, i)
	for _, tier := range t.tiers[1 : i+1] {
		out = append(out, tier.Label)
	}
	return out
}

// String renders the table back into its config form.
func (t *Table) String() string {
	parts := make([]string, len(t.tiers))
	for i, tier := range t.tiers {
		parts[i] = fmt.Sprintf("%d:%s", tier.Min, tier.Label)
	}
	return strings.Join(parts, ",")
}
