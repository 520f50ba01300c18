package ledger

import (
	"fmt"
	"time"

	"doubloon-tracker/core/ranks"
	"doubloon-tracker/core/utils"
)

// Config holds the ledger settings.
type Config struct {
	// Emojis maps reaction emoji to doubloon amounts ("☑️:10,✅:3").
	Emojis string `mapstructure:"emojis" default:"☑️:10,✅:3"`
	// Tiers is the rank tier table ("0:skull,100:bronze,...").
	Tiers string `mapstructure:"tiers" default:"0:skull,100:bronze,500:silver,1000:gold,2500:platinum"`
	// DedupTTLSeconds is how long a processed reaction is remembered. Zero disables dedup.
	DedupTTLSeconds int `mapstructure:"dedup_ttl_seconds" default:"3600"`
	// DedupSize bounds the number of remembered reactions.
	DedupSize int `mapstructure:"dedup_size" default:"10000"`
}

// DedupTTL returns the dedup window as a duration.
func (c Config) DedupTTL() time.Duration {
	return time.Duration(c.DedupTTLSeconds) * time.Second
}

// RankTable parses the configured tier table.
func (c Config) RankTable() (*ranks.Table, error) {
	if c.Tiers == "" {
		return ranks.ParseTable(ranks.DefaultTiers)
	}
	return ranks.ParseTable(c.Tiers)
}

// EmojiAmounts parses the configured emoji map. Amounts must be positive.
func (c Config) EmojiAmounts() (map[string]int64, error) {
	return ParseEmojis(c.Emojis)
}

// ParseEmojis parses "emoji:amount,emoji:amount".
func ParseEmojis(raw string) (map[string]int64, error) {
	out := make(map[string]int64)
	for _, pair := range utils.SplitPairs(raw) {
		n, ok := utils.ToInt64(pair[1])
		if !ok || n <= 0 {
			return nil, fmt.Errorf("emoji %q has invalid amount %q", pair[0], pair[1])
		}
		if pair[0] == "" {
			return nil, fmt.Errorf("empty emoji in %q", raw)
		}
		out[pair[0]] = n
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no emoji configured")
	}
	return out, nil
}
