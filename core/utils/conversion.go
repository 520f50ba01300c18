package utils

import (
	"strconv"
	"strings"
)

// StripMention turns a chat mention (<@123>, <@!123>) into the bare user ID.
// Anything else is returned trimmed and unchanged.
func StripMention(val string) string {
	v := strings.TrimSpace(val)
	if strings.HasPrefix(v, "<@") && strings.HasSuffix(v, ">") {
		v = strings.TrimSuffix(strings.TrimPrefix(v, "<@"), ">")
		v = strings.TrimPrefix(v, "!")
	}
	return v
}

// IsInteger reports whether val is a base-10 integer with an optional sign.
func IsInteger(val string) bool {
	_, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
	return err == nil
}

// ToInt64 parses val as a base-10 integer, returning ok=false on anything else.
func ToInt64(val string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// SplitPairs parses "k1:v1,k2:v2" into ordered key/value pairs.
// Empty entries are skipped; an entry without a colon yields an empty value.
func SplitPairs(val string) [][2]string {
	var pairs [][2]string
	for _, entry := range strings.Split(val, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		// Split on the last colon so keys (emoji, labels) may contain one.
		idx := strings.LastIndex(entry, ":")
		if idx < 0 {
			pairs = append(pairs, [2]string{entry, ""})
			continue
		}
		pairs = append(pairs, [2]string{strings.TrimSpace(entry[:idx]), strings.TrimSpace(entry[idx+1:])})
	}
	return pairs
}
