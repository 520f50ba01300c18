package sheets

import (
	"context"
	"fmt"
	"time"
)

// Store is an external tabular store holding the public leaderboard.
type Store interface {
	// ClearRegion blanks rng (A1 notation) on sheet.
	ClearRegion(ctx context.Context, sheet, rng string) error
	// WriteRegion overwrites rng on sheet with rows.
	WriteRegion(ctx context.Context, sheet, rng string, rows [][]string) error
	// LastModified reports when sheet was last written. The zero time means never.
	LastModified(ctx context.Context, sheet string) (time.Time, error)
}

// ColumnName returns the letter name of a 1-based column index (1 → A, 27 → AA).
func ColumnName(n int) string {
	if n < 1 {
		return ""
	}
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

// Region returns the A1 range of a cols x rows block anchored at A1.
// An empty block still addresses A1 so clears stay valid.
func Region(cols, rows int) string {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return fmt.Sprintf("A1:%s%d", ColumnName(cols), rows)
}

// Columns returns the open-ended range covering the first cols columns.
func Columns(cols int) string {
	if cols < 1 {
		cols = 1
	}
	return "A:" + ColumnName(cols)
}

// A1 joins a sheet title and a range.
func A1(sheet, rng string) string {
	if sheet == "" {
		return rng
	}
	return fmt.Sprintf("'%s'!%s", sheet, rng)
}
