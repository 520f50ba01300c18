package leaderboard

import "time"

const (
	// BackendSheets mirrors the leaderboard to a Google spreadsheet.
	BackendSheets = "sheets"
	// BackendBucket mirrors the leaderboard to CSV objects in object storage.
	BackendBucket = "bucket"
	// BackendNone disables the mirror.
	BackendNone = "none"
)

// Config holds the leaderboard mirror settings.
type Config struct {
	Backend         string `mapstructure:"backend" default:"sheets"`
	SpreadsheetID   string `mapstructure:"spreadsheet_id" default:""`
	CredentialsFile string `mapstructure:"credentials_file" default:"google_sheet.json"`
	// Sheet receives name/balance pairs, RankSheet the per-rank columns.
	Sheet     string `mapstructure:"sheet" default:"Sheet1"`
	RankSheet string `mapstructure:"rank_sheet" default:"Ranks"`

	IntervalMinutes int `mapstructure:"interval_minutes" default:"10"`
	CooldownSeconds int `mapstructure:"cooldown_seconds" default:"300"`
	// GraceSeconds absorbs clock skew between the database and the sheet.
	GraceSeconds int `mapstructure:"grace_seconds" default:"60"`

	// Link is the public URL of the leaderboard shown in chat replies.
	Link         string `mapstructure:"link" default:""`
	BucketPrefix string `mapstructure:"bucket_prefix" default:""`
}

// Enabled reports whether a mirror backend is configured.
func (c Config) Enabled() bool {
	return c.Backend != "" && c.Backend != BackendNone
}

// Interval returns the periodic sync interval.
func (c Config) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// Cooldown returns the minimum gap between manual syncs.
func (c Config) Cooldown() time.Duration {
	return time.Duration(c.CooldownSeconds) * time.Second
}

// Grace returns the staleness grace buffer.
func (c Config) Grace() time.Duration {
	return time.Duration(c.GraceSeconds) * time.Second
}
