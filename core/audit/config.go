package audit

// Config holds configuration for the audit trail files.
type Config struct {
	// Dir is the directory holding the trail files.
	Dir string `mapstructure:"dir" default:"."`
	// MaxSizeMB is the size at which a trail file is rotated.
	MaxSizeMB int `mapstructure:"max_size_mb" default:"10"`
	// MaxBackups is the number of rotated files kept per trail.
	MaxBackups int `mapstructure:"max_backups" default:"5"`
}
