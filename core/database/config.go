package database

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Config holds configuration for the database connection.
type Config struct {
	// Driver is the database driver (mysql, sqlite).
	Driver string `mapstructure:"driver" default:"sqlite"`
	// Host is the database host. Ignored for sqlite.
	Host string `mapstructure:"host" default:"localhost"`
	// Port is the database port. Ignored for sqlite.
	Port int `mapstructure:"port" default:"3306"`
	// User is the database user. Ignored for sqlite.
	User string `mapstructure:"user" default:"root"`
	// Password is the database password. Ignored for sqlite.
	Password string `mapstructure:"password" default:""`
	// Name is the database name, or the file path for sqlite.
	Name string `mapstructure:"name" default:"discordbot.db"`
	// TimeoutSeconds bounds connection setup and the initial ping.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}
