// Package config loads the bot configuration.
//
// Values come from an optional .env file and the environment, read with Viper.
// Defaults live in the `default` struct tags of each section; nested keys map
// to SECTION_KEY variables (DISCORD_TOKEN -> discord.token).
//
// # Configuration Structure
//
//   - Server: admin HTTP port and API key
//   - Database: sqlite file or MySQL connection
//   - Storage: S3/MinIO bucket for the CSV leaderboard backend
//   - Log: logging level and format
//   - Ledger: emoji amounts, rank tiers, reaction dedup window
//   - Leaderboard: mirror backend, sheet names, sync interval and cooldown
//   - Discord: bot token, guild, reaction channel, admins, tier roles
//   - Audit: trail directory and rotation
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config
