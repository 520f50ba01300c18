// Package loader provides the feature loading system for the admin API.
//
// Each feature (ledger, leaderboard, auditlog) implements Feature and is registered
// with a Manager at startup; LoadAll mounts the routes of every enabled feature.
//
//	type Feature interface {
//	    Name() string
//	    IsEnabled() bool
//	    Load(app fiber.Router) error
//	}
package loader
