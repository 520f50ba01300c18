// Package leaderboard mirrors balances to a public spreadsheet.
//
// Service.Sync is the only writer. It is serialized by one mutex shared by the
// periodic and manual paths, and it skips the export when the sheet is already
// at least as fresh as the balance table. Each export clears and rewrites two
// regions: name/balance pairs sorted by balance, and one column per rank.
//
// # Components
//
//   - Service: freshness check and export.
//   - Scheduler: cron-driven periodic sync and the rate-limited manual trigger.
//   - Handler: HTTP endpoints.
//
// # HTTP Endpoints
//
//   - GET /leaderboard/status : Last export time and public link.
//   - POST /leaderboard/sync : Manual sync. 429 with Retry-After during the cooldown.
package leaderboard
