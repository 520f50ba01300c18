// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client. The bot uses it as the alternative leaderboard mirror:
// when the leaderboard backend is "bucket", each exported sheet is written as a CSV
// object and its LastModified stamp drives the freshness check.
//
// The Client interface keeps the provider mockable (see core/storage/mocks).
//
// # Usage
//
//	client, err := storage.NewClient(config)
//	err = storage.EnsureBucket(ctx, client, "leaderboard", "")
package storage
