// Package middleware contains HTTP middleware for the admin Fiber application.
//
// # Components
//
//   - Auth: API key validation protecting the ledger, leaderboard and log endpoints.
//   - RayID: Generates a unique Request ID (RayID) for every incoming request,
//     injecting it into the context and response headers for tracing.
package middleware
