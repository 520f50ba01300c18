// Package server holds the admin HTTP server configuration.
//
// The command entry point owns the Fiber app; this package only defines the listen
// port, the API key and whether the surface is enabled at all.
package server
