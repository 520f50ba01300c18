// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance that supports different environments (development vs production)
// and integrates with the Fiber admin API.
//
// # Context Awareness
//
// HTTP handlers log through WithRayID so every line of a request carries the same
// ray_id. Long-lived components (gateway, scheduler, reconciler) use ForComponent to
// get a named child logger.
//
// # Configuration
//
//   - Level: debug, info, warn, error
//   - Format: json (production) or console (development)
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	log.Info("Bot started")
package logger
