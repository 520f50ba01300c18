// Package audit writes the append-only, human-readable trail files.
//
// There are four trails: command history, point history, error log and debug log.
// Each line is "<timestamp> - <message>". Writers are zap cores over
// lumberjack-rotated files; Tail and Full read the current file back for the admin
// "show logs" surface.
package audit
