// Package auditlog exposes the audit trail files for read-back.
//
//   - GET /logs : Trail names.
//   - GET /logs/:name?lines=N : Last N lines.
//   - GET /logs/:name/full : The whole current file.
package auditlog
