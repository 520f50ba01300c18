// Package database handles database connections and schema inspection.
//
// It wraps GORM to configure either a MySQL server or a local SQLite file as the
// durable home of the balance table.
//
// # Connect
//
// Connect picks the dialector from Config.Driver. SQLite connections are pinned to a
// single pooled connection so that ":memory:" databases behave as one database and
// writers never contend for the file lock.
//
// # Schema Inspection
//
// GetTableColumns and MissingColumns let the ledger verify at startup that an existing
// users table (for example one created by an older bot revision) carries every column
// the store writes.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	missing, err := database.MissingColumns(db, "users", []string{"id", "doubloons"})
package database
