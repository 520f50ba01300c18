// Package ledger owns doubloon balances.
//
// The Store is the only writer of the users table. Every balance change goes
// through Store.ApplyDelta, which checks the non-negative invariant and
// reclassifies the rank in the same transaction. The Engine turns reaction
// events and admin commands into changes, filters redelivered reactions, writes
// the point history and hands rank transitions to the role reconciler.
//
// # HTTP Endpoints
//
//   - GET /ledger/top?limit=N : Users by balance, highest first.
//   - GET /ledger/users/:id : One balance record.
//   - PUT /ledger/users/:id : Register or rename a user.
//   - POST /ledger/users/:id/award : Add doubloons.
//   - POST /ledger/users/:id/revoke : Remove doubloons.
//   - POST /ledger/ranks/repair : Reclassify stored ranks.
package ledger
