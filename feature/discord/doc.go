// Package discord connects the ledger to a Discord guild.
//
// The Gateway receives reaction and message events. Reactions in the configured
// reaction channel become ledger reaction events; prefixed messages are run by
// the Dispatcher. Membership, Directory and Notifier adapt the REST API to the
// role reconciler.
package discord
