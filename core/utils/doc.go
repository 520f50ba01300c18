// Package utils provides small parsing helpers shared by the ledger, the chat
// gateway and the configuration layer: mention stripping, strict integer parsing
// and the "key:value,key:value" format used for list-valued settings.
package utils
