// Package ranks maps doubloon balances to rank labels.
//
// A Table is an ordered list of (lower bound, label) tiers starting at zero; the last
// tier is open-ended. Classify is total over non-negative balances and monotonic.
// Cumulative gives the tiers a member has earned, which is what role reconciliation
// grants.
package ranks
