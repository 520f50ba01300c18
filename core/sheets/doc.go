// Package sheets writes tabular regions to the public leaderboard.
//
// Two backends implement Store: GoogleStore for a Google spreadsheet and
// BucketStore for CSV objects in an S3-compatible bucket.
package sheets
