// Package batch splits a slice into fixed-size batches and runs a callback
// over each, sequentially or with bounded concurrency, reporting progress
// after every batch. Bulk log import uses it to write many days of activity
// without holding the whole import in flight at once.
package batch
