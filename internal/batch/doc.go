// Package batch drives download candidates through a Fetcher, one after
// another or on a bounded worker pool, and keeps the progress accounting
// for the run.
//
// A run always ends in a terminal State: TerminalNoLinks when there was
// nothing to download, TerminalCompleted otherwise. Individual failures are
// counted but never abort the batch.
package batch
