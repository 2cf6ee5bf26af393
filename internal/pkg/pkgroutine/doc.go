// Package pkgroutine contains helpers for running goroutines safely.
//
// The Manager type limits concurrency and collects returned errors. Panics are
// logged and recorded as errors so background work (preview parsing, remote
// analysis) never crashes the process silently.
package pkgroutine
