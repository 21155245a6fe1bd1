// Package history keeps an optional SQLite journal of submitted video jobs.
//
// The journal is written by the CLI next to the poller; the core packages
// never read it. Each row records the job's settings when it was submitted
// and its final outcome, so `vidgen history` can list past renders and
// `vidgen watch` can resume an unfinished one.
package history
