// Package poller drives a single video job from submission to a terminal
// state.
//
// A Poller owns one task slot. Submit and Track start a run; starting another
// run supersedes the previous one, whose late results are discarded by
// identity. Polls are strictly sequential: the next wait starts only after the
// previous status has been applied. Fetch failures are logged and skipped.
// Observers receive events outside the internal lock, in the order the state
// changed.
package poller
