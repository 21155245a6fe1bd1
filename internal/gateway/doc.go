// Package gateway is the typed HTTP client for the video generation backend.
//
// One Client is built per process and shared by the controllers and the task
// poller. Every operation validates its input before touching the network,
// applies the configured timeout, logs one line at the boundary, and
// classifies failures with the services error markers so callers can branch
// with errors.Is. The gateway never retries on its own.
package gateway
