// Package services defines shared utilities consumed by the gateway, the task
// poller, and the presentation controllers.
//
// Key responsibilities:
//   - Structured error markers plus the Wrap helper that classify failures as
//     validation, transport, server, or format errors so callers can decide
//     between a local warning and a retry prompt with errors.Is.
//   - Context helpers that stamp task IDs, screen names, and correlation
//     identifiers for logging.
//
// Use these helpers when wiring new remote calls so operational behaviour
// (error classification, observability) stays uniform across the client.
package services
