// Package controller holds the presentation state for each screen.
//
// Controllers collect input, guard it locally, call the gateway or the task
// poller, and project results into immutable View snapshots. They emit
// Notices for everything the user should be told. The CLI and the terminal UI
// drive the same controllers.
package controller
