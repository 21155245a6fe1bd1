// Package notifications delivers video job events via ntfy.
//
// The default implementation publishes to the ntfy topic URL configured in
// config.toml and degrades to a no-op when no topic is set. Per-event toggles
// let users silence completions or failures without removing the topic.
package notifications
