// Package config loads, normalizes, and validates vidgen configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// VIDGEN_API_URL. The Config type centralizes every knob the gateway, the task
// poller, the CLI, and the dev backend need so they are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
