// Package devbackend is a deterministic stand-in for the generation backend.
//
// It serves the same HTTP/JSON routes as the real service under /api, parses
// scripts with a simple line grammar, invents character and scene assets, and
// advances video jobs through fixed progress steps. Progress is derived from
// elapsed time on each read, so the server runs no background goroutines.
// `vidgen dev-server` and the integration tests use it.
package devbackend
