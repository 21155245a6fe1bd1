// Package main hosts the vidgen CLI entrypoint and command graph.
//
// The Cobra command tree maps terminal invocations onto the gateway, the task
// poller and the presentation controllers: parsing scripts, generating
// characters and scenes, submitting and watching video jobs, downloading the
// result, and launching the interactive studio. It also owns configuration
// resolution and logger setup so subcommands only deal with user experience.
//
// `vidgen dev-server` runs the simulated backend locally for trying the
// workflow without the real generation service.
package main
