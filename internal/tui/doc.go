// Package tui is the interactive terminal studio.
//
// A single bubbletea model hosts four tabs (Script, Characters, Scenes and
// Video), each rendering one controller's view. Controller notices and video
// view changes are forwarded into the program as tea messages through a
// bridge channel, so observers never touch model state directly.
package tui
