package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrNoSurface is returned when the prompter has nowhere to store answers.
	ErrNoSurface = errors.New("tui: surface is nil")
)
