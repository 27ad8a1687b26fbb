// Package mux provides an abstraction over terminal multiplexers.
//
// This package is transport only: it reports session topology and pane
// content as the multiplexer sees it and leaves all interpretation to the
// proc and status packages.
package mux

import (
	"context"

	"github.com/timvw/claude-panes/internal/model"
)

// Multiplexer abstracts the multiplexer operations the loader and the
// consumer loop need.
type Multiplexer interface {
	// Name returns the multiplexer name (e.g., "tmux").
	Name() string

	// ListPanes returns every pane across every session and window in a
	// single round trip. An error means the multiplexer could not be queried.
	ListPanes(ctx context.Context) ([]model.PaneFact, error)

	// CapturePane returns the last lines non-blank lines of the pane's
	// rendered content, including ANSI styling.
	CapturePane(ctx context.Context, paneID string, lines int) (string, error)

	// SwitchTo moves the current client to the given pane.
	SwitchTo(ctx context.Context, paneID string) error
}
