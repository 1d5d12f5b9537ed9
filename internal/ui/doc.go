// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a two-level browser for listening history summaries:
//  1. [TableListView] : Browse the available summary tables
//  2. [TableDetailView] : Scroll through the rows of a selected table
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Summary data is loaded once on startup via a loader callback, so the browser
// works from a finished pipeline run without touching the network.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
