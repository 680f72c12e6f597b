// Package ui renders styled terminal output for the playgraph CLI using lipgloss.
//
// Audit and repair runs report progress through a channel of [tasks.ProgressUpdate] values.
// [Watch] drains that channel and prints one line per update until the producer closes it, so
// the audit itself never waits on the terminal.
//
// [RenderReport] and [RenderRepair] summarize finished runs with the [Palette] colors: green for a clean
// graph, orange for issues, red for failures.
package ui
