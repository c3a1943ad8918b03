// Package ui holds the color themes shared by the CLI output and the
// TUI dashboard. It exposes ANSI escape accessors for plain terminal
// output and lipgloss color palettes for the dashboard, both switched by
// a single theme selection that honors NO_COLOR.
package ui
