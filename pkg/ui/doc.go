// Package ui renders verdicts for the terminal.
package ui
