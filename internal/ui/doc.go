// Package ui renders command lifecycle events for human-readable console
// sessions.
package ui
