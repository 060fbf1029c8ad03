// Package driving provides interfaces for user-facing adapters
// (primary/inbound ports): the CLI commands and the chat TUI.
package driving
