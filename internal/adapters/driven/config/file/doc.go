// Package file provides file-based configuration and prompt storage
// under ~/.lecta/. The TOML config selects providers and tuning knobs;
// prompts live as plain text files the user can edit, with embedded
// defaults written on first use.
package file
