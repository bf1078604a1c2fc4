// Package cmd implements the command-line interface for meetlink.
//
// This package provides the following commands:
//   - serve: Start the HTTP front door, or the MCP server over stdio
//   - auth: Run the OAuth consent flow once and cache the token file
//   - create: Create one meeting space and print its join URL
//   - generate-docs: Generate markdown documentation for the MCP tools
//   - version: Display version information
//
// The serve command is the default command when no subcommand is specified.
package cmd
