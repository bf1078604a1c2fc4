// Package meet_tools provides the MCP tool that creates Google Meet spaces.
//
// Available tools:
//   - meet_create_space - Create a new Meet space and return its join URL
//
// The tool shares credential resolution with the HTTP front door, so a
// cached or configured token serves both. Failures are reported to the
// client with the same generic message the HTTP route uses; the cause is
// only logged.
package meet_tools
