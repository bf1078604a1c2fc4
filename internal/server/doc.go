// Package server provides the HTTP front door of meetlink and the shared
// ServerContext used by both the HTTP handlers and the MCP tools.
//
// # Key Components
//
// ServerContext pairs a credential resolver with a meeting space creator.
// CreateMeeting resolves credentials on every call and then issues exactly
// one space creation request.
//
// Server serves the public routes:
//   - GET /: liveness text, or a redirect to /api/create-meet
//   - GET /api/create-meet: {"meetUrl": ...} or a fixed 500 error body
//   - /mcp: the MCP streamable HTTP transport, when configured
//   - /healthz, /readyz, /healthz/detailed: probes that never touch credentials
//
// Every request gets an X-Request-ID, a server span and HTTP metrics with
// a bounded path label. An optional per-IP rate limiter guards the create
// route.
//
// MetricsServer exposes the Prometheus endpoint on a separate listener so
// metrics stay off the public port.
package server
