// Package instrumentation wires OpenTelemetry metrics and tracing for meetlink.
//
// # Metrics
//
//   - http_requests_total, http_request_duration_seconds: by method, path and status
//   - http_requests_in_flight: requests currently being served
//   - google_api_operations_total, google_api_operation_duration_seconds:
//     Meet and OAuth calls by service, operation and status
//   - credential_resolutions_total: by credential strategy and result
//   - oauth_token_refresh_total: by result
//   - mcp_tool_invocations_total, mcp_tool_duration_seconds: by tool and status
//
// Prometheus is the default exporter and is served from the dedicated metrics
// listener. OTLP and stdout exporters are available for metrics and traces.
//
// # Tracing
//
// Spans are named "<METHOD> <route>" for inbound requests, "google.<service>.<operation>"
// for outbound Google calls and "tool.<name>" for MCP tools.
//
// # Configuration
//
//   - INSTRUMENTATION_ENABLED (default: true)
//   - METRICS_EXPORTER: prometheus, otlp, stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout, none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_INSECURE
//   - OTEL_TRACES_SAMPLER_ARG (default: 0.1)
//   - OTEL_SERVICE_NAME (default: meetlink)
//
// Usage:
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordGoogleAPIOperation(ctx, instrumentation.ServiceMeet,
//		instrumentation.OperationCreate, instrumentation.StatusSuccess, time.Since(start))
package instrumentation
