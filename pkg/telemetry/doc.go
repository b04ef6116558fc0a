// Package telemetry bundles structured logging, Prometheus metrics, and
// OpenTelemetry tracing for the network lifecycle controller. All collectors
// degrade to no-ops when disabled or nil, so library code records telemetry
// unconditionally.
package telemetry
