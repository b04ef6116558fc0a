package config

import (
	"encoding/json"
	"time"

	"github.com/openvnet/openvnet/pkg/descriptor"
	"github.com/openvnet/openvnet/pkg/telemetry"
)

// Settings is the controller's own configuration.
type Settings struct {
	// ControlPlane configures the connection to the remote control plane.
	ControlPlane ControlPlaneSettings `yaml:"control_plane"`

	// Store configures controller state persistence.
	Store StoreSettings `yaml:"store"`

	// Poll configures completion polling cadence.
	Poll PollSettings `yaml:"poll"`

	// Policy configures policy enforcement.
	Policy PolicySettings `yaml:"policy"`

	// Telemetry configures logging, tracing, and metrics.
	Telemetry TelemetrySettings `yaml:"telemetry"`
}

// ControlPlaneSettings configures the control plane client.
type ControlPlaneSettings struct {
	// Endpoint is the control plane endpoint URL. The memory:// scheme
	// selects the in-process fake.
	Endpoint string `yaml:"endpoint" validate:"required"`

	// Timeout bounds individual remote calls.
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`
}

// StoreSettings configures the SQLite state store.
type StoreSettings struct {
	// Path is the database file path, or :memory: for an ephemeral store.
	Path string `yaml:"path" validate:"required"`
}

// PollSettings configures how transitional phases are polled to completion.
type PollSettings struct {
	// Interval is the delay between completion checks.
	Interval time.Duration `yaml:"interval" validate:"gte=0"`

	// Deadline bounds how long a single transition may stay in flight.
	// Zero means no deadline.
	Deadline time.Duration `yaml:"deadline" validate:"gte=0"`
}

// PolicySettings configures policy enforcement.
type PolicySettings struct {
	// Enabled indicates if policy enforcement is enabled.
	Enabled bool `yaml:"enabled"`

	// Paths lists extra policy files or directories loaded next to the
	// built-in policies.
	Paths []string `yaml:"paths"`

	// Watch reloads policies when files under Paths change.
	Watch bool `yaml:"watch"`
}

// TelemetrySettings is the YAML-facing subset of the telemetry configuration.
type TelemetrySettings struct {
	// Environment specifies the deployment environment (development,
	// staging, production).
	Environment string `yaml:"environment" validate:"omitempty,oneof=development staging production"`

	// LogLevel sets the minimum log level.
	LogLevel string `yaml:"log_level" validate:"omitempty,oneof=trace debug info warn error fatal"`

	// LogFormat specifies the log format (console, json).
	LogFormat string `yaml:"log_format" validate:"omitempty,oneof=console json"`

	// MetricsEnabled exposes the Prometheus endpoint.
	MetricsEnabled bool `yaml:"metrics_enabled"`

	// MetricsAddress is the metrics HTTP listen address.
	MetricsAddress string `yaml:"metrics_address"`

	// TracingEnabled turns on span export.
	TracingEnabled bool `yaml:"tracing_enabled"`

	// TracingExporter selects the exporter (otlp, stdout, none).
	TracingExporter string `yaml:"tracing_exporter" validate:"omitempty,oneof=otlp stdout none"`

	// TracingEndpoint is the OTLP collector endpoint.
	TracingEndpoint string `yaml:"tracing_endpoint"`
}

// ToTelemetry overlays the settings onto the default telemetry configuration.
func (t TelemetrySettings) ToTelemetry(version string) *telemetry.Config {
	cfg := telemetry.DefaultConfig()
	cfg.ServiceVersion = version
	if t.Environment != "" {
		cfg.Environment = t.Environment
	}
	if t.LogLevel != "" {
		cfg.Logging.Level = t.LogLevel
	}
	if t.LogFormat != "" {
		cfg.Logging.Format = t.LogFormat
	}
	cfg.Metrics.Enabled = t.MetricsEnabled
	if t.MetricsAddress != "" {
		cfg.Metrics.ListenAddress = t.MetricsAddress
	}
	cfg.Tracing.Enabled = t.TracingEnabled
	if t.TracingExporter != "" {
		cfg.Tracing.Exporter = t.TracingExporter
	}
	if t.TracingEndpoint != "" {
		cfg.Tracing.Endpoint = t.TracingEndpoint
	}
	return cfg
}

// Manifest declares the desired state of one virtual network.
type Manifest struct {
	// Name is the logical resource name the controller tracks the network
	// under. It is distinct from the network's own name field.
	Name string `yaml:"name" validate:"required"`

	// Network is the desired network configuration.
	Network NetworkManifest `yaml:"network"`
}

// NetworkManifest is the desired network configuration. Pointer fields
// distinguish "absent" from "explicitly set", which matters for agent
// scheduling: a missing dhcp_agent_ids list leaves scheduling untouched
// while an explicitly empty one unschedules every agent.
type NetworkManifest struct {
	// Name is the symbolic network name.
	Name string `yaml:"name"`

	// AdminStateUp is the administrative status of the network.
	AdminStateUp *bool `yaml:"admin_state_up"`

	// TenantID is the tenant owning the network.
	TenantID string `yaml:"tenant_id"`

	// Shared marks the network as shared across all tenants.
	Shared *bool `yaml:"shared"`

	// ValueSpecs holds extra control-plane specific parameters.
	ValueSpecs map[string]interface{} `yaml:"value_specs"`

	// DHCPAgentIDs lists the DHCP agents to schedule the network on.
	DHCPAgentIDs *[]string `yaml:"dhcp_agent_ids"`
}

// ToConfig converts the manifest into a resolved configuration. Only
// fields the manifest actually supplies appear in the result.
func (m *NetworkManifest) ToConfig() descriptor.Config {
	cfg := descriptor.Config{}
	if m.Name != "" {
		cfg[descriptor.FieldName] = m.Name
	}
	if m.AdminStateUp != nil {
		cfg[descriptor.FieldAdminStateUp] = *m.AdminStateUp
	}
	if m.TenantID != "" {
		cfg[descriptor.FieldTenantID] = m.TenantID
	}
	if m.Shared != nil {
		cfg[descriptor.FieldShared] = *m.Shared
	}
	if len(m.ValueSpecs) > 0 {
		cfg[descriptor.FieldValueSpecs] = m.ValueSpecs
	}
	if m.DHCPAgentIDs != nil {
		ids := make([]string, len(*m.DHCPAgentIDs))
		copy(ids, *m.DHCPAgentIDs)
		cfg[descriptor.FieldDHCPAgentIDs] = ids
	}
	return cfg
}

// Diff returns the fields of desired whose values differ from previous.
// It is the input shape the update projection expects.
func Diff(previous, desired descriptor.Config) descriptor.Config {
	diff := descriptor.Config{}
	for name, value := range desired {
		if !equalValues(previous[name], value) {
			diff[name] = value
		}
	}
	return diff
}

// equalValues compares two configuration values through their JSON form,
// which normalizes map ordering and numeric types.
func equalValues(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	aj, errA := json.Marshal(a)
	bj, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(aj) == string(bj)
}
