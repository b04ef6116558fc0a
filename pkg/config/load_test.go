package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/openvnet/openvnet/pkg/descriptor"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	return path
}

func TestLoadSettingsOverlaysDefaults(t *testing.T) {
	path := writeFile(t, "settings.yaml", `
control_plane:
  endpoint: memory://
poll:
  interval: 250ms
  deadline: 1m
telemetry:
  log_level: debug
`)

	settings, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if settings.Poll.Interval != 250*time.Millisecond {
		t.Errorf("poll interval = %v, want 250ms", settings.Poll.Interval)
	}
	if settings.Poll.Deadline != time.Minute {
		t.Errorf("poll deadline = %v, want 1m", settings.Poll.Deadline)
	}
	if settings.Telemetry.LogLevel != "debug" {
		t.Errorf("log level = %q, want debug", settings.Telemetry.LogLevel)
	}
	// Untouched fields keep defaults.
	if settings.Store.Path != "openvnet.db" {
		t.Errorf("store path = %q, want default", settings.Store.Path)
	}
	if !settings.Policy.Enabled {
		t.Error("policy enforcement disabled by default overlay")
	}
}

func TestLoadSettingsRejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, "settings.yaml", `
control_plane:
  endpoint: memory://
  retries: 3
`)

	if _, err := LoadSettings(path); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestLoadSettingsRejectsBadLogLevel(t *testing.T) {
	path := writeFile(t, "settings.yaml", `
control_plane:
  endpoint: memory://
telemetry:
  log_level: verbose
`)

	if _, err := LoadSettings(path); err == nil {
		t.Fatal("expected invalid log level to be rejected")
	}
}

func TestParseManifestRequiresName(t *testing.T) {
	if _, err := ParseManifest([]byte("network:\n  name: frontend\n")); err == nil {
		t.Fatal("expected manifest without a logical name to be rejected")
	}
}

func TestManifestToConfigOmitsUnsetFields(t *testing.T) {
	manifest, err := ParseManifest([]byte(`
name: frontend
network:
  name: frontend-net
  tenant_id: t-100
`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	cfg := manifest.Network.ToConfig()
	if cfg[descriptor.FieldName] != "frontend-net" {
		t.Errorf("name = %v", cfg[descriptor.FieldName])
	}
	if cfg[descriptor.FieldTenantID] != "t-100" {
		t.Errorf("tenant_id = %v", cfg[descriptor.FieldTenantID])
	}
	if _, ok := cfg[descriptor.FieldAdminStateUp]; ok {
		t.Error("unset admin_state_up leaked into config")
	}
	if _, ok := cfg[descriptor.FieldDHCPAgentIDs]; ok {
		t.Error("unset dhcp_agent_ids leaked into config")
	}
}

func TestManifestExplicitEmptyAgentList(t *testing.T) {
	manifest, err := ParseManifest([]byte(`
name: frontend
network:
  dhcp_agent_ids: []
`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	cfg := manifest.Network.ToConfig()
	ids, ok := cfg[descriptor.FieldDHCPAgentIDs].([]string)
	if !ok {
		t.Fatal("explicit empty dhcp_agent_ids missing from config")
	}
	if len(ids) != 0 {
		t.Errorf("ids = %v, want empty", ids)
	}
}

func TestManifestFalseBooleanSurvives(t *testing.T) {
	manifest, err := ParseManifest([]byte(`
name: frontend
network:
  admin_state_up: false
`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	cfg := manifest.Network.ToConfig()
	v, ok := cfg[descriptor.FieldAdminStateUp]
	if !ok {
		t.Fatal("explicit false admin_state_up missing from config")
	}
	if v != false {
		t.Errorf("admin_state_up = %v, want false", v)
	}
}

func TestDiff(t *testing.T) {
	previous := descriptor.Config{
		descriptor.FieldName:         "before",
		descriptor.FieldAdminStateUp: true,
		descriptor.FieldShared:       false,
	}
	desired := descriptor.Config{
		descriptor.FieldName:         "after",
		descriptor.FieldAdminStateUp: true,
		descriptor.FieldDHCPAgentIDs: []string{"agent-a"},
	}

	diff := Diff(previous, desired)
	if diff[descriptor.FieldName] != "after" {
		t.Errorf("changed name missing from diff: %v", diff)
	}
	if _, ok := diff[descriptor.FieldAdminStateUp]; ok {
		t.Error("unchanged admin_state_up present in diff")
	}
	if _, ok := diff[descriptor.FieldDHCPAgentIDs]; !ok {
		t.Error("newly supplied dhcp_agent_ids missing from diff")
	}
}

func TestDiffValueSpecsComparedStructurally(t *testing.T) {
	previous := descriptor.Config{
		descriptor.FieldValueSpecs: map[string]interface{}{"a": "1", "b": "2"},
	}
	desired := descriptor.Config{
		descriptor.FieldValueSpecs: map[string]interface{}{"b": "2", "a": "1"},
	}

	if diff := Diff(previous, desired); len(diff) != 0 {
		t.Errorf("semantically equal value_specs produced diff: %v", diff)
	}
}
