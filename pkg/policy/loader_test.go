package policy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

const sampleRego = `# Denies networks without a name.
package openvnet.policies.sample

import rego.v1

deny contains violation if {
	not input.config.name
	violation := {
		"message": "network must have a name",
		"severity": "error",
	}
}`

func TestLoadFromRegoFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "require-name.rego")
	if err := os.WriteFile(path, []byte(sampleRego), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	l := NewLoader(zerolog.Nop())
	policies, err := l.LoadFromPaths(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(policies) != 1 {
		t.Fatalf("policies = %d, want 1", len(policies))
	}

	p := policies[0]
	if p.Name != "require-name" {
		t.Errorf("name = %q, want require-name", p.Name)
	}
	if !p.Enabled {
		t.Error("loaded policy not enabled")
	}
	if p.Description != "Denies networks without a name." {
		t.Errorf("description = %q", p.Description)
	}
}

func TestLoadFromDirectorySkipsUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.rego"), []byte(sampleRego), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("docs"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	l := NewLoader(zerolog.Nop())
	policies, err := l.LoadFromPaths(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(policies) != 1 {
		t.Errorf("policies = %d, want 1 (README skipped)", len(policies))
	}
}

func TestLoadFromJSONFile(t *testing.T) {
	dir := t.TempDir()
	doc := `{"name": "from-json", "rego": "package openvnet.policies.fromjson\n\nimport rego.v1\n", "enabled": true}`
	path := filepath.Join(dir, "policy.json")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	l := NewLoader(zerolog.Nop())
	policies, err := l.LoadFromPaths(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(policies) != 1 || policies[0].Name != "from-json" {
		t.Fatalf("policies = %+v, want one named from-json", policies)
	}
	if policies[0].Severity != SeverityError {
		t.Errorf("severity default = %q, want %q", policies[0].Severity, SeverityError)
	}
}

func TestLoadedPolicyCompilesInEnforcer(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "require-name.rego"), []byte(sampleRego), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	e := newTestEnforcer(t)
	if err := e.LoadPolicies(context.Background(), []string{dir}); err != nil {
		t.Fatalf("load into enforcer failed: %v", err)
	}

	err := e.Enforce(context.Background(), callerInput("create", []string{"admin"}, map[string]interface{}{}))
	if !IsForbidden(err) {
		t.Errorf("loaded policy not enforced: %v", err)
	}
}
