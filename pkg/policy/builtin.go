package policy

import (
	"time"
)

// GetBuiltinPolicies returns all built-in policies.
func GetBuiltinPolicies() []Policy {
	return []Policy{
		ownerOnlyFieldsPolicy(),
		productionDeletePolicy(),
	}
}

// ownerOnlyFieldsPolicy restricts owner-only network fields to
// administrative callers.
func ownerOnlyFieldsPolicy() Policy {
	return Policy{
		Name:        "owner-only-fields",
		Description: "Restricts tenant_id, shared, and dhcp_agent_ids to administrative callers",
		Severity:    SeverityError,
		Enabled:     true,
		Tags:        []string{"ownership", "network"},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Rego: `package openvnet.policies.ownership

import rego.v1

owner_only_fields := ["dhcp_agent_ids", "shared", "tenant_id"]

deny contains violation if {
	some field in owner_only_fields
	field in object.keys(input.config)
	not "admin" in input.context.roles
	violation := {
		"message": sprintf("field %s may only be supplied by administrative callers", [field]),
		"severity": "error",
		"field": field,
	}
}`,
	}
}

// productionDeletePolicy requires an administrative caller for deletions in
// production.
func productionDeletePolicy() Policy {
	return Policy{
		Name:        "production-delete",
		Description: "Requires an administrative caller for network deletion in production",
		Severity:    SeverityError,
		Enabled:     true,
		Tags:        []string{"operations", "production"},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Rego: `package openvnet.policies.operations

import rego.v1

deny contains violation if {
	input.action == "delete"
	input.context.environment == "production"
	not input.context.dry_run
	not "admin" in input.context.roles
	violation := {
		"message": "network deletion in production requires an administrative caller",
		"severity": "error",
	}
}`,
	}
}
