package descriptor

// Configurable field names of the network resource.
const (
	// FieldName is the symbolic network name; not required to be unique.
	FieldName = "name"

	// FieldValueSpecs holds extra control-plane specific parameters merged
	// into the creation request.
	FieldValueSpecs = "value_specs"

	// FieldAdminStateUp is the administrative status of the network.
	FieldAdminStateUp = "admin_state_up"

	// FieldTenantID is the tenant that will own the network.
	FieldTenantID = "tenant_id"

	// FieldShared marks the network as shared across all tenants.
	FieldShared = "shared"

	// FieldDHCPAgentIDs lists the DHCP agents the network is scheduled on.
	// The field never reaches the control plane payload; it is reconciled
	// out-of-band through the agent scheduling endpoints.
	FieldDHCPAgentIDs = "dhcp_agent_ids"
)

// Read-only attribute names resolvable from an observed snapshot.
const (
	// AttrStatus is the provisioning status of the network.
	AttrStatus = "status"

	// AttrName is the network name reported by the control plane.
	AttrName = "name"

	// AttrSubnets lists the subnets of the network.
	AttrSubnets = "subnets"

	// AttrAdminStateUp is the administrative status.
	AttrAdminStateUp = "admin_state_up"

	// AttrTenantID is the owning tenant.
	AttrTenantID = "tenant_id"

	// AttrShow resolves to the whole snapshot.
	AttrShow = "show"
)

// Network returns the descriptor of the virtual network resource.
func Network() *Descriptor {
	return &Descriptor{
		Resource: "network",
		Fields: map[string]FieldSpec{
			FieldName: {
				Type:          FieldString,
				Description:   "A symbolic name for the network, not required to be unique.",
				UpdateAllowed: true,
				Derived:       true,
			},
			FieldValueSpecs: {
				Type:          FieldMap,
				Description:   "Extra parameters to include in the creation request; often specific to installed hardware or extensions.",
				Default:       map[string]interface{}{},
				UpdateAllowed: true,
				Inline:        true,
			},
			FieldAdminStateUp: {
				Type:          FieldBool,
				Description:   "The administrative status of the network.",
				Default:       true,
				UpdateAllowed: true,
			},
			FieldTenantID: {
				Type:        FieldString,
				Description: "The tenant owning the network. Only administrative callers may set it.",
				OwnerOnly:   true,
			},
			FieldShared: {
				Type:          FieldBool,
				Description:   "Whether the network is shared across all tenants.",
				Default:       false,
				UpdateAllowed: true,
				OwnerOnly:     true,
			},
			FieldDHCPAgentIDs: {
				Type:          FieldList,
				Description:   "The DHCP agents to schedule the network on.",
				UpdateAllowed: true,
				OwnerOnly:     true,
				Internal:      true,
			},
		},
		Attributes: []string{
			AttrStatus, AttrName, AttrSubnets, AttrAdminStateUp, AttrTenantID, AttrShow,
		},
	}
}
