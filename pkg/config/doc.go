// Package config provides YAML manifest and controller settings loading
// for OpenVNet.
//
// Two document kinds are handled:
//
// Settings: the controller's own configuration (control plane endpoint,
// state store path, poll cadence, policy enforcement, telemetry). Loaded
// with gopkg.in/yaml.v3 and validated with go-playground/validator.
//
// Manifest: the desired state of one virtual network. The manifest is
// typed so that list and boolean fields distinguish "absent" from
// "explicitly empty", which drives whether DHCP agent scheduling is
// reconciled on a given pass.
package config
