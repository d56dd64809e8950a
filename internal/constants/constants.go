// Copyright 2026 Red Hat
// SPDX-License-Identifier: Apache-2.0

package constants

// Environment variable prefix. Each config key maps to PREFIX_<UPPER(key)>,
// e.g. esxi_host -> ANSIBLE_INVENTORY_SCRIPT_ESXI_HOST.
const EnvPrefix = "ANSIBLE_INVENTORY_SCRIPT"

// Config file keys.
const (
	KeyESXiHost     = "esxi_host"
	KeyESXiPort     = "esxi_port"
	KeyESXiUsername = "esxi_username"
	KeyESXiPassword = "esxi_password"
	KeyGroupBy      = "group_by"
	KeyVerifyTLS    = "verify_tls"
	KeyUseIP        = "use_ip"
	KeyOutput       = "output"
	KeyAudit        = "audit"
	KeyAuditDB      = "audit_db"
)

// RequiredKeys lists the keys that must be resolved from the environment or
// the config file.
var RequiredKeys = []string{
	KeyESXiHost,
	KeyESXiPort,
	KeyESXiUsername,
	KeyESXiPassword,
	KeyGroupBy,
}

// Host grouping keys.
const (
	GroupByOSTypeID        = "vm_os_type_id"
	GroupByAnnotationGroup = "vm_annotation_group"
	UngroupedGroup         = "ungrouped"
)

// Values reported by the guest agent that exclude a VM from list mode.
const (
	GuestStateNotRunning    = "notRunning"
	ToolsStatusNotInstalled = "toolsNotInstalled"
)

// Output formats.
const (
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// Defaults for optional settings.
const (
	DefaultVerifyTLS   = false
	DefaultUseIP       = true
	DefaultOutput      = OutputJSON
	DefaultAuditDBPath = ".esxi-inventory/audit.db"
	ConfigFileExt      = ".yaml"
	SDKPath            = "/sdk"
	UserAgent          = "esxi-inventory"
)
