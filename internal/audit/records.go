// Copyright 2026 Red Hat
// SPDX-License-Identifier: Apache-2.0

package audit

// Execution modes.
const (
	ModeList = "list"
	ModeHost = "host"
)

// Execution statuses.
const (
	StatusInProgress = "in_progress"
	StatusSuccess    = "success"
	StatusFailed     = "failed"
)

// Event types.
const (
	EventConnected  = "connected"
	EventEnumerated = "enumerated"
	EventRendered   = "rendered"
	EventFailed     = "failed"
)

// Counts holds the inventory totals written to the audit_log row.
type Counts struct {
	VMsSeen       int
	VMsEligible   int
	GroupsEmitted int
	HostsEmitted  int
}

// HostRecord holds data for inserting a host_details row.
type HostRecord struct {
	HostKey      string
	GroupName    string
	VMName       string
	InstanceUUID string
	PowerState   string
}

// EventRecord holds data for inserting an events row.
type EventRecord struct {
	EventType   string
	Message     string
	ErrorDetail string
}
