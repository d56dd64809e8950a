// Copyright 2026 Red Hat
// SPDX-License-Identifier: Apache-2.0

// Package inventory turns hypervisor VM snapshots into the Ansible dynamic
// inventory document.
package inventory

import "esxinventory/internal/constants"

// VMRecord is a read-only snapshot of one virtual machine as reported by the
// management endpoint.
type VMRecord struct {
	Name         string
	PowerState   string
	Template     bool
	Path         string
	InstanceUUID string
	Annotation   string
	MemoryMB     int32
	NumCPU       int32

	GuestState         string
	GuestID            string
	GuestFamily        string
	GuestFullName      string
	ToolsStatus        string
	ToolsRunningStatus string
	HostName           string
	// IPAddress is the guest-reported primary address; SummaryIPAddress is
	// the copy carried in the VM summary.
	IPAddress        string
	SummaryIPAddress string
}

// Eligible reports whether the VM may appear in list mode.
func (r VMRecord) Eligible() bool {
	return r.GuestState != constants.GuestStateNotRunning &&
		r.ToolsStatus != constants.ToolsStatusNotInstalled
}

// HostID returns the identifier Ansible uses for this VM.
func (r VMRecord) HostID(useIP bool) string {
	if useIP {
		return r.IPAddress
	}
	return r.HostName
}

// Matches reports whether query names this VM by IP address or hostname.
func (r VMRecord) Matches(query string) bool {
	return query == r.IPAddress || query == r.HostName
}

// HostVars is the per-host attribute set exposed under _meta.hostvars.
type HostVars struct {
	Name               string `json:"vm_name"`
	State              string `json:"vm_state"`
	Template           bool   `json:"vm_template"`
	Path               string `json:"vm_path"`
	InstanceUUID       string `json:"vm_instance_uuid"`
	Annotation         string `json:"vm_annotation"`
	MemoryMB           int32  `json:"vm_spec_memory_mb"`
	CPUCount           int32  `json:"vm_spec_cpu_count"`
	OSTypeID           string `json:"vm_os_type_id"`
	OSTypeName         string `json:"vm_os_type_name"`
	ToolsStatus        string `json:"vm_tools_status"`
	ToolsRunningStatus string `json:"vm_tools_running_status"`
	Hostname           string `json:"vm_hostname"`
	IPAddress          string `json:"vm_ip_address"`
}

// ProjectHostVars copies the attributes Ansible sees from a record.
func ProjectHostVars(r VMRecord) HostVars {
	return HostVars{
		Name:               r.Name,
		State:              r.PowerState,
		Template:           r.Template,
		Path:               r.Path,
		InstanceUUID:       r.InstanceUUID,
		Annotation:         r.Annotation,
		MemoryMB:           r.MemoryMB,
		CPUCount:           r.NumCPU,
		OSTypeID:           r.GuestID,
		OSTypeName:         r.GuestFullName,
		ToolsStatus:        r.ToolsStatus,
		ToolsRunningStatus: r.ToolsRunningStatus,
		Hostname:           r.HostName,
		IPAddress:          r.SummaryIPAddress,
	}
}
