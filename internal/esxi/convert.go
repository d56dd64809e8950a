// Copyright 2026 Red Hat
// SPDX-License-Identifier: Apache-2.0

package esxi

import (
	"github.com/vmware/govmomi/vim25/mo"

	"esxinventory/internal/inventory"
)

// ToRecord flattens the name, guest and summary properties of a VM. Missing
// guest information leaves the corresponding fields empty.
func ToRecord(vm *mo.VirtualMachine) inventory.VMRecord {
	cfg := vm.Summary.Config
	r := inventory.VMRecord{
		Name:         vm.Name,
		PowerState:   string(vm.Summary.Runtime.PowerState),
		Template:     cfg.Template,
		Path:         cfg.VmPathName,
		InstanceUUID: cfg.InstanceUuid,
		Annotation:   cfg.Annotation,
		MemoryMB:     cfg.MemorySizeMB,
		NumCPU:       cfg.NumCpu,
	}
	if r.Name == "" {
		r.Name = cfg.Name
	}

	if g := vm.Guest; g != nil {
		r.GuestState = g.GuestState
		r.GuestID = g.GuestId
		r.GuestFamily = g.GuestFamily
		r.GuestFullName = g.GuestFullName
		r.ToolsStatus = string(g.ToolsStatus)
		r.ToolsRunningStatus = g.ToolsRunningStatus
		r.HostName = g.HostName
		r.IPAddress = g.IpAddress
	}
	if sg := vm.Summary.Guest; sg != nil {
		r.SummaryIPAddress = sg.IpAddress
	}
	return r
}
