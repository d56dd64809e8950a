// Copyright 2026 Red Hat
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"

	"github.com/sirupsen/logrus"

	"esxinventory/internal/audit"
	"esxinventory/internal/config"
	"esxinventory/internal/inventory"
)

// auditRun ties one invocation to its audit_log row. Audit failures are
// logged and never change the command's outcome.
type auditRun struct {
	ctx     context.Context
	auditor audit.Auditor
	id      int64
	log     logrus.FieldLogger
}

// openAuditor is swapped out by tests.
var openAuditor = func(cfg *config.Config) (audit.Auditor, error) {
	return audit.NewSQLiteAuditor(cfg.AuditDBPath)
}

func startAudit(ctx context.Context, cfg *config.Config, mode, hostQuery string, log logrus.FieldLogger) *auditRun {
	run := &auditRun{ctx: ctx, auditor: audit.NoOpAuditor{}, log: log}
	if !cfg.AuditEnabled {
		return run
	}

	a, err := openAuditor(cfg)
	if err != nil {
		log.WithError(err).WithField("path", cfg.AuditDBPath).Warn("audit disabled")
		return run
	}
	id, runID, err := a.StartExecution(ctx, mode, cfg, hostQuery)
	if err != nil {
		log.WithError(err).Warn("audit disabled")
		_ = a.Close()
		return run
	}
	run.auditor = a
	run.id = id
	run.log = log.WithField("runID", runID)
	return run
}

func (r *auditRun) warn(err error, what string) {
	if err != nil {
		r.log.WithError(err).Warnf("audit: %s", what)
	}
}

func (r *auditRun) event(eventType, message string) {
	r.warn(r.auditor.RecordEvent(r.ctx, r.id, audit.EventRecord{EventType: eventType, Message: message}), "recording event")
}

func (r *auditRun) recordList(records []inventory.VMRecord, doc *inventory.Document) {
	eligible := 0
	for _, rec := range records {
		if rec.Eligible() {
			eligible++
		}
	}

	for _, group := range doc.Children {
		for _, host := range doc.Groups[group].Hosts {
			vars := doc.HostVars[host]
			r.warn(r.auditor.RecordHost(r.ctx, r.id, audit.HostRecord{
				HostKey:      host,
				GroupName:    group,
				VMName:       vars.Name,
				InstanceUUID: vars.InstanceUUID,
				PowerState:   vars.State,
			}), "recording host")
		}
	}

	r.warn(r.auditor.RecordCounts(r.ctx, r.id, audit.Counts{
		VMsSeen:       len(records),
		VMsEligible:   eligible,
		GroupsEmitted: len(doc.Children),
		HostsEmitted:  doc.Hosts(),
	}), "recording counts")
}

func (r *auditRun) recordHost(records []inventory.VMRecord, doc inventory.HostDocument, query string) {
	counts := audit.Counts{VMsSeen: len(records)}
	if vars, ok := doc.Vars(); ok {
		counts.HostsEmitted = 1
		r.warn(r.auditor.RecordHost(r.ctx, r.id, audit.HostRecord{
			HostKey:      query,
			VMName:       vars.Name,
			InstanceUUID: vars.InstanceUUID,
			PowerState:   vars.State,
		}), "recording host")
	}
	r.warn(r.auditor.RecordCounts(r.ctx, r.id, counts), "recording counts")
}

func (r *auditRun) fail(err error) {
	r.event(audit.EventFailed, err.Error())
	r.warn(r.auditor.CompleteExecution(r.ctx, r.id, audit.StatusFailed, err.Error()), "completing execution")
}

func (r *auditRun) succeed() {
	r.warn(r.auditor.CompleteExecution(r.ctx, r.id, audit.StatusSuccess, ""), "completing execution")
}

func (r *auditRun) close() {
	r.warn(r.auditor.Close(), "closing database")
}
