// Copyright 2026 Red Hat
// SPDX-License-Identifier: Apache-2.0

package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"esxinventory/internal/config"
)

// Auditor defines the contract for recording inventory runs.
type Auditor interface {
	// StartExecution creates an audit_log row and returns its ID and generated run UUID.
	StartExecution(ctx context.Context, mode string, cfg *config.Config, hostQuery string) (executionID int64, runID string, err error)
	// RecordCounts stores the inventory totals on the audit_log row.
	RecordCounts(ctx context.Context, id int64, c Counts) error
	// CompleteExecution finalises the audit_log row with status and optional error summary.
	CompleteExecution(ctx context.Context, id int64, status string, errSummary string) error

	// RecordHost inserts a host_details row.
	RecordHost(ctx context.Context, executionID int64, h HostRecord) error
	// RecordEvent inserts an events row.
	RecordEvent(ctx context.Context, executionID int64, e EventRecord) error

	// Close releases database resources.
	Close() error
}

// SQLiteAuditor implements Auditor backed by a SQLite database.
type SQLiteAuditor struct {
	db *sql.DB
}

// NewSQLiteAuditor opens (or creates) the SQLite database at dbPath and ensures
// the schema is applied.
func NewSQLiteAuditor(dbPath string) (*SQLiteAuditor, error) {
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating audit db directory: %w", err)
		}
	}

	dsn := dbPath + "?_journal_mode=WAL&_foreign_keys=on"
	if dbPath == ":memory:" {
		dsn = "file::memory:?mode=memory&cache=shared&_foreign_keys=on"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening audit db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying audit schema: %w", err)
	}

	return &SQLiteAuditor{db: db}, nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func (a *SQLiteAuditor) StartExecution(ctx context.Context, mode string, cfg *config.Config, hostQuery string) (int64, string, error) {
	runID := uuid.New().String()

	res, err := a.db.ExecContext(ctx, `
		INSERT INTO audit_log (
			run_id, mode, status, esxi_host, esxi_port, esxi_username,
			group_by, use_ip, verify_tls, host_query, output_format, config_path, started_at
		) VALUES (?, ?, 'in_progress', ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, mode, cfg.ESXiHost, cfg.ESXiPort, cfg.ESXiUsername,
		cfg.GroupBy, boolToInt(cfg.UseIP), boolToInt(cfg.VerifyTLS), nullIfEmpty(hostQuery),
		cfg.Output, nullIfEmpty(cfg.ConfigPath), now(),
	)
	if err != nil {
		return 0, "", fmt.Errorf("inserting audit_log: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, "", fmt.Errorf("getting audit_log id: %w", err)
	}
	return id, runID, nil
}

func (a *SQLiteAuditor) RecordCounts(ctx context.Context, id int64, c Counts) error {
	_, err := a.db.ExecContext(ctx,
		`UPDATE audit_log SET vms_seen = ?, vms_eligible = ?, groups_emitted = ?, hosts_emitted = ? WHERE id = ?`,
		c.VMsSeen, c.VMsEligible, c.GroupsEmitted, c.HostsEmitted, id)
	return err
}

func (a *SQLiteAuditor) CompleteExecution(ctx context.Context, id int64, status string, errSummary string) error {
	_, err := a.db.ExecContext(ctx,
		`UPDATE audit_log SET status = ?, completed_at = ?, error_summary = ? WHERE id = ?`,
		status, now(), nullIfEmpty(errSummary), id)
	return err
}

func (a *SQLiteAuditor) RecordHost(ctx context.Context, executionID int64, h HostRecord) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO host_details (
			audit_id, host_key, group_name, vm_name, instance_uuid, power_state, recorded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		executionID, h.HostKey, nullIfEmpty(h.GroupName), h.VMName,
		nullIfEmpty(h.InstanceUUID), nullIfEmpty(h.PowerState), now(),
	)
	if err != nil {
		return fmt.Errorf("inserting host_details: %w", err)
	}
	return nil
}

func (a *SQLiteAuditor) RecordEvent(ctx context.Context, executionID int64, e EventRecord) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO events (audit_id, event_type, message, error_detail, occurred_at)
		VALUES (?, ?, ?, ?, ?)`,
		executionID, e.EventType, nullIfEmpty(e.Message), nullIfEmpty(e.ErrorDetail), now(),
	)
	return err
}

// DB returns the underlying sql.DB for testing purposes.
func (a *SQLiteAuditor) DB() *sql.DB {
	return a.db
}

func (a *SQLiteAuditor) Close() error {
	return a.db.Close()
}

// NoOpAuditor is an Auditor that does nothing, used when auditing is disabled.
type NoOpAuditor struct{}

func (NoOpAuditor) StartExecution(_ context.Context, _ string, _ *config.Config, _ string) (int64, string, error) {
	return 0, "", nil
}
func (NoOpAuditor) RecordCounts(_ context.Context, _ int64, _ Counts) error               { return nil }
func (NoOpAuditor) CompleteExecution(_ context.Context, _ int64, _ string, _ string) error { return nil }
func (NoOpAuditor) RecordHost(_ context.Context, _ int64, _ HostRecord) error             { return nil }
func (NoOpAuditor) RecordEvent(_ context.Context, _ int64, _ EventRecord) error           { return nil }
func (NoOpAuditor) Close() error                                                          { return nil }

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
