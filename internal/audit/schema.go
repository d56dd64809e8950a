// Copyright 2026 Red Hat
// SPDX-License-Identifier: Apache-2.0

package audit

// schemaSQL contains the DDL for the audit database.
// All timestamps are stored as ISO 8601 TEXT. Credentials are never stored;
// only the username is recorded.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS audit_log (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id          TEXT    NOT NULL UNIQUE,
	mode            TEXT    NOT NULL,
	status          TEXT    NOT NULL DEFAULT 'in_progress',
	esxi_host       TEXT    NOT NULL,
	esxi_port       INTEGER NOT NULL,
	esxi_username   TEXT    NOT NULL,
	group_by        TEXT    NOT NULL,
	use_ip          INTEGER NOT NULL DEFAULT 1,
	verify_tls      INTEGER NOT NULL DEFAULT 0,
	host_query      TEXT,
	output_format   TEXT    NOT NULL,
	config_path     TEXT,
	vms_seen        INTEGER,
	vms_eligible    INTEGER,
	groups_emitted  INTEGER,
	hosts_emitted   INTEGER,
	started_at      TEXT    NOT NULL,
	completed_at    TEXT,
	error_summary   TEXT
);

CREATE INDEX IF NOT EXISTS idx_audit_log_started_at ON audit_log(started_at);
CREATE INDEX IF NOT EXISTS idx_audit_log_esxi_host  ON audit_log(esxi_host);
CREATE INDEX IF NOT EXISTS idx_audit_log_status     ON audit_log(status);
CREATE INDEX IF NOT EXISTS idx_audit_log_run_id     ON audit_log(run_id);

CREATE TABLE IF NOT EXISTS host_details (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	audit_id      INTEGER NOT NULL REFERENCES audit_log(id),
	host_key      TEXT    NOT NULL,
	group_name    TEXT,
	vm_name       TEXT    NOT NULL,
	instance_uuid TEXT,
	power_state   TEXT,
	recorded_at   TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_host_details_audit_id ON host_details(audit_id);
CREATE INDEX IF NOT EXISTS idx_host_details_host_key ON host_details(host_key);

CREATE TABLE IF NOT EXISTS events (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	audit_id     INTEGER NOT NULL REFERENCES audit_log(id),
	event_type   TEXT    NOT NULL,
	message      TEXT,
	error_detail TEXT,
	occurred_at  TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_audit_id    ON events(audit_id);
CREATE INDEX IF NOT EXISTS idx_events_event_type  ON events(event_type);
CREATE INDEX IF NOT EXISTS idx_events_occurred_at ON events(occurred_at);
`
