// Copyright 2026 Red Hat
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared helpers for unit, simulator-backed and
// E2E tests.
package testutil

import (
	"crypto/tls"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/vmware/govmomi/simulator"
	"gopkg.in/yaml.v3"
)

// FileConfig mirrors the on-disk inventory config file. Zero-valued fields
// are omitted so tests can leave keys out of the file.
type FileConfig struct {
	ESXiHost     string `yaml:"esxi_host,omitempty"`
	ESXiPort     int    `yaml:"esxi_port,omitempty"`
	ESXiUsername string `yaml:"esxi_username,omitempty"`
	ESXiPassword string `yaml:"esxi_password,omitempty"`
	GroupBy      string `yaml:"group_by,omitempty"`
	VerifyTLS    *bool  `yaml:"verify_tls,omitempty"`
	UseIP        *bool  `yaml:"use_ip,omitempty"`
	Output       string `yaml:"output,omitempty"`
	Audit        *bool  `yaml:"audit,omitempty"`
	AuditDB      string `yaml:"audit_db,omitempty"`
}

// ValidFileConfig returns a config with every required key populated.
func ValidFileConfig() FileConfig {
	return FileConfig{
		ESXiHost:     "192.168.88.4",
		ESXiPort:     443,
		ESXiUsername: "root",
		ESXiPassword: "PASSWORD",
		GroupBy:      "vm_os_type_id",
	}
}

// WriteConfigFile marshals fc into dir/inventory.yaml and returns the path.
func WriteConfigFile(dir string, fc FileConfig) (string, error) {
	data, err := yaml.Marshal(fc)
	if err != nil {
		return "", fmt.Errorf("marshaling config: %w", err)
	}
	return WriteRawConfigFile(dir, string(data))
}

// WriteRawConfigFile writes content verbatim into dir/inventory.yaml.
func WriteRawConfigFile(dir, content string) (string, error) {
	path := filepath.Join(dir, "inventory.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return "", fmt.Errorf("writing config: %w", err)
	}
	return path, nil
}

// ClearInventoryEnv unsets every ANSIBLE_INVENTORY_SCRIPT_ variable.
func ClearInventoryEnv() {
	const prefix = "ANSIBLE_INVENTORY_SCRIPT_"
	for _, env := range os.Environ() {
		if len(env) <= len(prefix) || env[:len(prefix)] != prefix {
			continue
		}
		for i := 0; i < len(env); i++ {
			if env[i] == '=' {
				os.Unsetenv(env[:i])
				break
			}
		}
	}
}

// Simulator is a running govmomi ESX simulator served over TLS with a
// self-signed certificate.
type Simulator struct {
	Model    *simulator.Model
	Server   *simulator.Server
	Host     string
	Port     int
	Username string
	Password string
}

// StartSimulator creates a standalone ESX inventory and serves it.
func StartSimulator() (*Simulator, error) {
	model := simulator.ESX()
	if err := model.Create(); err != nil {
		return nil, fmt.Errorf("creating simulator model: %w", err)
	}
	model.Service.TLS = new(tls.Config)
	server := model.Service.NewServer()

	host, portStr, err := net.SplitHostPort(server.URL.Host)
	if err != nil {
		server.Close()
		model.Remove()
		return nil, fmt.Errorf("parsing simulator address %q: %w", server.URL.Host, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		server.Close()
		model.Remove()
		return nil, fmt.Errorf("parsing simulator port %q: %w", portStr, err)
	}

	sim := &Simulator{
		Model:  model,
		Server: server,
		Host:   host,
		Port:   port,
	}
	if server.URL.User != nil {
		sim.Username = server.URL.User.Username()
		sim.Password, _ = server.URL.User.Password()
	}
	return sim, nil
}

// FileConfig returns a config pointing at the simulator.
func (s *Simulator) FileConfig(groupBy string) FileConfig {
	return FileConfig{
		ESXiHost:     s.Host,
		ESXiPort:     s.Port,
		ESXiUsername: s.Username,
		ESXiPassword: s.Password,
		GroupBy:      groupBy,
	}
}

// Close stops the server and releases the model.
func (s *Simulator) Close() {
	s.Server.Close()
	s.Model.Remove()
}
