// Copyright 2026 Red Hat
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"esxinventory/internal/audit"
	"esxinventory/internal/config"
	"esxinventory/internal/esxi"
	"esxinventory/internal/inventory"
)

func main() {
	if err := newRootCmd(connectESXi).Execute(); err != nil {
		os.Exit(1)
	}
}

// vmSource is an open management session.
type vmSource interface {
	ListVirtualMachines(ctx context.Context) ([]inventory.VMRecord, error)
	Close(ctx context.Context) error
}

// connectFunc opens a session for the resolved configuration.
type connectFunc func(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (vmSource, error)

func connectESXi(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (vmSource, error) {
	sess, err := esxi.Connect(ctx, esxi.Settings{
		Host:      cfg.ESXiHost,
		Port:      cfg.ESXiPort,
		Username:  cfg.ESXiUsername,
		Password:  cfg.ESXiPassword,
		VerifyTLS: cfg.VerifyTLS,
	}, log)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func newRootCmd(connect connectFunc) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "esxi-inventory (--list | --host HOST)",
		Short: "Ansible dynamic inventory for VMware ESXi hosts",
		Long: `esxi-inventory queries an ESXi host for its virtual machines and prints an
Ansible dynamic inventory document. Running VMs with guest tools installed are
grouped by guest OS identifier (vm_os_type_id) or by a "group=NAME" tag in the
VM annotation (vm_annotation_group).

Connection settings are read from a YAML file next to the binary
(<binary>.yaml) and may be overridden with ANSIBLE_INVENTORY_SCRIPT_*
environment variables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if host, _ := cmd.Flags().GetString("host"); cmd.Flags().Changed("host") && strings.TrimSpace(host) == "" {
				return errors.New("--host requires a non-empty IP address or hostname")
			}
			// Flag errors print usage; failures past this point do not.
			cmd.SilenceUsage = true
			return inventoryE(cmd, connect)
		},
	}

	f := rootCmd.Flags()
	f.Bool("list", false, "Output the grouped inventory of all eligible VMs")
	f.String("host", "", "Output the variables of the VM with this IP address or hostname")
	config.BindFlags(rootCmd)

	rootCmd.MarkFlagsOneRequired("list", "host")
	rootCmd.MarkFlagsMutuallyExclusive("list", "host")
	return rootCmd
}

// newLogger writes to stderr so stdout carries only the inventory document.
func newLogger(cmd *cobra.Command, verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(cmd.ErrOrStderr())
	log.SetLevel(logrus.WarnLevel)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

// inventoryE is the single flow: config, session, enumerate, project, print.
func inventoryE(cmd *cobra.Command, connect connectFunc) error {
	listMode, _ := cmd.Flags().GetBool("list")
	hostQuery, _ := cmd.Flags().GetString("host")

	cfg, err := config.LoadConfig(cmd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log := newLogger(cmd, cfg.Verbose)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	mode := audit.ModeHost
	if listMode {
		mode = audit.ModeList
	}
	rec := startAudit(ctx, cfg, mode, hostQuery, log)
	defer rec.close()

	out, err := buildOutput(ctx, cfg, connect, listMode, hostQuery, rec, log)
	if err != nil {
		rec.fail(err)
		return err
	}

	if _, err := cmd.OutOrStdout().Write(out); err != nil {
		rec.fail(err)
		return fmt.Errorf("writing inventory: %w", err)
	}
	rec.succeed()
	return nil
}

func buildOutput(ctx context.Context, cfg *config.Config, connect connectFunc,
	listMode bool, hostQuery string, rec *auditRun, log logrus.FieldLogger) ([]byte, error) {
	src, err := connect(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("connecting to ESXi host: %w", err)
	}
	defer func() {
		if err := src.Close(context.Background()); err != nil {
			log.WithError(err).Warn("closing ESXi session")
		}
	}()
	rec.event(audit.EventConnected, fmt.Sprintf("%s:%d", cfg.ESXiHost, cfg.ESXiPort))

	records, err := src.ListVirtualMachines(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing virtual machines: %w", err)
	}
	rec.event(audit.EventEnumerated, fmt.Sprintf("%d virtual machines", len(records)))

	projector := inventory.NewProjector(log)

	var doc inventory.Treer
	if listMode {
		listDoc, err := projector.BuildListDocument(records, cfg.GroupBy, cfg.UseIP)
		if err != nil {
			return nil, fmt.Errorf("building inventory: %w", err)
		}
		rec.recordList(records, listDoc)
		doc = listDoc
	} else {
		hostDoc := projector.BuildHostDocument(records, hostQuery)
		if !hostDoc.Found() {
			log.WithField("host", hostQuery).Debug("no VM matches host query")
		}
		rec.recordHost(records, hostDoc, hostQuery)
		doc = hostDoc
	}

	out, err := inventory.Render(doc, cfg.Output)
	if err != nil {
		return nil, err
	}
	rec.event(audit.EventRendered, cfg.Output)
	return out, nil
}
