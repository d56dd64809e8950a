// Copyright 2026 Red Hat
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"esxinventory/internal/constants"
)

// ConfigurationError reports a config file that cannot be read or a setting
// that cannot be resolved from any source.
type ConfigurationError struct {
	Path string
	Key  string
	Err  error
}

func (e *ConfigurationError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("configuration %q (file %s): %v", e.Key, e.Path, e.Err)
	}
	return fmt.Sprintf("configuration file %s: %v", e.Path, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// ErrMissingValue is wrapped by ConfigurationError when a required key is
// absent from both the environment and the config file.
var ErrMissingValue = errors.New("not set in environment or config file")

// Config holds the resolved settings for one invocation.
type Config struct {
	ESXiHost     string `mapstructure:"esxi_host"`
	ESXiPort     int    `mapstructure:"esxi_port"`
	ESXiUsername string `mapstructure:"esxi_username"`
	ESXiPassword string `mapstructure:"esxi_password"`
	GroupBy      string `mapstructure:"group_by"`
	VerifyTLS    bool   `mapstructure:"verify_tls"`
	UseIP        bool   `mapstructure:"use_ip"`
	Output       string `mapstructure:"output"`
	AuditEnabled bool   `mapstructure:"audit"`
	AuditDBPath  string `mapstructure:"audit_db"`
	Verbose      bool   `mapstructure:"-"`
	ConfigPath   string `mapstructure:"-"`
}

// SetDefaults registers Viper defaults. Connection settings and group_by
// intentionally have none.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(constants.KeyVerifyTLS, constants.DefaultVerifyTLS)
	v.SetDefault(constants.KeyUseIP, constants.DefaultUseIP)
	v.SetDefault(constants.KeyOutput, constants.DefaultOutput)
	v.SetDefault(constants.KeyAudit, false)
	v.SetDefault(constants.KeyAuditDB, constants.DefaultAuditDBPath)
}

// BindFlags registers the configuration flags on the given command.
func BindFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("config", "", "Path to YAML config file (default: <binary>.yaml next to the binary)")
	f.String("group-by", "", "Hosts grouping key: vm_os_type_id or vm_annotation_group")
	f.String("output", "", "Output format: json or yaml")
	f.Bool("verbose", false, "Enable debug logging on stderr")
}

// DefaultConfigPath returns the config file that sits next to the running
// binary and shares its name, e.g. /opt/inv/esxi-inventory.yaml.
func DefaultConfigPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locating executable: %w", err)
	}
	return ConfigPathFor(exe), nil
}

// ConfigPathFor maps an executable path to its sibling config file.
func ConfigPathFor(exe string) string {
	base := filepath.Base(exe)
	if i := strings.Index(base, "."); i > 0 {
		base = base[:i]
	}
	return filepath.Join(filepath.Dir(exe), base+constants.ConfigFileExt)
}

// LoadConfig resolves configuration with the priority chain
// flags > env > file > defaults. The config file must exist and parse, and
// every required key must resolve to a non-empty value.
func LoadConfig(cmd *cobra.Command) (*Config, error) {
	v := viper.New()

	SetDefaults(v)

	v.SetEnvPrefix(constants.EnvPrefix)
	v.AutomaticEnv()

	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		var err error
		configPath, err = DefaultConfigPath()
		if err != nil {
			return nil, &ConfigurationError{Err: err}
		}
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, &ConfigurationError{Path: configPath, Err: fmt.Errorf("reading config file: %w", err)}
	}

	bindFlagIfSet(v, cmd, "group-by", constants.KeyGroupBy)
	bindFlagIfSet(v, cmd, "output", constants.KeyOutput)

	for _, key := range constants.RequiredKeys {
		if !v.IsSet(key) || strings.TrimSpace(v.GetString(key)) == "" {
			return nil, &ConfigurationError{Path: configPath, Key: key, Err: ErrMissingValue}
		}
	}

	cfg := &Config{}
	cfg.ESXiHost = v.GetString(constants.KeyESXiHost)
	cfg.ESXiUsername = v.GetString(constants.KeyESXiUsername)
	cfg.ESXiPassword = v.GetString(constants.KeyESXiPassword)
	cfg.GroupBy = v.GetString(constants.KeyGroupBy)
	cfg.VerifyTLS = v.GetBool(constants.KeyVerifyTLS)
	cfg.UseIP = v.GetBool(constants.KeyUseIP)
	cfg.Output = strings.ToLower(v.GetString(constants.KeyOutput))
	cfg.AuditEnabled = v.GetBool(constants.KeyAudit)
	cfg.AuditDBPath = v.GetString(constants.KeyAuditDB)
	cfg.ConfigPath = configPath
	cfg.Verbose, _ = cmd.Flags().GetBool("verbose")

	port, err := parsePort(v.GetString(constants.KeyESXiPort))
	if err != nil {
		return nil, &ConfigurationError{Path: configPath, Key: constants.KeyESXiPort, Err: err}
	}
	cfg.ESXiPort = port

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.GroupBy {
	case constants.GroupByOSTypeID, constants.GroupByAnnotationGroup:
	default:
		return &ConfigurationError{
			Path: c.ConfigPath,
			Key:  constants.KeyGroupBy,
			Err: fmt.Errorf("unsupported value %q (want %s or %s)",
				c.GroupBy, constants.GroupByOSTypeID, constants.GroupByAnnotationGroup),
		}
	}
	switch c.Output {
	case constants.OutputJSON, constants.OutputYAML:
	default:
		return &ConfigurationError{
			Path: c.ConfigPath,
			Key:  constants.KeyOutput,
			Err:  fmt.Errorf("unsupported format %q", c.Output),
		}
	}
	return nil
}

// bindFlagIfSet sets a Viper key from a Cobra flag only when the flag was explicitly provided.
func bindFlagIfSet(v *viper.Viper, cmd *cobra.Command, flag, key string) {
	if cmd.Flags().Changed(flag) {
		val, _ := cmd.Flags().GetString(flag)
		v.Set(key, val)
	}
}

func parsePort(raw string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid port %q: %w", raw, err)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port %d out of range", port)
	}
	return port, nil
}
