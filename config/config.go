// Package config provides configuration management for AnyConnect AutoLogin.
// It handles loading, saving, and validating the login settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/yllada/anyconnect-autologin/common"
)

// Environment variables that override values from the config file.
const (
	EnvClientPath       = "ANYCONNECT_CLIENT_PATH"
	EnvDomain           = "ANYCONNECT_DOMAIN"
	EnvUsername         = "ANYCONNECT_USERNAME"
	EnvPassword         = "ANYCONNECT_PASSWORD"
	EnvGroup            = "ANYCONNECT_GROUP"
	EnvCheckCertificate = "ANYCONNECT_CHECK_CERTIFICATE"
)

// Config represents the login configuration.
// All settings are persisted to a YAML file in the user's config directory.
type Config struct {
	// ClientPath is the AnyConnect GUI executable to launch.
	ClientPath string `yaml:"client_path"`
	// Domain is the VPN server name typed into the main window.
	Domain string `yaml:"domain"`
	// Username is the login user name.
	Username string `yaml:"username"`
	// Password is a plain-text password. Prefer the keyring (set-password).
	Password string `yaml:"password,omitempty"`
	// Group is selected in the login window when a group dropdown is shown.
	Group string `yaml:"group,omitempty"`
	// CheckCertificate waits for the untrusted server certificate popup.
	CheckCertificate YesNo `yaml:"check_certificate"`
	// AcceptTerms accepts the terms and conditions popup if it appears.
	AcceptTerms YesNo `yaml:"accept_terms"`
	// Timeouts tunes the window waits.
	Timeouts Timeouts `yaml:"timeouts"`
}

// Timeouts holds the wait durations used by the login flow.
type Timeouts struct {
	Window      time.Duration `yaml:"window"`
	Certificate time.Duration `yaml:"certificate"`
	Terms       time.Duration `yaml:"terms"`
	Poll        time.Duration `yaml:"poll"`
	Settle      time.Duration `yaml:"settle"`
}

// DefaultTimeouts returns the timeouts the client normally needs.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Window:      common.WindowTimeout,
		Certificate: common.CertificateTimeout,
		Terms:       common.TermsTimeout,
		Poll:        common.PollInterval,
		Settle:      common.SettleDelay,
	}
}

// DefaultConfig returns the default configuration.
// Domain and Username are left empty and must be filled in by the user.
func DefaultConfig() *Config {
	return &Config{
		ClientPath:       common.DefaultClientPath,
		CheckCertificate: false,
		AcceptTerms:      true,
		Timeouts:         DefaultTimeouts(),
	}
}

// DefaultPath returns the config file location in the user's config directory.
func DefaultPath() (string, error) {
	dir, err := common.GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, common.ConfigFileName), nil
}

// Load loads the configuration from path.
// If the file doesn't exist, a default file is written and ErrConfigMissing
// is returned together with the defaults so the caller can point the user at it.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := cfg.Save(path); err != nil {
			return cfg, err
		}
		return cfg, fmt.Errorf("%w: created %s, fill in domain and username", common.ErrConfigMissing, path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening configuration: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true) // Strict validation: reject unknown fields

	config := DefaultConfig()
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("%w: error parsing %s: %v", common.ErrConfigLoad, path, err)
	}

	if err := config.applyEnv(filepath.Join(filepath.Dir(path), common.EnvFileName)); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// applyEnv loads envFile when present and overrides fields from the environment.
// Variables already set in the process environment win over the file.
func (c *Config) applyEnv(envFile string) error {
	if common.FileExists(envFile) {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("%w: error reading %s: %v", common.ErrConfigLoad, envFile, err)
		}
	}

	if v := os.Getenv(EnvClientPath); v != "" {
		c.ClientPath = v
	}
	if v := os.Getenv(EnvDomain); v != "" {
		c.Domain = v
	}
	if v := os.Getenv(EnvUsername); v != "" {
		c.Username = v
	}
	if v := os.Getenv(EnvPassword); v != "" {
		c.Password = v
	}
	if v := os.Getenv(EnvGroup); v != "" {
		c.Group = v
	}
	if v := os.Getenv(EnvCheckCertificate); v != "" {
		b, err := parseYesNo(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", common.ErrConfigInvalid, EnvCheckCertificate, err)
		}
		c.CheckCertificate = YesNo(b)
	}
	return nil
}

// Validate verifies that the configuration can drive a login.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.ClientPath) == "" {
		errs = append(errs, errors.New("client_path is required"))
	}
	if strings.TrimSpace(c.Domain) == "" {
		errs = append(errs, errors.New("domain is required"))
	}
	if strings.TrimSpace(c.Username) == "" {
		errs = append(errs, errors.New("username is required"))
	}

	t := c.Timeouts
	if t.Window <= 0 || t.Certificate <= 0 || t.Terms <= 0 || t.Poll <= 0 || t.Settle <= 0 {
		errs = append(errs, errors.New("timeouts must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", common.ErrConfigInvalid, errors.Join(errs...))
	}
	return nil
}

// Save saves the configuration to path.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("error serializing configuration: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("%w: %v", common.ErrConfigSave, err)
	}

	return nil
}
