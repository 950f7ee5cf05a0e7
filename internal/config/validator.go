package config

import (
	"fmt"
	"net/url"
	"strings"
)

const defaultPassword = "adminpass123"

// CredentialsValidator checks the credentials section against the auth mode
// and the target host.
type CredentialsValidator struct {
	config   *Config
	errors   []string
	warnings []string
}

func NewCredentialsValidator(cfg *Config) *CredentialsValidator {
	return &CredentialsValidator{
		config:   cfg,
		errors:   []string{},
		warnings: []string{},
	}
}

// Validate returns an error listing every blocking problem. Warnings are
// collected for Warnings.
func (v *CredentialsValidator) Validate() error {
	creds := v.config.Credentials

	if strings.TrimSpace(creds.Username) == "" {
		v.errors = append(v.errors, "credentials.username is required")
	}
	if creds.Password == "" {
		v.errors = append(v.errors, "credentials.password is required")
	}
	if v.config.Auth.Mode != AuthModeLogin && !strings.Contains(creds.Email, "@") {
		v.errors = append(v.errors, fmt.Sprintf("credentials.email must be an address when auth.mode is %s", v.config.Auth.Mode))
	}

	if creds.Password == defaultPassword && !isLocalTarget(v.config.Target.BaseURL) {
		v.warnings = append(v.warnings, "built-in default password used against a non-local target")
	}
	if len(creds.Password) > 0 && len(creds.Password) < 8 {
		v.warnings = append(v.warnings, "credentials.password is shorter than 8 characters")
	}

	if len(v.errors) > 0 {
		return fmt.Errorf("credential validation failed:\n  - %s", strings.Join(v.errors, "\n  - "))
	}
	return nil
}

// Warnings returns the non-blocking findings of the last Validate call.
func (v *CredentialsValidator) Warnings() []string {
	return v.warnings
}

func isLocalTarget(baseURL string) bool {
	u, err := url.Parse(baseURL)
	if err != nil {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

// ValidateCredentials is a convenience wrapper returning the warnings and
// the blocking error.
func ValidateCredentials(cfg *Config) ([]string, error) {
	v := NewCredentialsValidator(cfg)
	err := v.Validate()
	return v.Warnings(), err
}
