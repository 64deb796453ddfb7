package riskconf

import (
	"fmt"
	"strings"
)

// LoadError reports that a required configuration layer is missing or
// unparseable. It is fatal: the caller should abort startup rather than
// proceed with a half-configured process.
type LoadError struct {
	Locator string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: cannot load configuration layer %s: %v", errPref,
		e.Locator, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// UnknownSectionError reports a request for a named database or
// cloud-service section absent from all merged sources. It usually
// indicates a typo or a missing environment document and is recoverable by
// the caller.
type UnknownSectionError struct {
	Kind      string
	Name      string
	Available []string
}

func (e *UnknownSectionError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("%s: unknown %s section: %s", errPref, e.Kind, e.Name)
	}

	return fmt.Sprintf("%s: unknown %s section: %s (available: %s)", errPref,
		e.Kind, e.Name, strings.Join(e.Available, ", "))
}

// SecretError reports that the secrets backend failed to resolve a
// referenced secret. Fatal in production; see
// ResolverConfig.AllowInsecureSecrets for the development downgrade.
type SecretError struct {
	Name string
	Err  error
}

func (e *SecretError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s: cannot resolve secret: %v", errPref, e.Err)
	}

	return fmt.Sprintf("%s: cannot resolve secret %s: %v", errPref, e.Name, e.Err)
}

func (e *SecretError) Unwrap() error {
	return e.Err
}
