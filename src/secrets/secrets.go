// Package secrets resolves named credentials from an external store into
// process memory. Values live only for the duration of the pipeline run:
// they are never written to disk, and every error and String() path carries
// the secret reference, never the value.
package secrets

import (
	"context"
	"fmt"

	"gitlab.prplanit.com/precisionplanit/castoff/src/config"
)

// ResolutionError reports a secret that could not be resolved.
// It names the logical secret and its external reference only.
type ResolutionError struct {
	Name string // logical name, e.g. "registry_token"
	Ref  string // external store reference
	Err  error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("secret %s (%s): %v", e.Name, e.Ref, e.Err)
	}
	return fmt.Sprintf("secret %s (%s): not found", e.Name, e.Ref)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// Provider resolves a single external reference to its current value.
type Provider interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// Credential is a resolved identity/token pair for registry login.
// Stringer is implemented so accidental %v formatting can't leak values.
type Credential struct {
	Username string
	Token    string
}

func (Credential) String() string   { return "<redacted>" }
func (Credential) GoString() string { return "secrets.Credential{<redacted>}" }

// NewProvider constructs the backend selected by cfg.
func NewProvider(cfg config.SecretsConfig) (Provider, error) {
	switch cfg.Provider {
	case "", "env":
		return &EnvProvider{}, nil
	case "exec":
		return NewExecProvider(cfg.Command)
	default:
		return nil, fmt.Errorf("secrets: unknown provider %q (valid: env, exec)", cfg.Provider)
	}
}

// ResolveCredential resolves the registry username and token through the
// provider. Any missing secret fails the whole resolution.
func ResolveCredential(ctx context.Context, p Provider, cfg config.SecretsConfig) (*Credential, error) {
	cred := &Credential{}

	for _, want := range []struct {
		name string
		dst  *string
	}{
		{config.SecretRegistryUsername, &cred.Username},
		{config.SecretRegistryToken, &cred.Token},
	} {
		ref, ok := cfg.Refs[want.name]
		if !ok || ref == "" {
			return nil, &ResolutionError{Name: want.name, Ref: "(unconfigured)"}
		}
		val, err := p.Resolve(ctx, ref)
		if err != nil {
			return nil, &ResolutionError{Name: want.name, Ref: ref, Err: err}
		}
		if val == "" {
			return nil, &ResolutionError{Name: want.name, Ref: ref}
		}
		*want.dst = val
	}

	return cred, nil
}
