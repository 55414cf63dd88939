package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"gitlab.prplanit.com/precisionplanit/castoff/src/config"
)

func TestEnvProvider(t *testing.T) {
	t.Setenv("REGISTRY_USERNAME", "robot")

	p := &EnvProvider{}
	got, err := p.Resolve(context.Background(), "registry_username")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "robot" {
		t.Fatalf("expected robot, got %q", got)
	}
}

func TestResolveCredential(t *testing.T) {
	t.Setenv("REGISTRY_USERNAME", "robot")
	t.Setenv("REGISTRY_TOKEN", "tok-123")

	cfg := config.DefaultSecretsConfig()
	cred, err := ResolveCredential(context.Background(), &EnvProvider{}, cfg)
	if err != nil {
		t.Fatalf("ResolveCredential: %v", err)
	}
	if cred.Username != "robot" || cred.Token != "tok-123" {
		t.Fatalf("unexpected credential fields: %q / %q", cred.Username, cred.Token)
	}
}

func TestResolveCredential_Missing(t *testing.T) {
	t.Setenv("REGISTRY_USERNAME", "robot")
	t.Setenv("REGISTRY_TOKEN", "")

	cfg := config.DefaultSecretsConfig()
	_, err := ResolveCredential(context.Background(), &EnvProvider{}, cfg)
	if err == nil {
		t.Fatal("expected error for empty token")
	}

	var re *ResolutionError
	if !errors.As(err, &re) {
		t.Fatalf("expected *ResolutionError, got %T: %v", err, err)
	}
	if re.Name != config.SecretRegistryToken {
		t.Fatalf("ResolutionError.Name = %q, want %q", re.Name, config.SecretRegistryToken)
	}
}

// Error text and formatted credentials must carry references only.
func TestNoValueLeaks(t *testing.T) {
	re := &ResolutionError{
		Name: "registry_token",
		Ref:  "projects/1042/secrets/registry_token/versions/latest",
	}
	if !strings.Contains(re.Error(), "projects/1042") {
		t.Fatalf("error should name the reference: %v", re)
	}

	cred := Credential{Username: "robot", Token: "tok-very-secret"}
	for _, s := range []string{fmt.Sprintf("%v", cred), fmt.Sprintf("%s", cred), fmt.Sprintf("%#v", cred)} {
		if strings.Contains(s, "tok-very-secret") {
			t.Fatalf("credential formatting leaked the token: %q", s)
		}
	}
}

func TestNewProvider(t *testing.T) {
	if _, err := NewProvider(config.SecretsConfig{Provider: "env"}); err != nil {
		t.Fatalf("env provider: %v", err)
	}
	if _, err := NewProvider(config.SecretsConfig{Provider: "vault9000"}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestExecProvider_Validation(t *testing.T) {
	if _, err := NewExecProvider(nil); err == nil {
		t.Fatal("expected error for empty command")
	}
	if _, err := NewExecProvider([]string{"gcloud", "secrets", "access"}); err == nil {
		t.Fatal("expected error for command without {ref} placeholder")
	}
	if _, err := NewExecProvider([]string{"gcloud", "secrets", "versions", "access", "{ref}"}); err != nil {
		t.Fatalf("valid command rejected: %v", err)
	}
}

func TestExecProvider_Resolve(t *testing.T) {
	p, err := NewExecProvider([]string{"echo", "{ref}"})
	if err != nil {
		t.Fatalf("NewExecProvider: %v", err)
	}

	got, err := p.Resolve(context.Background(), "projects/1042/secrets/tok/versions/1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "projects/1042/secrets/tok/versions/1" {
		t.Fatalf("unexpected stdout capture: %q", got)
	}
}
