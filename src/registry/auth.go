package registry

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"gitlab.prplanit.com/precisionplanit/castoff/src/secrets"
)

// Login authenticates the docker daemon against a registry. The token goes
// in via --password-stdin so it never appears in the process argument list.
// The session lives in the daemon's credential store; the in-memory
// credential is not retained past this call.
func Login(ctx context.Context, registryURL string, cred *secrets.Credential) error {
	cmd := exec.CommandContext(ctx, "docker", "login",
		"--username", cred.Username,
		"--password-stdin",
		registryURL,
	)
	cmd.Stdin = strings.NewReader(cred.Token)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return &AuthError{
			Registry:   registryURL,
			Diagnostic: strings.TrimSpace(stderr.String()),
			Err:        err,
		}
	}
	return nil
}

// Logout drops the daemon session for a registry. Best-effort cleanup after
// a pipeline run; errors are returned but callers typically only log them.
func Logout(ctx context.Context, registryURL string) error {
	cmd := exec.CommandContext(ctx, "docker", "logout", registryURL)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("logout %s: %w", registryURL, err)
	}
	return nil
}
