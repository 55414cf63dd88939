package secrets

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// ExecProvider shells out to an external secret manager CLI once per
// reference. The argv template replaces the literal "{ref}" with the
// external reference, e.g.:
//
//	["gcloud", "secrets", "versions", "access", "{ref}"]
//
// Stdout (trimmed) is the secret value and is never echoed anywhere.
type ExecProvider struct {
	argv []string
}

// NewExecProvider validates the argv template.
func NewExecProvider(argv []string) (*ExecProvider, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("secrets: exec provider needs a command")
	}
	found := false
	for _, a := range argv {
		if strings.Contains(a, "{ref}") {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("secrets: exec provider command has no {ref} placeholder")
	}
	return &ExecProvider{argv: argv}, nil
}

func (p *ExecProvider) Resolve(ctx context.Context, ref string) (string, error) {
	argv := make([]string, len(p.argv))
	for i, a := range p.argv {
		argv[i] = strings.ReplaceAll(a, "{ref}", ref)
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s: %w: %s", argv[0], err, strings.TrimSpace(stderr.String()))
	}

	return strings.TrimSpace(stdout.String()), nil
}
