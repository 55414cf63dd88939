package secrets

import (
	"context"
	"os"
	"strings"
)

// EnvProvider reads secrets from environment variables, the convention for
// CI runners that inject masked variables. The reference is uppercased:
// ref "registry_token" reads REGISTRY_TOKEN.
type EnvProvider struct{}

func (p *EnvProvider) Resolve(_ context.Context, ref string) (string, error) {
	return os.Getenv(strings.ToUpper(ref)), nil
}
