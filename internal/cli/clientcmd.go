package cli

import (
	"fmt"

	"github.com/drmercer/prompt-pad/internal/client"
	"github.com/drmercer/prompt-pad/internal/core"
)

// clientAddr is the shared --addr override for client commands.
var clientAddr string

// newAPIClient builds an HTTP client for a running task server using the
// same secret resolution as the daemon.
func newAPIClient() (*client.HTTPClient, error) {
	cfg, err := core.LoadConfig(core.ResolveStateDir())
	if err != nil {
		return nil, err
	}
	addr := cfg.Addr
	host := cfg.Host
	if clientAddr != "" {
		addr = clientAddr
		host = clientAddr
	}
	if cfg.Secret == "" {
		return nil, fmt.Errorf("no secret configured: set %s or add 'secret' to .ppadconfig", core.SecretEnvVar)
	}
	return client.New("http://"+addr, host, cfg.Secret), nil
}
