package opts

import (
	"github.com/hmoritama/repolens/pkg/config"
	"github.com/hmoritama/repolens/pkg/log"
	"github.com/hmoritama/repolens/pkg/vault"
)

// RootOpts contains shared dependencies used by all commands.
type RootOpts struct {
	Config     *config.Config
	Vault      *vault.Vault
	UserLogger *log.UserLogger

	// ProviderOverride is the --provider flag value; empty means the
	// config file (or auto) decides.
	ProviderOverride string
}

// ProviderName resolves which provider the run should use.
func (o *RootOpts) ProviderName() string {
	if o.ProviderOverride != "" {
		return o.ProviderOverride
	}
	return o.Config.Provider
}
