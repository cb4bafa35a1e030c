package commands

import (
	"context"
	"sync"

	"github.com/hmoritama/repolens/cmd/repolens/opts"
	"github.com/hmoritama/repolens/pkg/provider"
	"github.com/hmoritama/repolens/pkg/provider/openai"
	"github.com/hmoritama/repolens/pkg/vault"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// vaultKeys feeds the OpenAI provider from the credential vault. The
// passphrase is only asked for once an actual invocation needs the key;
// availability probes just check the record exists.
type vaultKeys struct {
	o *opts.RootOpts

	mu      sync.Mutex
	session *vault.Session
}

func (k *vaultKeys) HasKey(ctx context.Context) (bool, error) {
	return k.o.Vault.Exists(provider.IDOpenAI)
}

func (k *vaultKeys) APIKey(ctx context.Context) ([]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.session == nil {
		passphrase, err := k.o.UserLogger.AskPassphrase("Vault passphrase")
		if err != nil {
			return nil, err
		}
		session, err := vault.NewSession([]byte(passphrase))
		if err != nil {
			return nil, err
		}
		k.session = session
	}
	return k.o.Vault.Retrieve(ctx, provider.IDOpenAI, k.session)
}

// newSelector builds the provider selector: globally registered CLI
// factories plus the OpenAI factory wired to the vault.
func newSelector(o *opts.RootOpts) *provider.Selector {
	factories := map[string]provider.Factory{}
	for _, meta := range provider.Catalog() {
		if factory := provider.Get(meta.ID); factory != nil {
			factories[meta.ID] = factory
		}
	}
	keys := &vaultKeys{o: o}
	factories[provider.IDOpenAI] = func(ctx context.Context) (provider.Provider, error) {
		return openai.New(keys, openai.WithModel(o.Config.Model)), nil
	}
	return provider.NewSelectorWith(factories)
}

// NewProvidersCmd creates the providers command, which probes every known
// provider and reports what is usable.
func NewProvidersCmd(o *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "Show which analysis providers are usable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			selector := newSelector(o)

			type probe struct {
				meta provider.Meta
				err  error
			}
			catalog := provider.Catalog()
			results := make([]probe, len(catalog))

			g, gctx := errgroup.WithContext(ctx)
			for i, meta := range catalog {
				i, meta := i, meta
				g.Go(func() error {
					_, err := selector.Select(gctx, meta.ID)
					results[i] = probe{meta: meta, err: err}
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			for _, result := range results {
				label := result.meta.DisplayName + " (" + string(result.meta.Kind) + ")"
				if result.err == nil {
					o.UserLogger.Success("%s: available", label)
				} else {
					o.UserLogger.Warn("%s: %v", label, result.err)
				}
			}
			return nil
		},
	}
}
