// Copyright 2025 Hiro Moritama
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package commands

import (
	"strings"

	"github.com/hmoritama/repolens/cmd/repolens/opts"
	"github.com/hmoritama/repolens/pkg/provider"
	"github.com/hmoritama/repolens/pkg/vault"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

// NewSecretCmd creates the secret command group for managing stored
// provider credentials.
func NewSecretCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Manage encrypted provider credentials",
	}
	cmd.AddCommand(
		newSecretSetCmd(o),
		newSecretRmCmd(o),
		newSecretStatusCmd(o),
	)
	return cmd
}

// secretProviderID validates that a provider can hold a stored secret.
func secretProviderID(arg string) (string, error) {
	id := strings.ToLower(arg)
	for _, meta := range provider.Catalog() {
		if meta.ID != id {
			continue
		}
		if !meta.RequiresSecret {
			return "", errors.Errorf("provider %s authenticates through its own CLI and stores no secret here", id)
		}
		return id, nil
	}
	return "", errors.Errorf("unknown provider %q", id)
}

func newSecretSetCmd(o *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "set <provider>",
		Short: "Store an API key, encrypted with a passphrase",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := secretProviderID(args[0])
			if err != nil {
				return err
			}

			key, err := o.UserLogger.AskPassphrase("API key for " + id)
			if err != nil {
				return errors.Errorf("reading API key: %w", err)
			}
			if strings.TrimSpace(key) == "" {
				return errors.New("API key is empty")
			}

			passphrase, err := o.UserLogger.AskPassphrase("Vault passphrase")
			if err != nil {
				return errors.Errorf("reading passphrase: %w", err)
			}
			confirm, err := o.UserLogger.AskPassphrase("Confirm passphrase")
			if err != nil {
				return errors.Errorf("reading passphrase confirmation: %w", err)
			}
			if passphrase != confirm {
				return errors.New("passphrases do not match")
			}

			session, err := vault.NewSession([]byte(passphrase))
			if err != nil {
				return err
			}
			defer session.Destroy()

			if err := o.Vault.Store(cmd.Context(), id, []byte(strings.TrimSpace(key)), session); err != nil {
				return errors.Errorf("storing credential: %w", err)
			}
			o.UserLogger.Success("Stored encrypted credential for %s", id)
			return nil
		},
	}
}

func newSecretRmCmd(o *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <provider>",
		Short: "Delete a stored credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := secretProviderID(args[0])
			if err != nil {
				return err
			}

			if err := o.Vault.Delete(cmd.Context(), id); err != nil {
				if errors.Is(err, vault.ErrNotFound) {
					o.UserLogger.Info("No credential stored for %s", id)
					return nil
				}
				return errors.Errorf("deleting credential: %w", err)
			}
			o.UserLogger.Success("Deleted credential for %s", id)
			return nil
		},
	}
}

func newSecretStatusCmd(o *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which providers have stored credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, meta := range provider.Catalog() {
				if !meta.RequiresSecret {
					o.UserLogger.Info("%s: no secret needed", meta.ID)
					continue
				}
				stored, err := o.Vault.Exists(meta.ID)
				if err != nil {
					return errors.Errorf("checking credential for %s: %w", meta.ID, err)
				}
				if stored {
					o.UserLogger.Success("%s: credential stored", meta.ID)
				} else {
					o.UserLogger.Warn("%s: no credential (run 'repolens secret set %s')", meta.ID, meta.ID)
				}
			}
			return nil
		},
	}
}
