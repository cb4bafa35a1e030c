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

// Package vault stores provider API keys encrypted at rest. Each credential
// is a standalone JSON record carrying its own salt and nonce, so records can
// be added and removed independently and a passphrase change only requires
// re-encrypting the records the user still cares about.
package vault

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// Iterations is the PBKDF2 work factor for newly stored records.
	// Existing records keep the iteration count they were written with.
	Iterations = 600_000

	saltLen  = 16
	nonceLen = 12
	keyLen   = 32

	recordExt = ".cred.json"
)

// ErrNotFound reports that no credential is stored for the requested
// provider. It is distinct from DecryptionError: a missing record is a
// normal condition, a record that will not decrypt is a wrong passphrase
// or a corrupted file.
var ErrNotFound = errors.New("credential not found")

// DecryptionError reports that a stored record exists but could not be
// opened with the supplied passphrase.
type DecryptionError struct {
	ProviderID string
}

func (e *DecryptionError) Error() string {
	return "cannot decrypt credential for " + e.ProviderID + ": wrong passphrase or corrupted record"
}

// record is the on-disk form of one encrypted credential. Binary fields
// round-trip through encoding/json as base64.
type record struct {
	ProviderID string `json:"provider_id"`
	Salt       []byte `json:"salt"`
	Iterations int    `json:"iterations"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// Vault is a directory of encrypted credential records, one file per
// provider.
type Vault struct {
	dir string
}

// New opens the vault at dir, creating the directory with owner-only
// permissions if it does not exist.
func New(dir string) (*Vault, error) {
	if dir == "" {
		return nil, errors.New("vault directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Errorf("creating vault directory: %w", err)
	}
	return &Vault{dir: dir}, nil
}

// Dir returns the directory backing the vault.
func (v *Vault) Dir() string {
	return v.dir
}

// Store encrypts secret under the session passphrase and writes it as the
// record for providerID, replacing any existing record. The write goes
// through a temp file and rename so a crash never leaves a partial record
// at the final path.
func (v *Vault) Store(ctx context.Context, providerID string, secret []byte, session *Session) error {
	if err := validateProviderID(providerID); err != nil {
		return err
	}
	if len(secret) == 0 {
		return errors.New("secret is empty")
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return errors.Errorf("generating salt: %w", err)
	}

	gcm, err := session.openCipher(salt, Iterations)
	if err != nil {
		return err
	}

	nonce := make([]byte, nonceLen)
	if _, err := rand.Read(nonce); err != nil {
		return errors.Errorf("generating nonce: %w", err)
	}

	// The provider ID rides along as additional data, so a record copied
	// over another provider's file fails to open instead of silently
	// serving the wrong key.
	ciphertext := gcm.Seal(nil, nonce, secret, []byte(providerID))

	rec := record{
		ProviderID: providerID,
		Salt:       salt,
		Iterations: Iterations,
		Nonce:      nonce,
		Ciphertext: ciphertext,
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return errors.Errorf("encoding credential record: %w", err)
	}

	if err := v.writeAtomic(v.path(providerID), data); err != nil {
		return err
	}

	zerolog.Ctx(ctx).Debug().
		Str("provider", providerID).
		Msg("stored encrypted credential")
	return nil
}

// Retrieve decrypts and returns the secret stored for providerID. It
// returns ErrNotFound when no record exists and a DecryptionError when the
// record exists but the passphrase does not open it.
func (v *Vault) Retrieve(ctx context.Context, providerID string, session *Session) ([]byte, error) {
	if err := validateProviderID(providerID); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(v.path(providerID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Errorf("provider %s: %w", providerID, ErrNotFound)
		}
		return nil, errors.Errorf("reading credential record: %w", err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.Errorf("decoding credential record: %w", err)
	}
	if rec.Iterations <= 0 || len(rec.Salt) == 0 || len(rec.Nonce) != nonceLen {
		return nil, errors.Errorf("credential record for %s is malformed", providerID)
	}

	gcm, err := session.openCipher(rec.Salt, rec.Iterations)
	if err != nil {
		return nil, err
	}

	secret, err := gcm.Open(nil, rec.Nonce, rec.Ciphertext, []byte(providerID))
	if err != nil {
		return nil, errors.WithStack(&DecryptionError{ProviderID: providerID})
	}

	zerolog.Ctx(ctx).Debug().
		Str("provider", providerID).
		Msg("decrypted credential")
	return secret, nil
}

// Delete removes the record for providerID. It returns ErrNotFound when
// there is nothing to remove.
func (v *Vault) Delete(ctx context.Context, providerID string) error {
	if err := validateProviderID(providerID); err != nil {
		return err
	}
	if err := os.Remove(v.path(providerID)); err != nil {
		if os.IsNotExist(err) {
			return errors.Errorf("provider %s: %w", providerID, ErrNotFound)
		}
		return errors.Errorf("removing credential record: %w", err)
	}
	zerolog.Ctx(ctx).Debug().
		Str("provider", providerID).
		Msg("deleted credential")
	return nil
}

// Exists reports whether a record is stored for providerID without
// touching its contents.
func (v *Vault) Exists(providerID string) (bool, error) {
	if err := validateProviderID(providerID); err != nil {
		return false, err
	}
	if _, err := os.Stat(v.path(providerID)); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Errorf("checking credential record: %w", err)
	}
	return true, nil
}

// List returns the provider IDs that have stored records, in directory
// order.
func (v *Vault) List() ([]string, error) {
	entries, err := os.ReadDir(v.dir)
	if err != nil {
		return nil, errors.Errorf("listing vault directory: %w", err)
	}
	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, recordExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, recordExt))
	}
	return ids, nil
}

func (v *Vault) path(providerID string) string {
	return filepath.Join(v.dir, providerID+recordExt)
}

// writeAtomic writes data to a temp file in the vault directory and
// renames it over path. The temp file is created 0600 before any secret
// material is written to it.
func (v *Vault) writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(v.dir, ".cred-*")
	if err != nil {
		return errors.Errorf("creating temp record: %w", err)
	}
	tmpPath := tmp.Name()
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Errorf("restricting temp record permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Errorf("writing temp record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Errorf("closing temp record: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.Errorf("committing credential record: %w", err)
	}
	return nil
}

func validateProviderID(providerID string) error {
	if providerID == "" {
		return errors.New("provider ID is required")
	}
	if strings.ContainsAny(providerID, "/\\") || strings.Contains(providerID, "..") {
		return errors.Errorf("provider ID %q is not a valid record name", providerID)
	}
	return nil
}

// deriveKey stretches the passphrase into an AES-256 key. Split out so the
// session can wipe the passphrase copy immediately after use.
func deriveKey(passphrase, salt []byte, iterations int) []byte {
	return pbkdf2.Key(passphrase, salt, iterations, keyLen, sha256.New)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Errorf("initializing cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Errorf("initializing AEAD: %w", err)
	}
	return gcm, nil
}
