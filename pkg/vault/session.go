package vault

import (
	"crypto/cipher"

	"github.com/awnumar/memguard"
	"gitlab.com/tozd/go/errors"
)

// Session seals the user's passphrase for the lifetime of one command. The
// passphrase lives in a memguard enclave between uses so it is encrypted in
// memory, never swapped, and wiped on Destroy. The session holds the
// passphrase rather than a derived key because every record carries its own
// salt, so there is no single key to cache.
type Session struct {
	enclave *memguard.Enclave
}

// NewSession seals passphrase into a new session. The passphrase slice is
// wiped by memguard as part of sealing and must not be reused by the
// caller.
func NewSession(passphrase []byte) (*Session, error) {
	if len(passphrase) == 0 {
		return nil, errors.New("passphrase is empty")
	}
	return &Session{enclave: memguard.NewEnclave(passphrase)}, nil
}

// openCipher derives the record key for the given salt and returns an AEAD
// ready for Seal or Open. The unsealed passphrase and the derived key are
// wiped before returning.
func (s *Session) openCipher(salt []byte, iterations int) (cipher.AEAD, error) {
	if s == nil || s.enclave == nil {
		return nil, errors.New("vault session is not initialized")
	}

	buf, err := s.enclave.Open()
	if err != nil {
		return nil, errors.Errorf("unsealing passphrase: %w", err)
	}
	defer buf.Destroy()

	key := deriveKey(buf.Bytes(), salt, iterations)
	defer memguard.WipeBytes(key)

	return newGCM(key)
}

// Destroy wipes the sealed passphrase. The session is unusable afterwards.
func (s *Session) Destroy() {
	if s == nil || s.enclave == nil {
		return
	}
	// Enclaves have no explicit destructor; opening and destroying the
	// buffer wipes the plaintext copy, and the enclave itself is dropped.
	if buf, err := s.enclave.Open(); err == nil {
		buf.Destroy()
	}
	s.enclave = nil
}
