// Package envelope wraps application payloads in Fernet authenticated
// encryption (AES-128-CBC + HMAC-SHA256) using a pre-shared symmetric key.
// Tokens are byte-compatible with other Fernet implementations, so either
// peer may run a different stack as long as the key matches.
package envelope

import (
	"crypto/sha256"
	"errors"

	"github.com/fernet/fernet-go"
	"golang.org/x/crypto/pbkdf2"
)

// ErrAuthenticationFailure indicates a token produced with a different key,
// truncated, or altered in any byte. Verification is the library's standard
// HMAC check; no partial-match timing signal leaks.
var ErrAuthenticationFailure = errors.New("token authentication failed")

// DeriveIterations is the PBKDF2-SHA256 iteration count for
// passphrase-derived keys. Both peers must use the same value.
const DeriveIterations = 390000

// Envelope seals and opens payloads under one symmetric key, constant for
// the lifetime of the peer pair.
type Envelope struct {
	key *fernet.Key
}

// New returns an Envelope bound to key.
func New(key *fernet.Key) *Envelope {
	return &Envelope{key: key}
}

// ParseKey decodes a base64-encoded 32-byte Fernet key.
func ParseKey(s string) (*fernet.Key, error) {
	return fernet.DecodeKey(s)
}

// GenerateKey produces a fresh random key.
func GenerateKey() (*fernet.Key, error) {
	k := new(fernet.Key)
	if err := k.Generate(); err != nil {
		return nil, err
	}
	return k, nil
}

// DeriveKey stretches a shared passphrase into a Fernet key with
// PBKDF2-SHA256. The salt is not secret but must match on both peers.
func DeriveKey(passphrase, salt string) *fernet.Key {
	raw := pbkdf2.Key([]byte(passphrase), []byte(salt), DeriveIterations, 32, sha256.New)
	k := new(fernet.Key)
	copy(k[:], raw)
	return k
}

// Seal encrypts plain into an authenticated token. An empty plaintext maps
// to an empty token; the zero-length fast path is part of the wire format
// and both peers rely on it.
func (e *Envelope) Seal(plain []byte) ([]byte, error) {
	if len(plain) == 0 {
		return []byte{}, nil
	}
	return fernet.EncryptAndSign(plain, e.key)
}

// Open decrypts a token produced by Seal. An empty token maps to an empty
// plaintext. Any other token that does not verify under the key returns
// ErrAuthenticationFailure.
func (e *Envelope) Open(token []byte) ([]byte, error) {
	if len(token) == 0 {
		return []byte{}, nil
	}
	plain := fernet.VerifyAndDecrypt(token, 0, []*fernet.Key{e.key})
	if plain == nil {
		return nil, ErrAuthenticationFailure
	}
	return plain, nil
}
