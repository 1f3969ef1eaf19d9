// Package attest signs written report files with an armored detached PGP
// signature so CI artifacts carry a tamper-evident audit trail.
package attest

import (
	"bytes"
	"fmt"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
)

// Signer holds a decrypted private key used to sign report files.
type Signer struct {
	entity *openpgp.Entity
}

// NewSigner loads an armored keyring from keyPath and selects the first
// entity carrying a private key. Passphrase-protected keys are rejected:
// the tool runs unattended and cannot prompt.
func NewSigner(keyPath string) (*Signer, error) {
	f, err := os.Open(keyPath)
	if err != nil {
		return nil, fmt.Errorf("opening signing key: %w", err)
	}
	defer f.Close()

	entities, err := openpgp.ReadArmoredKeyRing(f)
	if err != nil {
		return nil, fmt.Errorf("reading signing key %s: %w", keyPath, err)
	}

	for _, e := range entities {
		if e.PrivateKey == nil {
			continue
		}
		if e.PrivateKey.Encrypted {
			return nil, fmt.Errorf("signing key %s is passphrase-protected, export it decrypted", keyPath)
		}
		return &Signer{entity: e}, nil
	}
	return nil, fmt.Errorf("no private key found in %s", keyPath)
}

// SignFile writes an armored detached signature for the file at path and
// returns the signature path, path + ".asc".
func (s *Signer) SignFile(path string) (string, error) {
	in, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening report for signing: %w", err)
	}
	defer in.Close()

	sigPath := path + ".asc"
	out, err := os.Create(sigPath)
	if err != nil {
		return "", fmt.Errorf("creating signature file: %w", err)
	}

	if err := openpgp.ArmoredDetachSign(out, s.entity, in, nil); err != nil {
		out.Close()
		os.Remove(sigPath)
		return "", fmt.Errorf("signing %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("writing signature file: %w", err)
	}
	return sigPath, nil
}

// Verify checks an armored detached signature over signed against the
// given armored keyring. Used by tests and downstream release tooling.
func Verify(signed, signature, keyring []byte) error {
	entities, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(keyring))
	if err != nil {
		return fmt.Errorf("reading keyring: %w", err)
	}
	if _, err := openpgp.CheckArmoredDetachedSignature(entities, bytes.NewReader(signed), bytes.NewReader(signature), nil); err != nil {
		return fmt.Errorf("signature verification failed: %w", err)
	}
	return nil
}
