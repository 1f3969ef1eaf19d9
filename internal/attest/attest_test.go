package attest

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
)

// generateKeyPair returns a fresh armored private key and its public
// counterpart. SerializePrivate runs first so the self-signatures exist
// before the public half is exported.
func generateKeyPair(t *testing.T) (priv, pub []byte) {
	t.Helper()

	entity, err := openpgp.NewEntity("probe ci", "", "ci@example.com", nil)
	if err != nil {
		t.Fatalf("generating key: %v", err)
	}

	var privBuf bytes.Buffer
	w, err := armor.Encode(&privBuf, openpgp.PrivateKeyType, nil)
	if err != nil {
		t.Fatalf("armor encode: %v", err)
	}
	if err := entity.SerializePrivate(w, nil); err != nil {
		t.Fatalf("serializing private key: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing armor: %v", err)
	}

	var pubBuf bytes.Buffer
	w, err = armor.Encode(&pubBuf, openpgp.PublicKeyType, nil)
	if err != nil {
		t.Fatalf("armor encode: %v", err)
	}
	if err := entity.Serialize(w); err != nil {
		t.Fatalf("serializing public key: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing armor: %v", err)
	}

	return privBuf.Bytes(), pubBuf.Bytes()
}

func writeTempFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestSignFileRoundTrip(t *testing.T) {
	priv, pub := generateKeyPair(t)
	keyPath := writeTempFile(t, "key.asc", priv)

	signer, err := NewSigner(keyPath)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}

	report := []byte(`{"target":"https://example.com","summary":{"failed":0}}`)
	reportPath := writeTempFile(t, "report.json", report)

	sigPath, err := signer.SignFile(reportPath)
	if err != nil {
		t.Fatalf("SignFile: %v", err)
	}
	if sigPath != reportPath+".asc" {
		t.Errorf("signature path = %q, want %q", sigPath, reportPath+".asc")
	}

	sig, err := os.ReadFile(sigPath)
	if err != nil {
		t.Fatalf("reading signature: %v", err)
	}
	if !strings.Contains(string(sig), "BEGIN PGP SIGNATURE") {
		t.Errorf("signature is not armored:\n%s", sig)
	}

	if err := Verify(report, sig, pub); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	priv, _ := generateKeyPair(t)
	_, otherPub := generateKeyPair(t)

	signer, err := NewSigner(writeTempFile(t, "key.asc", priv))
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}

	report := []byte("probe report")
	reportPath := writeTempFile(t, "report.txt", report)
	sigPath, err := signer.SignFile(reportPath)
	if err != nil {
		t.Fatalf("SignFile: %v", err)
	}
	sig, err := os.ReadFile(sigPath)
	if err != nil {
		t.Fatal(err)
	}

	if err := Verify(report, sig, otherPub); err == nil {
		t.Error("expected verification failure with unrelated key, got nil")
	}
}

func TestVerifyRejectsTamperedReport(t *testing.T) {
	priv, pub := generateKeyPair(t)

	signer, err := NewSigner(writeTempFile(t, "key.asc", priv))
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}

	report := []byte(`{"summary":{"failed":0}}`)
	reportPath := writeTempFile(t, "report.json", report)
	sigPath, err := signer.SignFile(reportPath)
	if err != nil {
		t.Fatalf("SignFile: %v", err)
	}
	sig, err := os.ReadFile(sigPath)
	if err != nil {
		t.Fatal(err)
	}

	tampered := []byte(`{"summary":{"failed":9}}`)
	if err := Verify(tampered, sig, pub); err == nil {
		t.Error("expected verification failure for tampered report, got nil")
	}
}

func TestNewSignerRejectsPublicKeyOnly(t *testing.T) {
	_, pub := generateKeyPair(t)

	_, err := NewSigner(writeTempFile(t, "pub.asc", pub))
	if err == nil {
		t.Fatal("expected error for keyring without private key, got nil")
	}
	if !strings.Contains(err.Error(), "no private key") {
		t.Errorf("error = %q, want mention of missing private key", err)
	}
}

func TestNewSignerMissingFile(t *testing.T) {
	if _, err := NewSigner(filepath.Join(t.TempDir(), "absent.asc")); err == nil {
		t.Fatal("expected error for missing key file, got nil")
	}
}
