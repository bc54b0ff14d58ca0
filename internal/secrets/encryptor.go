// Package secrets keeps backend credentials encrypted at rest using age
// X25519 identities.
package secrets

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"
)

// Encryptor encrypts and decrypts small payloads with a single age
// identity loaded from an identity file.
type Encryptor struct {
	identity  *age.X25519Identity
	recipient *age.X25519Recipient
}

// NewEncryptor loads an age identity from the given file. The file uses
// the standard age identities format: comment lines and one
// AGE-SECRET-KEY-1 line.
func NewEncryptor(keyPath string) (*Encryptor, error) {
	data, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("read age key: %w", err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		id, err := age.ParseX25519Identity(line)
		if err != nil {
			return nil, fmt.Errorf("parse age identity: %w", err)
		}
		return &Encryptor{identity: id, recipient: id.Recipient()}, nil
	}
	return nil, fmt.Errorf("no age identity found in %s", keyPath)
}

// GenerateKeyFile creates a new age identity and writes it to keyPath
// with owner-only permissions. Fails if the file already exists.
func GenerateKeyFile(keyPath string) error {
	if _, err := os.Stat(keyPath); err == nil {
		return fmt.Errorf("key file %s already exists", keyPath)
	}

	id, err := age.GenerateX25519Identity()
	if err != nil {
		return fmt.Errorf("generate identity: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(keyPath), 0o700); err != nil {
		return fmt.Errorf("create key dir: %w", err)
	}

	content := fmt.Sprintf("# public key: %s\n%s\n", id.Recipient(), id)
	if err := os.WriteFile(keyPath, []byte(content), 0o600); err != nil {
		return fmt.Errorf("write key file: %w", err)
	}
	return nil
}

// Encrypt seals plaintext to the identity's recipient.
func (e *Encryptor) Encrypt(plaintext []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, e.recipient)
	if err != nil {
		return nil, fmt.Errorf("age encrypt: %w", err)
	}
	if _, err := w.Write(plaintext); err != nil {
		return nil, fmt.Errorf("write plaintext: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close encryptor: %w", err)
	}
	return buf.Bytes(), nil
}

// Decrypt opens a payload sealed with Encrypt.
func (e *Encryptor) Decrypt(ciphertext []byte) ([]byte, error) {
	r, err := age.Decrypt(bytes.NewReader(ciphertext), e.identity)
	if err != nil {
		return nil, fmt.Errorf("age decrypt: %w", err)
	}
	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read plaintext: %w", err)
	}
	return plaintext, nil
}
