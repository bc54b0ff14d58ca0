package secrets

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGenerateKeyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "key.age")

	if err := GenerateKeyFile(path); err != nil {
		t.Fatalf("GenerateKeyFile: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat key file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("key file mode = %o; want 600", perm)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read key file: %v", err)
	}
	if !strings.Contains(string(data), "AGE-SECRET-KEY-1") {
		t.Error("key file does not contain an age secret key")
	}
	if !strings.HasPrefix(string(data), "# public key: age1") {
		t.Error("key file missing public key comment")
	}

	// Refuses to clobber an existing key.
	if err := GenerateKeyFile(path); err == nil {
		t.Fatal("expected error overwriting existing key file")
	}
}

func TestEncryptor_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key.age")
	if err := GenerateKeyFile(path); err != nil {
		t.Fatalf("GenerateKeyFile: %v", err)
	}

	enc, err := NewEncryptor(path)
	if err != nil {
		t.Fatalf("NewEncryptor: %v", err)
	}

	plaintext := []byte("super-secret-api-token")
	ciphertext, err := enc.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if bytes.Contains(ciphertext, plaintext) {
		t.Fatal("ciphertext contains the plaintext")
	}

	got, err := enc.Decrypt(ciphertext)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("Decrypt = %q; want %q", got, plaintext)
	}
}

func TestEncryptor_WrongKeyFails(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.age")
	pathB := filepath.Join(dir, "b.age")
	for _, p := range []string{pathA, pathB} {
		if err := GenerateKeyFile(p); err != nil {
			t.Fatalf("GenerateKeyFile(%s): %v", p, err)
		}
	}

	encA, err := NewEncryptor(pathA)
	if err != nil {
		t.Fatalf("NewEncryptor(a): %v", err)
	}
	encB, err := NewEncryptor(pathB)
	if err != nil {
		t.Fatalf("NewEncryptor(b): %v", err)
	}

	ciphertext, err := encA.Encrypt([]byte("secret"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := encB.Decrypt(ciphertext); err == nil {
		t.Fatal("expected decryption with wrong identity to fail")
	}
}

func TestNewEncryptor_BadFiles(t *testing.T) {
	dir := t.TempDir()

	if _, err := NewEncryptor(filepath.Join(dir, "missing.age")); err == nil {
		t.Error("expected error for missing key file")
	}

	empty := filepath.Join(dir, "empty.age")
	if err := os.WriteFile(empty, []byte("# just a comment\n\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewEncryptor(empty); err == nil {
		t.Error("expected error for key file without an identity")
	}
}
