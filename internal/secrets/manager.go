package secrets

import (
	"context"
	"fmt"
	"time"

	"github.com/crestline/mentor/internal/store"
)

// Manager combines store-backed credential storage with age encryption.
// It satisfies the backend package's CredentialSource.
type Manager struct {
	store     store.CredentialStore
	encryptor *Encryptor
}

// NewManager creates a secrets Manager.
func NewManager(s store.CredentialStore, enc *Encryptor) *Manager {
	return &Manager{store: s, encryptor: enc}
}

// Put encrypts and stores a credential under the given key.
func (m *Manager) Put(ctx context.Context, key string, plaintext []byte) error {
	encrypted, err := m.encryptor.Encrypt(plaintext)
	if err != nil {
		return fmt.Errorf("encrypt credential: %w", err)
	}

	now := time.Now().UTC()
	cred := &store.Credential{
		Key:           key,
		EncryptedData: encrypted,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := m.store.PutCredential(ctx, cred); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	return nil
}

// Get decrypts and returns the credential stored under key.
func (m *Manager) Get(ctx context.Context, key string) ([]byte, error) {
	cred, err := m.store.GetCredential(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get credential %q: %w", key, err)
	}
	plaintext, err := m.encryptor.Decrypt(cred.EncryptedData)
	if err != nil {
		return nil, fmt.Errorf("decrypt credential %q: %w", key, err)
	}
	return plaintext, nil
}

// Keys lists the stored credential keys.
func (m *Manager) Keys(ctx context.Context) ([]string, error) {
	return m.store.ListCredentialKeys(ctx)
}

// Delete removes a stored credential.
func (m *Manager) Delete(ctx context.Context, key string) error {
	return m.store.DeleteCredential(ctx, key)
}
