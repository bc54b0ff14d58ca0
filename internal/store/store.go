// Package store defines the persistence interfaces for coaching
// sessions, conversation turns, stakeholders and encrypted credentials.
package store

import "context"

// Store is the composite interface for all data access.
type Store interface {
	SessionStore
	TurnStore
	StakeholderStore
	CredentialStore
	Ping(ctx context.Context) error
	Close() error
}

// SessionStore manages coaching session records.
type SessionStore interface {
	CreateSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	EndSession(ctx context.Context, id string) error
	ListSessions(ctx context.Context, limit int) ([]Session, error)
}

// TurnStore manages conversation turn records.
type TurnStore interface {
	InsertTurn(ctx context.Context, t *Turn) error
	ListTurns(ctx context.Context, f TurnFilter) ([]Turn, error)
	GetTurnStats(ctx context.Context) (*TurnStats, error)
}

// StakeholderStore manages the stakeholder registry.
type StakeholderStore interface {
	UpsertStakeholder(ctx context.Context, s *Stakeholder) error
	GetStakeholder(ctx context.Context, id string) (*Stakeholder, error)
	ListStakeholders(ctx context.Context) ([]Stakeholder, error)
	DeleteStakeholder(ctx context.Context, id string) error
}

// CredentialStore manages encrypted backend credentials.
type CredentialStore interface {
	PutCredential(ctx context.Context, c *Credential) error
	GetCredential(ctx context.Context, key string) (*Credential, error)
	ListCredentialKeys(ctx context.Context) ([]string, error)
	DeleteCredential(ctx context.Context, key string) error
}
