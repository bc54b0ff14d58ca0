package store

import "time"

// Session represents one coaching conversation with a chosen persona.
type Session struct {
	ID        string     `json:"id"`
	Persona   string     `json:"persona"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// Turn is one question/answer exchange within a session, annotated with
// the enhancement routing outcome for later inspection.
type Turn struct {
	ID            string    `json:"id"`
	SessionID     string    `json:"session_id"`
	Query         string    `json:"query"`
	Content       string    `json:"content"`
	Category      string    `json:"category"`
	SourceBackend string    `json:"source_backend"`
	Success       bool      `json:"success"`
	Cached        bool      `json:"cached"`
	LatencyMs     int64     `json:"latency_ms"`
	Disclosure    string    `json:"disclosure"`
	CreatedAt     time.Time `json:"created_at"`
}

// Stakeholder is an entry in the coached leader's stakeholder registry.
type Stakeholder struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Influence string    `json:"influence"` // "low", "medium", "high"
	Interest  string    `json:"interest"`  // "low", "medium", "high"
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Credential holds an age-encrypted secret for a backend, addressed by a
// caller-chosen key (the config's credential_key).
type Credential struct {
	Key           string    `json:"key"`
	EncryptedData []byte    `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TurnFilter specifies query parameters for listing turns.
type TurnFilter struct {
	SessionID *string    `json:"session_id,omitempty"`
	Backend   *string    `json:"backend,omitempty"`
	After     *time.Time `json:"after,omitempty"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
}

// TurnStats aggregates routing outcomes across stored turns.
type TurnStats struct {
	TotalTurns   int     `json:"total_turns"`
	SuccessCount int     `json:"success_count"`
	CachedCount  int     `json:"cached_count"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
}
