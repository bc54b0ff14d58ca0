package coach

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/crestline/mentor/internal/enhance"
	"github.com/crestline/mentor/internal/store"
)

// stubCaller answers every backend with a fixed outcome.
type stubCaller struct {
	content []byte
	err     error
}

func (s *stubCaller) Call(ctx context.Context, backend, capability, query string) ([]byte, error) {
	return s.content, s.err
}

// memStore records sessions and turns; unused store surface returns
// zero values.
type memStore struct {
	sessions []*store.Session
	turns    []*store.Turn
	turnErr  error
}

func (m *memStore) CreateSession(ctx context.Context, s *store.Session) error {
	s.ID = "session-1"
	s.StartedAt = time.Now().UTC()
	m.sessions = append(m.sessions, s)
	return nil
}

func (m *memStore) GetSession(ctx context.Context, id string) (*store.Session, error) {
	return nil, store.ErrNotFound
}

func (m *memStore) EndSession(ctx context.Context, id string) error { return nil }

func (m *memStore) ListSessions(ctx context.Context, limit int) ([]store.Session, error) {
	return nil, nil
}

func (m *memStore) InsertTurn(ctx context.Context, t *store.Turn) error {
	if m.turnErr != nil {
		return m.turnErr
	}
	m.turns = append(m.turns, t)
	return nil
}

func (m *memStore) ListTurns(ctx context.Context, f store.TurnFilter) ([]store.Turn, error) {
	return nil, nil
}

func (m *memStore) GetTurnStats(ctx context.Context) (*store.TurnStats, error) {
	return &store.TurnStats{}, nil
}

func (m *memStore) UpsertStakeholder(ctx context.Context, s *store.Stakeholder) error { return nil }

func (m *memStore) GetStakeholder(ctx context.Context, id string) (*store.Stakeholder, error) {
	return nil, store.ErrNotFound
}

func (m *memStore) ListStakeholders(ctx context.Context) ([]store.Stakeholder, error) {
	return nil, nil
}

func (m *memStore) DeleteStakeholder(ctx context.Context, id string) error { return nil }

func (m *memStore) PutCredential(ctx context.Context, c *store.Credential) error { return nil }

func (m *memStore) GetCredential(ctx context.Context, key string) (*store.Credential, error) {
	return nil, store.ErrNotFound
}

func (m *memStore) ListCredentialKeys(ctx context.Context) ([]string, error) { return nil, nil }

func (m *memStore) DeleteCredential(ctx context.Context, key string) error { return nil }

func (m *memStore) Ping(ctx context.Context) error { return nil }

func (m *memStore) Close() error { return nil }

func newTestEngine(t *testing.T, caller enhance.Caller, st store.Store) *Engine {
	t.Helper()
	sel, err := enhance.NewSelector([]enhance.SelectorConfig{
		{Backend: "sequential", Categories: []enhance.Category{
			enhance.CategoryGeneral, enhance.CategoryStrategicAnalysis,
			enhance.CategoryTechnicalLookup, enhance.CategoryUIComponent,
			enhance.CategoryTestAutomation,
		}},
	})
	if err != nil {
		t.Fatalf("NewSelector: %v", err)
	}
	d := enhance.NewDispatcher(sel, nil, caller, nil, nil)
	return NewEngine(d, st, time.Second, nil)
}

func TestEngine_Ask(t *testing.T) {
	st := &memStore{}
	e := newTestEngine(t, &stubCaller{content: []byte("Lead with context, not control.")}, st)

	reply, err := e.Ask(context.Background(), Request{
		SessionID: "session-1",
		Query:     "How should I delegate this decision?",
		Persona:   "director",
	})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}

	if !strings.Contains(reply.Content, "## Engineering Director") {
		t.Errorf("reply missing persona header:\n%s", reply.Content)
	}
	if !strings.Contains(reply.Content, "Lead with context, not control.") {
		t.Errorf("reply missing backend content:\n%s", reply.Content)
	}
	if !strings.Contains(reply.Content, "Enhanced with multi-step reasoning analysis") {
		t.Errorf("reply missing disclosure:\n%s", reply.Content)
	}
	if reply.Category != enhance.CategoryGeneral {
		t.Errorf("Category = %s; want general", reply.Category)
	}

	if len(st.turns) != 1 {
		t.Fatalf("persisted %d turns; want 1", len(st.turns))
	}
	turn := st.turns[0]
	if turn.SessionID != "session-1" || !turn.Success || turn.SourceBackend != "sequential" {
		t.Errorf("turn = %+v; want successful sequential exchange", turn)
	}
}

func TestEngine_Ask_DegradedOnFailure(t *testing.T) {
	st := &memStore{}
	e := newTestEngine(t, &stubCaller{err: errors.New("down")}, st)

	reply, err := e.Ask(context.Background(), Request{
		SessionID: "session-1",
		Query:     "anything",
	})
	if err != nil {
		t.Fatalf("Ask returned error on backend failure: %v", err)
	}

	if !strings.Contains(reply.Content, DegradedMessage) {
		t.Errorf("reply missing degraded message:\n%s", reply.Content)
	}
	if !strings.Contains(reply.Disclosure, enhance.DegradedNotice) {
		t.Errorf("disclosure = %q; want degraded notice", reply.Disclosure)
	}
	if reply.Response.Success {
		t.Error("Response.Success = true; want false")
	}

	// The failed exchange is still persisted for later inspection.
	if len(st.turns) != 1 || st.turns[0].Success {
		t.Errorf("turns = %+v; want one failed turn", st.turns)
	}
}

func TestEngine_Ask_EmptyQuery(t *testing.T) {
	e := newTestEngine(t, &stubCaller{content: []byte("x")}, nil)

	_, err := e.Ask(context.Background(), Request{Query: ""})
	if !errors.Is(err, ErrEmptyQuery) {
		t.Fatalf("err = %v; want ErrEmptyQuery", err)
	}
}

func TestEngine_Ask_StoreFailureDoesNotFailRequest(t *testing.T) {
	st := &memStore{turnErr: errors.New("disk full")}
	e := newTestEngine(t, &stubCaller{content: []byte("answer")}, st)

	reply, err := e.Ask(context.Background(), Request{
		SessionID: "session-1",
		Query:     "a question",
	})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if !strings.Contains(reply.Content, "answer") {
		t.Errorf("reply lost content on store failure:\n%s", reply.Content)
	}
}

func TestEngine_Ask_NoSessionSkipsPersistence(t *testing.T) {
	st := &memStore{}
	e := newTestEngine(t, &stubCaller{content: []byte("answer")}, st)

	if _, err := e.Ask(context.Background(), Request{Query: "a question"}); err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if len(st.turns) != 0 {
		t.Errorf("persisted %d turns without a session; want 0", len(st.turns))
	}
}

func TestEngine_StartSession(t *testing.T) {
	st := &memStore{}
	e := newTestEngine(t, &stubCaller{content: []byte("x")}, st)

	s, err := e.StartSession(context.Background(), "bogus-persona")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if s.ID == "" {
		t.Error("session ID not assigned")
	}
	if s.Persona != "mentor" {
		t.Errorf("Persona = %q; want default mentor", s.Persona)
	}
}
