// Package coach ties the pieces together: it classifies a question,
// dispatches it through the enhancement layer, renders the reply in the
// chosen persona's voice and persists the exchange.
package coach

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/crestline/mentor/internal/enhance"
	"github.com/crestline/mentor/internal/persona"
	"github.com/crestline/mentor/internal/store"
)

// DegradedMessage replaces the reply body when every backend failed.
// The routing details stay inspectable through the ledger.
const DegradedMessage = "I wasn't able to reach my analysis tools just now, " +
	"so this answer comes without enhancement. Consider retrying in a moment " +
	"for a more detailed response."

// ErrEmptyQuery rejects requests with no question text.
var ErrEmptyQuery = errors.New("query must not be empty")

// Request is one coaching question.
type Request struct {
	SessionID string
	Query     string
	Persona   string
	Context   map[string]any // opaque, reserved for callers
}

// Reply is the rendered coaching answer plus the routing evidence that
// produced it.
type Reply struct {
	Content    string
	Disclosure string
	Category   enhance.Category
	Response   enhance.Response
	Ledger     []enhance.CallRecord
}

// Engine orchestrates the request pipeline. The store is optional: a nil
// store skips persistence (one-shot CLI usage).
type Engine struct {
	dispatcher *enhance.Dispatcher
	store      store.Store
	timeout    time.Duration
	logger     *slog.Logger
}

// NewEngine wires a coach engine. timeout bounds each backend attempt.
func NewEngine(d *enhance.Dispatcher, st store.Store, timeout time.Duration, logger *slog.Logger) *Engine {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{dispatcher: d, store: st, timeout: timeout, logger: logger}
}

// StartSession opens a persisted coaching session for the persona.
func (e *Engine) StartSession(ctx context.Context, personaID string) (*store.Session, error) {
	if e.store == nil {
		return nil, errors.New("no store configured")
	}
	s := &store.Session{Persona: persona.Lookup(personaID).ID}
	if err := e.store.CreateSession(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Ask services one coaching question end to end. Backend failures never
// surface as errors: the reply degrades to the static message and the
// ledger carries the evidence.
func (e *Engine) Ask(ctx context.Context, req Request) (*Reply, error) {
	if req.Query == "" {
		return nil, ErrEmptyQuery
	}

	p := persona.Lookup(req.Persona)
	cat := enhance.Classify(req.Query)

	ledger := enhance.NewLedger()
	resp := e.dispatcher.Dispatch(ctx, cat, req.Query, e.timeout, ledger)

	body := string(resp.Content)
	if !resp.Success {
		body = DegradedMessage
	}

	disclosure := enhance.RenderDisclosure(ledger.Records())
	frameworks := persona.Suggest(req.Query, 2)
	content := persona.Render(p, body, frameworks, disclosure)

	reply := &Reply{
		Content:    content,
		Disclosure: disclosure,
		Category:   cat,
		Response:   resp,
		Ledger:     ledger.Records(),
	}

	e.persistTurn(ctx, req, reply)
	return reply, nil
}

// persistTurn records the exchange. Storage failures are logged, never
// propagated: losing a log line must not fail the request.
func (e *Engine) persistTurn(ctx context.Context, req Request, reply *Reply) {
	if e.store == nil || req.SessionID == "" {
		return
	}

	turn := &store.Turn{
		SessionID:     req.SessionID,
		Query:         req.Query,
		Content:       reply.Content,
		Category:      reply.Category.String(),
		SourceBackend: reply.Response.SourceBackend,
		Success:       reply.Response.Success,
		Cached:        reply.Response.Cached,
		LatencyMs:     reply.Response.ProcessingTimeMs,
		Disclosure:    reply.Disclosure,
	}
	if err := e.store.InsertTurn(ctx, turn); err != nil {
		e.logger.Error("persist turn failed",
			"session", req.SessionID, "error", err)
	}
}
