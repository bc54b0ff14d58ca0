package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/crestline/mentor/internal/coach"
	"github.com/crestline/mentor/internal/store"
	"golang.org/x/sync/errgroup"
)

func cmdServe(args []string) error {
	ctx, cancel := signal.NotifyContext(
		context.Background(), syscall.SIGINT, syscall.SIGTERM,
	)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyFlags(cfg, args)

	rt, err := buildRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.close()

	ids := make([]string, 0, len(rt.file.Backends))
	for _, b := range rt.file.Backends {
		ids = append(ids, b.ID)
	}
	if err := rt.manager.WarmUp(ctx, ids); err != nil {
		slog.Warn("backend warm up incomplete", "error", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/ask", rt.handleAsk)
	mux.HandleFunc("GET /v1/stats", rt.handleStats)
	mux.HandleFunc("GET /v1/sessions", rt.handleListSessions)
	mux.HandleFunc("GET /v1/sessions/{id}/turns", rt.handleListTurns)
	mux.HandleFunc("POST /v1/sessions/{id}/end", rt.handleEndSession)
	mux.HandleFunc("POST /v1/cache/flush", rt.handleCacheFlush)
	mux.HandleFunc("GET /healthz", rt.handleHealth)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutCancel()
		return srv.Shutdown(shutCtx)
	})

	return g.Wait()
}

// applyFlags parses --addr=X flags from the args list.
func applyFlags(cfg *Config, args []string) {
	for _, arg := range args {
		if len(arg) > 7 && arg[:7] == "--addr=" {
			cfg.HTTPAddr = arg[7:]
		}
	}
}

type askRequest struct {
	SessionID string         `json:"session_id,omitempty"`
	Query     string         `json:"query"`
	Persona   string         `json:"persona,omitempty"`
	Context   map[string]any `json:"context,omitempty"`
}

type askResponse struct {
	SessionID        string `json:"session_id,omitempty"`
	Content          string `json:"content"`
	Disclosure       string `json:"disclosure,omitempty"`
	Category         string `json:"category"`
	SourceBackend    string `json:"source_backend,omitempty"`
	ProcessingTimeMs int64  `json:"processing_time_ms"`
	Success          bool   `json:"success"`
	Cached           bool   `json:"cached"`
	Error            string `json:"error,omitempty"`
}

func (rt *runtime) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	sid := req.SessionID
	if sid == "" {
		session, err := rt.engine.StartSession(r.Context(), req.Persona)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "start session failed")
			return
		}
		sid = session.ID
	}

	reply, err := rt.engine.Ask(r.Context(), coach.Request{
		SessionID: sid,
		Query:     req.Query,
		Persona:   req.Persona,
		Context:   req.Context,
	})
	if errors.Is(err, coach.ErrEmptyQuery) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, askResponse{
		SessionID:        sid,
		Content:          reply.Content,
		Disclosure:       reply.Disclosure,
		Category:         reply.Category.String(),
		SourceBackend:    reply.Response.SourceBackend,
		ProcessingTimeMs: reply.Response.ProcessingTimeMs,
		Success:          reply.Response.Success,
		Cached:           reply.Response.Cached,
		Error:            reply.Response.Error,
	})
}

func (rt *runtime) handleStats(w http.ResponseWriter, r *http.Request) {
	states := make(map[string]string)
	for id, st := range rt.manager.States() {
		states[id] = st.String()
	}

	turns, err := rt.db.GetTurnStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "turn stats unavailable")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"cache":    rt.cache.Stats(),
		"backends": rt.tracker.Snapshot(),
		"sla":      rt.tracker.CheckSLA(rt.file.SLATargets()),
		"states":   states,
		"turns":    turns,
	})
}

func (rt *runtime) handleListSessions(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	sessions, err := rt.db.ListSessions(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list sessions failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (rt *runtime) handleListTurns(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	turns, err := rt.db.ListTurns(r.Context(), store.TurnFilter{SessionID: &id})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list turns failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"turns": turns})
}

func (rt *runtime) handleEndSession(w http.ResponseWriter, r *http.Request) {
	err := rt.db.EndSession(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "session not found or already ended")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "end session failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ended"})
}

type cacheFlushRequest struct {
	Backend string `json:"backend"` // empty = flush everything
}

func (rt *runtime) handleCacheFlush(w http.ResponseWriter, r *http.Request) {
	var req cacheFlushRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	if req.Backend != "" {
		rt.cache.InvalidateBackend(req.Backend)
	} else {
		rt.cache.Flush()
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "flushed"})
}

func (rt *runtime) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := rt.db.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
