package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
)

// httpInstance speaks JSON-RPC over HTTP POST to a remote enhancement
// server. Each request is a separate POST; the server side is stateless
// so there is no process to idle out.
type httpInstance struct {
	backendID string
	url       string
	client    *http.Client

	mu          sync.Mutex
	state       InstanceState
	authHeaders http.Header
	reqID       atomic.Int64
}

func newHTTPInstance(backendID, url string, headers http.Header) *httpInstance {
	return &httpInstance{
		backendID:   backendID,
		url:         url,
		state:       StateStopped,
		authHeaders: headers,
		client:      &http.Client{},
	}
}

func (h *httpInstance) start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != StateStopped {
		return fmt.Errorf("cannot start http instance in state %s", h.state)
	}
	h.state = StateReady
	return nil
}

func (h *httpInstance) stop() {
	h.mu.Lock()
	h.state = StateStopped
	h.mu.Unlock()
	h.client.CloseIdleConnections()
}

func (h *httpInstance) getState() InstanceState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *httpInstance) enhance(ctx context.Context, capability, query string) ([]byte, error) {
	rpcReq := jsonRPCRequest{
		JSONRPC: "2.0",
		ID:      json.RawMessage(fmt.Sprintf(`%d`, h.reqID.Add(1))),
		Method:  "enhance",
		Params:  marshalEnhanceParams(capability, query),
	}

	body, err := json.Marshal(rpcReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	h.mu.Lock()
	for k, vals := range h.authHeaders {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	h.mu.Unlock()

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("backend returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var rpcResp jsonRPCResponse
	if err := json.Unmarshal(data, &rpcResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, fmt.Errorf("backend error %d: %s",
			rpcResp.Error.Code, rpcResp.Error.Message)
	}

	return extractContent(rpcResp.Result)
}
