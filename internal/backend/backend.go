// Package backend manages the lifecycle of enhancement backend servers
// and dispatches enhancement calls to them over stdio, HTTP or an
// in-process script runtime.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrUnknownBackend means a call referenced a backend that is not in the
// configured registry.
var ErrUnknownBackend = errors.New("unknown backend")

// CredentialSource resolves stored credentials for backends that need
// them (HTTP transports). May be absent; backends without a
// credential_key never consult it.
type CredentialSource interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// jsonRPCRequest is a JSON-RPC 2.0 request frame.
type jsonRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// jsonRPCResponse is a JSON-RPC 2.0 response frame.
type jsonRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// enhanceParams is the wire shape of an enhance request.
type enhanceParams struct {
	Capability string `json:"capability"`
	Query      string `json:"query"`
}

// enhanceResult is the wire shape of an enhance response.
type enhanceResult struct {
	Content string `json:"content"`
}

func marshalEnhanceParams(capability, query string) json.RawMessage {
	data, _ := json.Marshal(enhanceParams{Capability: capability, Query: query})
	return data
}

// extractContent pulls the content payload out of an enhance result.
func extractContent(result json.RawMessage) ([]byte, error) {
	var r enhanceResult
	if err := json.Unmarshal(result, &r); err != nil {
		return nil, fmt.Errorf("unmarshal enhance result: %w", err)
	}
	if r.Content == "" {
		return nil, errors.New("enhance result has no content")
	}
	return []byte(r.Content), nil
}

// writeJSONLine writes v as a single newline-terminated JSON document.
func writeJSONLine(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
