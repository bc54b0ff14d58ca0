package backend

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"
)

// InstanceState represents the lifecycle state of a backend instance.
type InstanceState int

const (
	StateStopped InstanceState = iota
	StateStarting
	StateReady
	StateBusy
	StateIdle
	StateStopping
)

func (s InstanceState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateReady:
		return "ready"
	case StateBusy:
		return "busy"
	case StateIdle:
		return "idle"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// instance is the common interface for stdio, HTTP and script backends.
type instance interface {
	start(ctx context.Context) error
	stop()
	enhance(ctx context.Context, capability, query string) ([]byte, error)
	getState() InstanceState
}

// stdioInstance manages a single enhancement server process speaking
// newline-delimited JSON-RPC over stdin/stdout.
type stdioInstance struct {
	backendID string
	command   string
	args      []string

	idleTimeout time.Duration
	idleTimer   *time.Timer

	mu    sync.Mutex
	state InstanceState
	cmd   *exec.Cmd
	stdin io.WriteCloser
	queue *requestQueue
	reqID atomic.Int64

	cancel context.CancelFunc
	done   chan struct{}
}

func newStdioInstance(backendID, command string, args []string, idleTimeout time.Duration) *stdioInstance {
	return &stdioInstance{
		backendID:   backendID,
		command:     command,
		args:        args,
		idleTimeout: idleTimeout,
		state:       StateStopped,
		done:        make(chan struct{}),
		queue:       newRequestQueue(64),
	}
}

func (inst *stdioInstance) start(ctx context.Context) error {
	inst.mu.Lock()
	defer inst.mu.Unlock()

	if inst.state != StateStopped {
		return fmt.Errorf("cannot start instance in state %s", inst.state)
	}
	inst.state = StateStarting

	childCtx, cancel := context.WithCancel(ctx)
	inst.cancel = cancel

	cmd := exec.CommandContext(childCtx, inst.command, inst.args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		inst.state = StateStopped
		return fmt.Errorf("stdin pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		inst.state = StateStopped
		return fmt.Errorf("stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		cancel()
		inst.state = StateStopped
		return fmt.Errorf("start process: %w", err)
	}

	inst.cmd = cmd
	inst.stdin = stdin
	inst.done = make(chan struct{})

	// One scanner owns stdout for the life of the process: a second
	// scanner would lose whatever the first buffered past its last line.
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	initCtx, initCancel := context.WithTimeout(childCtx, 30*time.Second)
	if err := inst.initialize(initCtx, stdin, scanner); err != nil {
		initCancel()
		cmd.Process.Kill()
		cancel()
		inst.state = StateStopped
		return fmt.Errorf("initialize: %w", err)
	}
	initCancel()

	inst.state = StateReady

	go inst.processLoop(scanner)
	go inst.monitorProcess(cmd)

	return nil
}

// initialize performs the handshake: an initialize request must be
// answered before the instance accepts enhance traffic.
func (inst *stdioInstance) initialize(ctx context.Context, stdin io.Writer, scanner *bufio.Scanner) error {
	initReq := jsonRPCRequest{
		JSONRPC: "2.0",
		ID:      json.RawMessage(`1`),
		Method:  "initialize",
		Params: json.RawMessage(`{
			"protocolVersion": "1",
			"clientInfo": {"name": "mentor", "version": "0.1.0"}
		}`),
	}
	if err := writeJSONLine(stdin, initReq); err != nil {
		return fmt.Errorf("write initialize: %w", err)
	}

	type scanResult struct {
		line []byte
		err  error
	}
	ch := make(chan scanResult, 1)
	go func() {
		if scanner.Scan() {
			ch <- scanResult{line: append([]byte{}, scanner.Bytes()...)}
		} else {
			ch <- scanResult{err: fmt.Errorf("no initialize response")}
		}
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("initialize timed out: %w", ctx.Err())
	case res := <-ch:
		if res.err != nil {
			return res.err
		}
	}
	return nil
}

func (inst *stdioInstance) processLoop(scanner *bufio.Scanner) {
	defer close(inst.done)

	for {
		req, ok := inst.queue.dequeue()
		if !ok {
			return
		}

		inst.mu.Lock()
		inst.state = StateBusy
		inst.mu.Unlock()

		result, err := inst.handleRequest(req, scanner)

		req.Result <- response{Data: result, Err: err}

		inst.mu.Lock()
		inst.state = StateIdle
		inst.resetIdleTimer()
		inst.mu.Unlock()
	}
}

func (inst *stdioInstance) handleRequest(
	req request, scanner *bufio.Scanner,
) (json.RawMessage, error) {
	rpcReq := jsonRPCRequest{
		JSONRPC: "2.0",
		ID:      json.RawMessage(fmt.Sprintf(`%d`, req.ID)),
		Method:  req.Method,
		Params:  req.Params,
	}

	inst.mu.Lock()
	w := inst.stdin
	inst.mu.Unlock()

	if err := writeJSONLine(w, rpcReq); err != nil {
		return nil, fmt.Errorf("write request: %w", err)
	}

	if !scanner.Scan() {
		return nil, fmt.Errorf("no response from backend")
	}

	var rpcResp jsonRPCResponse
	if err := json.Unmarshal(scanner.Bytes(), &rpcResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	if rpcResp.Error != nil {
		return nil, fmt.Errorf("backend error %d: %s",
			rpcResp.Error.Code, rpcResp.Error.Message)
	}

	return rpcResp.Result, nil
}

func (inst *stdioInstance) getState() InstanceState {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.state
}

// enhance sends an enhance request via the queue and waits for either
// the response or context cancellation.
func (inst *stdioInstance) enhance(ctx context.Context, capability, query string) ([]byte, error) {
	resultCh := make(chan response, 1)
	id := int(inst.reqID.Add(1))

	err := inst.queue.enqueue(request{
		ID:     id,
		Method: "enhance",
		Params: marshalEnhanceParams(capability, query),
		Result: resultCh,
	})
	if err != nil {
		return nil, fmt.Errorf("backend %s: %w", inst.backendID, err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case resp := <-resultCh:
		if resp.Err != nil {
			return nil, resp.Err
		}
		return extractContent(resp.Data)
	}
}

func (inst *stdioInstance) monitorProcess(cmd *exec.Cmd) {
	err := cmd.Wait()
	inst.mu.Lock()
	defer inst.mu.Unlock()

	if inst.state == StateStopping {
		return
	}

	if err != nil {
		slog.Error("backend process crashed",
			"backend", inst.backendID, "error", err)
	}
	inst.state = StateStopped
}

func (inst *stdioInstance) stop() {
	inst.mu.Lock()
	if inst.state == StateStopped || inst.state == StateStopping {
		inst.mu.Unlock()
		return
	}
	inst.state = StateStopping
	if inst.idleTimer != nil {
		inst.idleTimer.Stop()
	}
	inst.mu.Unlock()

	inst.queue.close()
	if inst.cancel != nil {
		inst.cancel()
	}

	select {
	case <-inst.done:
	case <-time.After(5 * time.Second):
		if inst.cmd != nil && inst.cmd.Process != nil {
			inst.cmd.Process.Kill()
		}
	}

	inst.mu.Lock()
	inst.state = StateStopped
	inst.mu.Unlock()
}

func (inst *stdioInstance) resetIdleTimer() {
	if inst.idleTimeout <= 0 {
		return
	}
	if inst.idleTimer != nil {
		inst.idleTimer.Stop()
	}
	inst.idleTimer = time.AfterFunc(inst.idleTimeout, func() {
		slog.Info("idle timeout, stopping backend",
			"backend", inst.backendID)
		inst.stop()
	})
}
