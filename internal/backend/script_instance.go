package backend

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/dop251/goja"
)

// scriptInstance runs a backend implemented as a JavaScript file inside
// an in-process goja runtime. The script must define a global
// `enhance(capability, query)` function returning a string. Intended for
// development and demo setups where spawning a real server is overkill.
type scriptInstance struct {
	backendID  string
	scriptPath string

	mu    sync.Mutex
	state InstanceState
	vm    *goja.Runtime
	fn    goja.Callable
}

func newScriptInstance(backendID, scriptPath string) *scriptInstance {
	return &scriptInstance{
		backendID:  backendID,
		scriptPath: scriptPath,
		state:      StateStopped,
	}
}

func (s *scriptInstance) start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateStopped {
		return fmt.Errorf("cannot start script instance in state %s", s.state)
	}
	s.state = StateStarting

	src, err := os.ReadFile(s.scriptPath)
	if err != nil {
		s.state = StateStopped
		return fmt.Errorf("read script: %w", err)
	}

	vm := goja.New()
	if _, err := vm.RunScript(s.scriptPath, string(src)); err != nil {
		s.state = StateStopped
		return fmt.Errorf("evaluate script: %w", err)
	}

	fn, ok := goja.AssertFunction(vm.Get("enhance"))
	if !ok {
		s.state = StateStopped
		return fmt.Errorf("script %s does not define enhance(capability, query)", s.scriptPath)
	}

	s.vm = vm
	s.fn = fn
	s.state = StateReady
	return nil
}

func (s *scriptInstance) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vm = nil
	s.fn = nil
	s.state = StateStopped
}

func (s *scriptInstance) getState() InstanceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// enhance invokes the script function. The runtime is single-threaded;
// calls serialize on the instance mutex and honor ctx via interrupt.
func (s *scriptInstance) enhance(ctx context.Context, capability, query string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateStopped || s.vm == nil {
		return nil, fmt.Errorf("script instance is stopped")
	}
	s.state = StateBusy
	defer func() { s.state = StateIdle }()

	watchDone := make(chan struct{})
	watcherExited := make(chan struct{})
	go func() {
		defer close(watcherExited)
		select {
		case <-ctx.Done():
			s.vm.Interrupt(ctx.Err())
		case <-watchDone:
		}
	}()
	// Join the watcher before clearing: an interrupt landing after the
	// clear would poison the next call on this runtime.
	defer func() {
		close(watchDone)
		<-watcherExited
		s.vm.ClearInterrupt()
	}()

	val, err := s.fn(goja.Undefined(), s.vm.ToValue(capability), s.vm.ToValue(query))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("script enhance: %w", err)
	}

	content := val.String()
	if content == "" || content == "undefined" {
		return nil, fmt.Errorf("script enhance returned no content")
	}
	return []byte(content), nil
}
