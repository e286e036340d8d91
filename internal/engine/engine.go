// Package engine is a thin facade over the inference runtime: an explicit
// lifecycle state machine plus a capability probe. The download subsystem
// treats it as a black box behind Load(path).
package engine

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// State is the engine lifecycle.
type State string

const (
	StateUnloaded State = "unloaded"
	StateLoading  State = "loading"
	StateReady    State = "ready"
	StateDegraded State = "degraded"
	StateFailed   State = "failed"
)

// Snapshot is a read-only projection of the engine state.
type Snapshot struct {
	State        State
	CurrentModel string
	Capability   Capability
	LastError    string
}

// Engine owns at most one loaded session and serializes lifecycle
// transitions. Safe for concurrent use.
type Engine struct {
	mu       sync.Mutex
	state    State
	current  string
	lastErr  string
	cap      Capability
	session  Session
	native   Adapter
	fallback Adapter
	log      zerolog.Logger
}

// New builds an unloaded engine. The native adapter is resolved lazily on
// first Load so that the capability probe happens at call time.
func New(log zerolog.Logger) *Engine {
	return &Engine{
		state:    StateUnloaded,
		cap:      CapUnknown,
		fallback: NewEchoAdapter(),
		log:      log,
	}
}

// NewWithAdapters builds an engine over explicit adapters (tests).
func NewWithAdapters(native, fallback Adapter, log zerolog.Logger) *Engine {
	capability := CapUnavailable
	if native != nil {
		capability = CapAvailable
	}
	return &Engine{
		state:    StateUnloaded,
		cap:      capability,
		native:   native,
		fallback: fallback,
		log:      log,
	}
}

// Load loads the artifact at path under the given model id. On native load
// failure the engine degrades to the fallback adapter rather than failing,
// as long as the fallback can start; only a fallback failure yields Failed.
func (e *Engine) Load(ctx context.Context, modelID, path string) error {
	e.mu.Lock()
	if e.state == StateReady && e.current == modelID {
		e.mu.Unlock()
		return nil
	}
	if e.session != nil {
		e.session.Close()
		e.session = nil
	}
	e.state = StateLoading
	e.current = modelID
	e.lastErr = ""
	e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		e.setFailed(err)
		return err
	}

	session, degraded, err := e.loadSession(path)
	if err != nil {
		e.setFailed(err)
		return err
	}

	e.mu.Lock()
	e.session = session
	if degraded {
		e.state = StateDegraded
	} else {
		e.state = StateReady
	}
	e.mu.Unlock()
	e.log.Info().Str("model", modelID).Bool("degraded", degraded).Msg("model loaded")
	return nil
}

func (e *Engine) loadSession(path string) (Session, bool, error) {
	e.mu.Lock()
	if e.cap == CapUnknown {
		e.cap = ProbeRuntime()
	}
	capNow := e.cap
	native := e.native
	e.mu.Unlock()

	if capNow == CapAvailable {
		if native == nil {
			a, err := NewNativeAdapter(2048, 4)
			if err == nil {
				e.mu.Lock()
				e.native = a
				e.mu.Unlock()
				native = a
			}
		}
		if native != nil {
			if s, err := native.Load(path); err == nil {
				return s, false, nil
			} else {
				e.log.Warn().Err(err).Msg("native load failed, degrading")
			}
		}
	}
	s, err := e.fallback.Load(path)
	if err != nil {
		return nil, false, err
	}
	return s, true, nil
}

func (e *Engine) setFailed(err error) {
	e.mu.Lock()
	e.state = StateFailed
	e.lastErr = err.Error()
	e.mu.Unlock()
}

// Unload releases the current session and returns to Unloaded.
func (e *Engine) Unload() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	var err error
	if e.session != nil {
		err = e.session.Close()
		e.session = nil
	}
	e.state = StateUnloaded
	e.current = ""
	return err
}

// Generate streams chunks from the loaded session. Valid in Ready and
// Degraded; any other state yields a not-ready error.
func (e *Engine) Generate(ctx context.Context, prompt string, params Params) (<-chan Chunk, error) {
	e.mu.Lock()
	state := e.state
	session := e.session
	e.mu.Unlock()
	if (state != StateReady && state != StateDegraded) || session == nil {
		return nil, ErrNotReady(state)
	}
	return session.Generate(ctx, prompt, params)
}

// Status returns a consistent snapshot.
func (e *Engine) Status() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		State:        e.state,
		CurrentModel: e.current,
		Capability:   e.cap,
		LastError:    e.lastErr,
	}
}
