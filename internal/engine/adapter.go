package engine

import "context"

// Adapter abstracts the model runtime. Concrete implementations: the native
// llama.cpp binding (build tag 'llama') and the echo fallback.
type Adapter interface {
	// Load prepares a session for the model artifact at path.
	Load(path string) (Session, error)
}

// Session is one loaded model. Generate may be called repeatedly; Close
// releases the underlying resources.
type Session interface {
	// Generate produces a finite, non-restartable sequence of text chunks.
	// The channel closes when generation ends. Cancelling ctx stops
	// production without invalidating chunks already received.
	Generate(ctx context.Context, prompt string, params Params) (<-chan Chunk, error)
	Close() error
}

// Params captures generation parameters passed to the adapter.
type Params struct {
	MaxTokens   int
	Temperature float32
}

// Chunk is one element of a generation stream. Err is set on the final
// chunk when generation ended abnormally.
type Chunk struct {
	Text string
	Err  error
}

// echoAdapter is the degraded fallback: no native runtime, canned chunks.
// It keeps the serving surface alive when the binding is missing or a model
// fails to load, the same role the placeholder infer loop played before the
// native path existed.
type echoAdapter struct{}

// NewEchoAdapter returns the fallback adapter.
func NewEchoAdapter() Adapter { return echoAdapter{} }

func (echoAdapter) Load(path string) (Session, error) {
	return &echoSession{path: path}, nil
}

type echoSession struct{ path string }

func (s *echoSession) Generate(ctx context.Context, prompt string, _ Params) (<-chan Chunk, error) {
	out := make(chan Chunk, 4)
	go func() {
		defer close(out)
		pieces := []string{"[degraded] ", "no native runtime; ", "echo: ", prompt}
		for _, p := range pieces {
			select {
			case out <- Chunk{Text: p}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (s *echoSession) Close() error { return nil }
