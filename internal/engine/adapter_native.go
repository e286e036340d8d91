//go:build llama

package engine

import (
	"context"
	"errors"
	"strings"

	llama "github.com/go-skynet/go-llama.cpp"
)

// nativeBuilt indicates this binary carries the real llama binding.
var nativeBuilt = true

// nativeAdapter wraps go-llama.cpp.
type nativeAdapter struct {
	ctxSize int
	threads int
}

// NewNativeAdapter returns the in-process llama.cpp adapter.
func NewNativeAdapter(ctxSize, threads int) (Adapter, error) {
	return &nativeAdapter{ctxSize: ctxSize, threads: threads}, nil
}

func (a *nativeAdapter) Load(path string) (Session, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("model path is empty")
	}
	m, err := llama.New(path, llama.SetContext(a.ctxSize))
	if err != nil {
		return nil, err
	}
	return &nativeSession{model: m, threads: a.threads}, nil
}

type nativeSession struct {
	model   *llama.LLama
	threads int
}

// Generate bridges the token callback to a chunk channel and respects
// cancellation by returning false from the callback.
func (s *nativeSession) Generate(ctx context.Context, prompt string, params Params) (<-chan Chunk, error) {
	if s.model == nil {
		return nil, errors.New("llama model not initialized")
	}
	out := make(chan Chunk, 16)
	s.model.SetTokenCallback(func(tok string) bool {
		select {
		case <-ctx.Done():
			return false
		case out <- Chunk{Text: tok}:
			return true
		}
	})
	po := []llama.PredictOption{
		llama.SetThreads(maxInt(1, s.threads)),
		llama.SetTokens(maxInt(1, params.MaxTokens)),
	}
	if params.Temperature > 0 {
		po = append(po, llama.SetTemperature(params.Temperature))
	}
	go func() {
		defer close(out)
		if _, err := s.model.Predict(prompt, po...); err != nil {
			if ctx.Err() != nil {
				return
			}
			select {
			case out <- Chunk{Err: err}:
			default:
			}
		}
	}()
	return out, nil
}

func (s *nativeSession) Close() error {
	if s.model != nil {
		s.model.Free()
		s.model = nil
	}
	return nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
