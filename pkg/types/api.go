package types

// PullRequest asks the server to download a model artifact.
type PullRequest struct {
	// Model identifier in "org/name" form.
	// example: mlx-community/Qwen2.5-0.5B-Instruct-4bit
	Model string `json:"model" example:"mlx-community/Qwen2.5-0.5B-Instruct-4bit"`
}

// PullProgress is one NDJSON line of a streaming pull response.
// Progress lines carry a fraction; the final line carries either the local
// path on success or an error message.
type PullProgress struct {
	Model string `json:"model"`
	// Overall fraction in [0,1], monotonically non-decreasing.
	// example: 0.42
	Progress float64 `json:"progress"`
	// File currently being transferred.
	File string `json:"file,omitempty"`
	// Local directory of the completed artifact (final line only).
	Path string `json:"path,omitempty"`
	// Classified error message (final line only).
	Error string `json:"error,omitempty"`
	Done  bool   `json:"done,omitempty"`
}

// GenerateRequest represents a generation request payload.
type GenerateRequest struct {
	// Optional model identifier. If empty, the server default is used.
	Model string `json:"model,omitempty"`
	// Required prompt text.
	// example: Write a haiku about the ocean.
	Prompt string `json:"prompt" example:"Write a haiku about the ocean."`
	// Maximum number of new tokens to generate.
	MaxTokens int `json:"max_tokens,omitempty" example:"128"`
	// Sampling temperature (higher = more random).
	Temperature float64 `json:"temperature,omitempty" example:"0.7"`
}

// GenerateChunk is one NDJSON line of a streaming generation response.
// A non-empty Error marks a truncated stream; Done alone means completion.
type GenerateChunk struct {
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
	Done  bool   `json:"done,omitempty"`
}

// ModelsResponse wraps the list of local models returned by GET /models.
type ModelsResponse struct {
	Models []ModelDescriptor `json:"models"`
}

// SearchResponse wraps ranked remote candidates returned by GET /search.
type SearchResponse struct {
	Models []ModelDescriptor `json:"models"`
}

// CleanupResponse reports incomplete artifact directories removed by
// POST /cleanup.
type CleanupResponse struct {
	Removed []string `json:"removed"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Overall engine state (unloaded, loading, ready, degraded, failed).
	// example: ready
	State string `json:"state" example:"ready"`
	// Model currently loaded by the engine, if any.
	CurrentModel string `json:"current_model,omitempty"`
	// Native runtime availability (available, unavailable, unknown).
	Runtime string `json:"runtime" example:"available"`
	// Number of complete local artifacts.
	LocalModels int `json:"local_models"`
	// Ids with a download currently in flight.
	ActivePulls []string `json:"active_pulls,omitempty"`
	// Last error observed by the engine (if any).
	LastError string `json:"last_error,omitempty"`
	// Uptime of the server in seconds.
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
