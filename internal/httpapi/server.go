package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"modelhub/internal/catalog"
	"modelhub/internal/download"
	"modelhub/internal/engine"
	"modelhub/pkg/types"
)

// Searcher is the search engine surface used by the HTTP layer.
type Searcher interface {
	Search(ctx context.Context, criteria types.SearchCriteria) ([]types.ModelDescriptor, error)
}

// Puller is the download coordinator surface used by the HTTP layer.
type Puller interface {
	Download(ctx context.Context, id, destRoot string, onProgress download.ProgressFunc) (string, error)
	CleanupIncomplete(root string) ([]string, error)
	Active() []string
}

// Generator is the inference facade surface used by the HTTP layer.
type Generator interface {
	Load(ctx context.Context, modelID, path string) error
	Generate(ctx context.Context, prompt string, params engine.Params) (<-chan engine.Chunk, error)
	Status() engine.Snapshot
}

// Server bundles the subsystems behind the HTTP API.
type Server struct {
	Search       Searcher
	Pull         Puller
	Gen          Generator
	CacheRoot    string
	DefaultModel string

	start time.Time
}

// NewMux builds the chi router over the server's subsystems.
func NewMux(s *Server) http.Handler {
	s.start = time.Now()
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}
	r.Use(MetricsMiddleware)
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/models", s.handleModels)
	r.Delete("/models/{org}/{name}", s.handleDeleteModel)
	r.Get("/search", s.handleSearch)
	r.Post("/pull", s.handlePull)
	r.Post("/cleanup", s.handleCleanup)
	r.Post("/generate", s.handleGenerate)
	r.Get("/status", s.handleStatus)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := catalog.ListDownloaded(s.CacheRoot); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("cache unavailable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	})

	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	MountSwagger(r)

	return r
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	models, err := catalog.ListDownloaded(s.CacheRoot)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if models == nil {
		models = []types.ModelDescriptor{}
	}
	writeJSON(w, types.ModelsResponse{Models: models})
}

func (s *Server) handleDeleteModel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "org") + "/" + chi.URLParam(r, "name")
	for _, active := range s.Pull.Active() {
		if active == id {
			writeJSONError(w, http.StatusConflict, "download in progress: "+id)
			return
		}
	}
	dir := catalog.Dir(s.CacheRoot, id)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		writeJSONError(w, http.StatusNotFound, "model not downloaded: "+id)
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]string{"removed": id})
}

// criteriaFromQuery parses /search query parameters. Unknown values pass
// through as-is; the filter decides what matches.
func criteriaFromQuery(q map[string][]string) types.SearchCriteria {
	get := func(k string) string {
		if v, ok := q[k]; ok && len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}
	csv := func(k string) []string {
		raw := get(k)
		if raw == "" {
			return nil
		}
		parts := strings.Split(raw, ",")
		out := parts[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	atoi := func(k string) int {
		n, _ := strconv.Atoi(get(k))
		return n
	}
	c := types.SearchCriteria{
		Type:         types.ModelType(get("type")),
		Size:         types.SizeClass(get("size")),
		Quant:        types.Quantization(get("quant")),
		Architecture: get("arch"),
		ExcludeArchs: csv("exclude"),
		Tags:         csv("tags"),
		MinDownloads: atoi("min_downloads"),
		MinLikes:     atoi("min_likes"),
	}
	if mb, err := strconv.ParseInt(get("max_mb"), 10, 64); err == nil {
		c.MaxFileSizeMB = mb
	}
	return c
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	criteria := criteriaFromQuery(r.URL.Query())
	joined, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	start := time.Now()
	models, err := s.Search.Search(joined, criteria)
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		writeJSONError(w, statusForError(err), err.Error())
		return
	}
	if requestLogLevel(r) >= LevelInfo {
		zlog.Info().Int("results", len(models)).Dur("dur", time.Since(start)).Msg("search")
	}
	if models == nil {
		models = []types.ModelDescriptor{}
	}
	writeJSON(w, types.SearchResponse{Models: models})
}

func (s *Server) handlePull(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSONBody[types.PullRequest](w, r)
	if !ok {
		return
	}
	if strings.TrimSpace(req.Model) == "" {
		writeJSONError(w, http.StatusBadRequest, "model is required")
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	writeLine := func(p types.PullProgress) {
		_ = enc.Encode(p)
		if flusher != nil {
			flusher.Flush()
		}
	}

	joined, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()

	lvl := requestLogLevel(r)
	if lvl >= LevelInfo {
		z := zlog.Info().Str("model", req.Model)
		if rid := middleware.GetReqID(r.Context()); rid != "" {
			z = z.Str("request_id", rid)
		}
		z.Msg("pull start")
	}

	// Progress lines are throttled to whole-percent steps so a large pull
	// does not flood the stream.
	lastStep := -1
	start := time.Now()
	path, err := s.Pull.Download(joined, req.Model, s.CacheRoot, func(frac float64, file string) {
		step := int(frac * 100)
		if step == lastStep {
			return
		}
		lastStep = step
		writeLine(types.PullProgress{Model: req.Model, Progress: frac, File: file})
	})
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		writeLine(types.PullProgress{Model: req.Model, Error: err.Error(), Done: true})
		if lvl >= LevelError {
			zlog.Error().Str("model", req.Model).Dur("dur", time.Since(start)).Err(err).Msg("pull failed")
		}
		return
	}
	writeLine(types.PullProgress{Model: req.Model, Progress: 1, Path: path, Done: true})
	if lvl >= LevelInfo {
		zlog.Info().Str("model", req.Model).Dur("dur", time.Since(start)).Msg("pull complete")
	}
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	removed, err := s.Pull.CleanupIncomplete(s.CacheRoot)
	if err != nil {
		writeJSONError(w, statusForError(err), err.Error())
		return
	}
	if removed == nil {
		removed = []string{}
	}
	writeJSON(w, types.CleanupResponse{Removed: removed})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSONBody[types.GenerateRequest](w, r)
	if !ok {
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeJSONError(w, http.StatusBadRequest, "prompt is required")
		return
	}
	modelID := req.Model
	if modelID == "" {
		modelID = s.DefaultModel
	}
	if modelID == "" {
		writeJSONError(w, http.StatusBadRequest, "no model specified and no default configured")
		return
	}
	dir := catalog.Dir(s.CacheRoot, modelID)
	if !catalog.IsComplete(dir) {
		writeJSONError(w, http.StatusNotFound, "model not downloaded: "+modelID)
		return
	}

	joined, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()

	if err := s.Gen.Load(joined, modelID, dir); err != nil {
		writeJSONError(w, statusForError(err), err.Error())
		return
	}
	params := engine.Params{MaxTokens: req.MaxTokens, Temperature: float32(req.Temperature)}
	chunks, err := s.Gen.Generate(joined, req.Prompt, params)
	if err != nil {
		writeJSONError(w, statusForError(err), err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	for c := range chunks {
		if c.Err != nil {
			_ = enc.Encode(types.GenerateChunk{Error: c.Err.Error(), Done: true})
			return
		}
		_ = enc.Encode(types.GenerateChunk{Text: c.Text})
		if flusher != nil {
			flusher.Flush()
		}
	}
	_ = enc.Encode(types.GenerateChunk{Done: true})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.Gen.Status()
	models, _ := catalog.ListDownloaded(s.CacheRoot)
	writeJSON(w, types.StatusResponse{
		State:          string(snap.State),
		CurrentModel:   snap.CurrentModel,
		Runtime:        string(snap.Capability),
		LocalModels:    len(models),
		ActivePulls:    s.Pull.Active(),
		LastError:      snap.LastError,
		UptimeSeconds:  int64(time.Since(s.start).Seconds()),
		ServerTimeUnix: time.Now().Unix(),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}

// decodeJSONBody enforces content type and body size before decoding.
func decodeJSONBody[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return v, false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return v, false
	}
	return v, true
}
