package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"modelhub/internal/config"
	"modelhub/internal/download"
	"modelhub/internal/engine"
	"modelhub/internal/httpapi"
	"modelhub/internal/hub"
	"modelhub/internal/search"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func main() {
	// Flags with environment variable defaults
	addr := flag.String("addr", envOr("MODELHUB_ADDR", ":8090"), "HTTP listen address, e.g. :8090")
	cacheDir := flag.String("cache-dir", envOr("MODELHUB_CACHE_DIR", "~/.cache/modelhub/models"), "Directory holding downloaded model artifacts")
	registryURL := flag.String("registry-url", envOr("MODELHUB_REGISTRY_URL", "https://huggingface.co"), "Base URL of the model registry")
	registryToken := flag.String("registry-token", os.Getenv("MODELHUB_TOKEN"), "Bearer token for gated registry access")
	defaultModel := flag.String("default-model", envOr("MODELHUB_DEFAULT_MODEL", ""), "Default model id when a generate request omits model")
	configPath := flag.String("config", os.Getenv("MODELHUB_CONFIG"), "Optional config file (.yaml/.json/.toml); flags override")
	corsOrigins := flag.String("cors-origins", os.Getenv("MODELHUB_CORS_ORIGINS"), "Comma-separated allowed CORS origins (empty disables CORS)")
	logLevel := flag.String("log-level", envOr("MODELHUB_LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	cfg := config.Config{
		Addr:          *addr,
		CacheDir:      *cacheDir,
		RegistryURL:   *registryURL,
		RegistryToken: *registryToken,
		DefaultModel:  *defaultModel,
	}
	if *configPath != "" {
		fileCfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *configPath).Msg("failed to load config")
		}
		// File values fill in anything not set explicitly on the command line.
		explicit := map[string]bool{}
		flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
		cfg = mergeConfig(cfg, fileCfg, explicit)
	}

	timeout := 30 * time.Second
	if cfg.HTTPTimeoutSec > 0 {
		timeout = time.Duration(cfg.HTTPTimeoutSec) * time.Second
	}
	client := hub.New(hub.Options{
		BaseURL: cfg.RegistryURL,
		Token:   cfg.RegistryToken,
		Timeout: timeout,
		Logger:  log.With().Str("component", "hub").Logger(),
	})

	searcher := search.NewEngine(client, log.With().Str("component", "search").Logger())
	if cfg.SearchLimit > 0 {
		searcher.SetStrategyLimit(cfg.SearchLimit)
	}
	coordinator := download.New(client, log.With().Str("component", "download").Logger())
	eng := engine.New(log.With().Str("component", "engine").Logger())

	httpapi.SetLogger(log.With().Str("component", "http").Logger())
	if origins := splitCSV(*corsOrigins); len(origins) > 0 {
		httpapi.SetCORSOptions(true, origins,
			[]string{"GET", "POST", "DELETE", "OPTIONS"},
			[]string{"Accept", "Content-Type", "Authorization"})
	}

	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	httpapi.SetBaseContext(baseCtx)

	srv := &httpapi.Server{
		Search:       searcher,
		Pull:         coordinator,
		Gen:          eng,
		CacheRoot:    cfg.CacheDir,
		DefaultModel: cfg.DefaultModel,
	}
	httpSrv := &http.Server{Addr: cfg.Addr, Handler: httpapi.NewMux(srv)}

	go func() {
		log.Info().Str("addr", cfg.Addr).Str("cache_dir", cfg.CacheDir).Str("registry", cfg.RegistryURL).Msg("modelhubd listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	cancelBase()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown error")
	}
}

// mergeConfig applies file values for settings the command line left at
// their defaults. The explicit set names flags the user actually passed.
func mergeConfig(flags, file config.Config, explicit map[string]bool) config.Config {
	out := flags
	if file.Addr != "" && !explicit["addr"] {
		out.Addr = file.Addr
	}
	if file.CacheDir != "" && !explicit["cache-dir"] {
		out.CacheDir = file.CacheDir
	}
	if file.RegistryURL != "" && !explicit["registry-url"] {
		out.RegistryURL = file.RegistryURL
	}
	if file.RegistryToken != "" && !explicit["registry-token"] {
		out.RegistryToken = file.RegistryToken
	}
	if file.DefaultModel != "" && !explicit["default-model"] {
		out.DefaultModel = file.DefaultModel
	}
	if file.HTTPTimeoutSec > 0 {
		out.HTTPTimeoutSec = file.HTTPTimeoutSec
	}
	if file.SearchLimit > 0 {
		out.SearchLimit = file.SearchLimit
	}
	return out
}
