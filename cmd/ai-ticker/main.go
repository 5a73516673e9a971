package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	aiticker "github.com/ai-ticker/ai-ticker"
	"github.com/ai-ticker/ai-ticker/internal/logging"
	"github.com/ai-ticker/ai-ticker/internal/metrics"
	"github.com/ai-ticker/ai-ticker/internal/ratelimit"
	"github.com/ai-ticker/ai-ticker/internal/version"
	"github.com/ai-ticker/ai-ticker/web"
)

func main() {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()
	logging.Setup(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))

	var cfg *aiticker.Config
	if path := os.Getenv("TICKER_CONFIG"); path != "" {
		loaded, err := aiticker.LoadConfig(path)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
		log.Printf("Config loaded: %d provider(s)", len(cfg.Providers))
	} else {
		cfg = aiticker.DefaultConfig()
		log.Printf("No TICKER_CONFIG set; using environment defaults with %d provider(s)", len(cfg.Providers))
	}
	if err := aiticker.ValidateConfig(*cfg); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	client, err := aiticker.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			log.Printf("Close error: %v", err)
		}
	}()

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      newRouter(client, cfg),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		log.Println("Shutting down gracefully…")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("AI-Ticker %s listening on %s (%d provider(s))",
		version.Short(), cfg.Server.Addr, len(client.AvailableProviders()))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		stop()
		log.Fatalf("Server error: %v", err) //nolint:gocritic
	}
	log.Println("Server stopped.")
}

type messageRequest struct {
	SystemPrompt     string   `json:"system_prompt,omitempty"`
	UserPrompt       string   `json:"user_prompt,omitempty"`
	ExistingMessages []string `json:"existing_messages,omitempty"`
	FuzzyThreshold   int      `json:"fuzzy_threshold,omitempty"`
}

// newRouter builds the HTTP router.
func newRouter(client *aiticker.Client, cfg *aiticker.Config) http.Handler {
	limiterStore := ratelimit.NewStore(
		float64(cfg.Server.RatePerMinute)/60.0,
		float64(cfg.Server.RatePerMinute),
	)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		page, err := web.Assets.ReadFile("index.html")
		if err != nil {
			http.Error(w, "dashboard unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("OK"))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.With(ratelimit.Middleware(limiterStore, metrics.RateLimitRejections.Inc)).
			Post("/message", func(w http.ResponseWriter, req *http.Request) {
				var body messageRequest
				if req.Body != nil && req.ContentLength != 0 {
					if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
						writeError(w, http.StatusBadRequest, "invalid request body")
						return
					}
				}
				msg, err := client.GetMessage(req.Context(),
					body.SystemPrompt, body.UserPrompt, body.ExistingMessages, body.FuzzyThreshold)
				if err != nil {
					if errors.Is(err, aiticker.ErrNoMessage) {
						writeError(w, http.StatusServiceUnavailable, "no message available")
						return
					}
					writeError(w, http.StatusInternalServerError, err.Error())
					return
				}
				writeJSON(w, msg)
			})

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, client.HealthCheckAll(req.Context()))
		})

		r.Get("/providers", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, map[string]any{
				"order": client.AvailableProviders(),
				"info":  client.ProviderInfo(),
			})
		})

		r.Get("/plugins", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, client.PluginList())
		})

		r.Get("/history", func(w http.ResponseWriter, req *http.Request) {
			limit := 20
			if v := req.URL.Query().Get("limit"); v != "" {
				if n, err := strconv.Atoi(v); err == nil && n > 0 {
					limit = n
				}
			}
			entries, err := client.History().Recent(req.Context(), limit)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, entries)
		})

		r.Post("/reload", func(w http.ResponseWriter, _ *http.Request) {
			if err := client.ReloadProviders(); err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, map[string]any{"providers": client.AvailableProviders()})
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
