// Package main is the entry point for the AI Studio server.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aistudio/internal/api"
	"aistudio/internal/config"
	"aistudio/internal/provider"
	"aistudio/internal/provider/anthropic"
	"aistudio/internal/provider/bedrock"
	"aistudio/internal/provider/google"
	"aistudio/internal/provider/lorem"
	"aistudio/internal/provider/openai"
	"aistudio/internal/store"
)

// defaultModels seeds the catalog for each configured provider on startup.
// Upserts are idempotent, so restarts never duplicate entries.
var defaultModels = map[string][]struct{ name, modelID string }{
	provider.NameOpenAI: {
		{"GPT-4o", "gpt-4o"},
		{"GPT-4o mini", "gpt-4o-mini"},
	},
	provider.NameAzure: {
		{"Azure GPT-4o", "gpt-4o"},
	},
	provider.NameGoogle: {
		{"Gemini 1.5 Pro", "gemini-1.5-pro"},
		{"Gemini 1.5 Flash", "gemini-1.5-flash"},
	},
	provider.NameBedrock: {
		{"Claude 3.5 Sonnet (Bedrock)", "anthropic.claude-3-5-sonnet-20241022-v2:0"},
	},
	provider.NameAnthropic: {
		{"Claude 3.5 Sonnet", "claude-3-5-sonnet-latest"},
		{"Claude 3.5 Haiku", "claude-3-5-haiku-latest"},
	},
	provider.NameLorem: {
		{"Lorem Ipsum", "lorem-fast"},
		{"Lorem Ipsum (failing)", "lorem-error"},
	},
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if !cfg.HasAnyProvider() {
		log.Fatal("No providers configured; set a provider API key or ENABLE_LOREM=true")
	}

	st, err := store.NewStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer st.Close()

	registry := buildRegistry(cfg)
	seedModels(st, registry)

	// Create server
	srv := api.NewServer(cfg, st, registry)
	router := api.NewRouter(srv)

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // Disable for streaming
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on %s (providers: %v)", cfg.ServerAddr, registry.Names())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// buildRegistry registers one provider per configured backend. A provider
// that fails to initialize is skipped with a warning rather than taking the
// whole server down.
func buildRegistry(cfg *config.Config) *provider.Registry {
	ctx := context.Background()
	registry := provider.NewRegistry()

	if cfg.OpenAIKey != "" {
		register(registry, provider.NameOpenAI, func() (provider.Provider, error) {
			return openai.New(cfg.OpenAIKey)
		})
	}
	if cfg.Azure.APIKey != "" {
		register(registry, provider.NameAzure, func() (provider.Provider, error) {
			return openai.NewAzure(cfg.Azure.APIKey, cfg.Azure.BaseURL, cfg.Azure.APIVersion)
		})
	}
	if cfg.GoogleKey != "" {
		register(registry, provider.NameGoogle, func() (provider.Provider, error) {
			return google.New(ctx, cfg.GoogleKey)
		})
	}
	if cfg.AWSRegion != "" {
		register(registry, provider.NameBedrock, func() (provider.Provider, error) {
			return bedrock.New(ctx, cfg.AWSRegion)
		})
	}
	if cfg.AnthropicKey != "" {
		register(registry, provider.NameAnthropic, func() (provider.Provider, error) {
			return anthropic.New(cfg.AnthropicKey)
		})
	}
	if cfg.EnableLorem {
		registry.Register(lorem.New())
	}
	return registry
}

func register(registry *provider.Registry, name string, build func() (provider.Provider, error)) {
	p, err := build()
	if err != nil {
		log.Printf("Skipping provider %s: %v", name, err)
		return
	}
	registry.Register(p)
}

// seedModels upserts the default catalog entries for every registered
// provider.
func seedModels(st *store.Store, registry *provider.Registry) {
	for _, name := range registry.Names() {
		for _, m := range defaultModels[name] {
			if _, err := st.UpsertModel(m.name, name, m.modelID); err != nil {
				log.Printf("Failed to seed model %s/%s: %v", name, m.modelID, err)
			}
		}
	}
}
