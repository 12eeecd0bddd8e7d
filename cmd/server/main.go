package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/shoptalk/backend/config"
	httpDelivery "github.com/shoptalk/backend/internal/delivery/http"
	"github.com/shoptalk/backend/internal/domain"
	"github.com/shoptalk/backend/internal/infrastructure/gemini"
	"github.com/shoptalk/backend/internal/infrastructure/knowledge"
	"github.com/shoptalk/backend/internal/infrastructure/scraper"
	"github.com/shoptalk/backend/internal/infrastructure/session"
	"github.com/shoptalk/backend/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting ShopTalk Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Site: %s (cache TTL %s)", cfg.Site.BaseURL, cfg.Cache.TTL)

	// Infrastructure: constructed once, passed by interface to the
	// orchestrator so tests can swap fresh instances.
	siteClient := scraper.NewClient(cfg.Site.BaseURL, &http.Client{
		Timeout: cfg.Site.RequestTimeout,
	}, cfg.Site.RequestsPerSecond)

	catalog := scraper.New(siteClient, scraper.Config{
		SeedPaths:         cfg.Site.SeedPaths,
		DefaultCategories: cfg.Site.Categories,
		CacheTTL:          cfg.Cache.TTL,
		PageTimeout:       cfg.Site.PageTimeout,
	})

	knowledgeStore := buildKnowledgeStore(cfg)
	sessions := session.NewStore()

	var generator domain.Generator
	if cfg.Gemini.APIKey != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		client, err := gemini.New(ctx, gemini.Config{
			APIKey:      cfg.Gemini.APIKey,
			Model:       cfg.Gemini.Model,
			Timeout:     cfg.Gemini.Timeout,
			Temperature: cfg.Gemini.Temperature,
			MaxTokens:   cfg.Gemini.MaxTokens,
		})
		cancel()
		if err != nil {
			log.Printf("WARNING: Gemini unavailable, falling back to deterministic responses: %v", err)
		} else {
			generator = client
			log.Printf("Gemini configured: model=%s timeout=%s", cfg.Gemini.Model, cfg.Gemini.Timeout)
		}
	} else {
		log.Printf("WARNING: no Gemini API key configured - responses will be rule-based only")
	}

	chatService := usecase.NewChatService(catalog, knowledgeStore, sessions, generator, usecase.ChatConfig{
		HistoryWindow:      cfg.Assistant.HistoryWindow,
		MaxDisplayProducts: cfg.Assistant.MaxDisplayProducts,
		SupportEmail:       cfg.Assistant.SupportEmail,
		OffersURL:          cfg.Site.BaseURL + cfg.Assistant.OffersPath,
		NewsletterURL:      cfg.Site.BaseURL + cfg.Assistant.NewsletterPath,
	})

	handler := httpDelivery.NewHandler(chatService, catalog)
	router := httpDelivery.SetupRouter(cfg, handler)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func buildKnowledgeStore(cfg *config.Config) *knowledge.Store {
	if cfg.Assistant.KnowledgeFile != "" {
		store, err := knowledge.NewStoreFromFile(cfg.Assistant.KnowledgeFile)
		if err != nil {
			log.Printf("WARNING: failed to load knowledge file %s, using built-in records: %v",
				cfg.Assistant.KnowledgeFile, err)
		} else {
			return store
		}
	}
	return knowledge.NewStore(knowledge.DefaultRecords())
}

func init() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
