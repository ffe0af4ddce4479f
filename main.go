package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/urfave/negroni"

	"github.com/serisow/ailab/chunker"
	"github.com/serisow/ailab/config"
	"github.com/serisow/ailab/db"
	"github.com/serisow/ailab/handlers"
	"github.com/serisow/ailab/history"
	"github.com/serisow/ailab/lab_type"
	"github.com/serisow/ailab/logging"
	"github.com/serisow/ailab/scheduler"
	"github.com/serisow/ailab/server"
	"github.com/serisow/ailab/services/llm_service"
	"github.com/serisow/ailab/services/rag_service"
	"github.com/serisow/ailab/services/vector_store"
	"github.com/serisow/ailab/tool_registry"
)

func main() {
	cfg := config.Load()

	handler, err := logging.NewDailyFileHandler(cfg.LogDir, &slog.HandlerOptions{Level: slog.LevelInfo})
	if err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	pool, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to the database: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(context.Background(), pool, cfg.EmbeddingDimension); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	embedder, err := rag_service.NewEmbeddingClient(cfg.EmbeddingAPIURL, cfg.OpenAIAPIKey, cfg.EmbeddingModel, logger)
	if err != nil {
		log.Fatalf("Failed to initialize embedding client: %v", err)
	}

	store := vector_store.NewClient(pool, cfg.VectorNamespace, cfg.EmbeddingDimension, cfg.VectorCapacity, logger)
	assembler := rag_service.NewAssembler(chunker.New(chunker.DefaultConfig(), logger))
	processor := rag_service.NewProcessor(pool, assembler, embedder, store, logger)

	sessions, err := history.Open(cfg.HistoryDir, logger)
	if err != nil {
		log.Fatalf("Failed to open chat history store: %v", err)
	}
	defer sessions.Close()

	chatService := llm_service.NewOpenAIService(logger)
	imageService := llm_service.NewOpenAIImageService(logger)
	visionService := llm_service.NewOpenAIVisionService(logger)

	imageCfg := llm_service.Config{
		APIURL: cfg.ImageAPIURL,
		APIKey: cfg.OpenAIAPIKey,
		Model:  cfg.ImageModel,
	}

	anthropicCfg := llm_service.Config{
		APIURL: cfg.AnthropicAPIURL,
		APIKey: cfg.AnthropicAPIKey,
		Model:  cfg.AnthropicModel,
	}

	registry := tool_registry.NewRegistry()
	registry.RegisterLLMService("openai", chatService)
	registry.RegisterLLMService("anthropic", llm_service.NewAnthropicService(logger))
	if err := registerTools(registry, embedder, store, imageService, imageCfg, anthropicCfg); err != nil {
		log.Fatalf("Failed to register tools: %v", err)
	}

	maintenance := scheduler.New(vector_store.NewIndexManager(pool, logger), cfg.MaintenanceInterval, logger)
	go maintenance.Start(context.Background())

	chatCfg := llm_service.Config{
		APIURL:      cfg.ChatAPIURL,
		APIKey:      cfg.OpenAIAPIKey,
		Model:       cfg.ChatModel,
		MaxTokens:   2048,
		Temperature: 0.7,
	}
	visionCfg := llm_service.Config{
		APIURL: cfg.VisionAPIURL,
		APIKey: cfg.OpenAIAPIKey,
		Model:  cfg.VisionModel,
	}

	r := server.SetupRoutes(server.Handlers{
		Documents: handlers.NewDocumentHandler(pool, store, processor, logger),
		Search:    handlers.NewSearchHandler(embedder, store, logger),
		Chat:      handlers.NewChatHandler(chatCfg, chatService, registry, sessions, cfg.MaxToolSteps, logger),
		Image:     handlers.NewImageHandler(imageCfg, imageService, logger),
		Vision:    handlers.NewVisionHandler(visionCfg, visionService, logger),
		History:   handlers.NewHistoryHandler(sessions, logger),
	})
	n := setupNegroni(r)

	if cfg.Environment == "production" {
		server.ServeProduction(server.Config{
			Domains:      cfg.Domains,
			CertCacheDir: cfg.CertCacheDir,
			HTTPPort:     cfg.HTTPPort,
			HTTPSPort:    cfg.HTTPSPort,
		}, n)
	} else {
		srv := &http.Server{
			Addr:        ":" + cfg.HTTPPort,
			Handler:     n,
			IdleTimeout: time.Minute,
			ReadTimeout: 5 * time.Second,
			// Streaming chat responses can outlive a short write timeout.
			WriteTimeout: 5 * time.Minute,
		}
		server.ServeDevelopment(srv)
	}
}

func setupNegroni(r *mux.Router) *negroni.Negroni {
	n := negroni.New()

	n.Use(negroni.NewRecovery())
	n.Use(negroni.NewLogger())

	n.UseHandler(r)
	return n
}

// registerTools wires the built-in tools the chat assistant can call.
func registerTools(registry *tool_registry.Registry, embedder *rag_service.EmbeddingClient,
	store *vector_store.Client, imageService *llm_service.OpenAIImageService,
	imageCfg, anthropicCfg llm_service.Config) error {

	searchTool := tool_registry.ToolDescriptor{
		Name:        "search_documents",
		Description: "Search the user's uploaded documents and return the most relevant passages.",
		Parameters: map[string]tool_registry.ParamSpec{
			"query": {Type: "string", Description: "The search query", Required: true},
			"top_k": {Type: "integer", Description: "How many passages to return (default 5)"},
		},
		Handler: func(ctx context.Context, args json.RawMessage) (string, error) {
			var parsed struct {
				Query string `json:"query"`
				TopK  int    `json:"top_k"`
			}
			if err := json.Unmarshal(args, &parsed); err != nil {
				return "", fmt.Errorf("failed to parse search arguments: %w", err)
			}
			if parsed.TopK <= 0 {
				parsed.TopK = 5
			}

			vector, err := embedder.Embed(ctx, parsed.Query)
			if err != nil {
				return "", fmt.Errorf("failed to embed query: %w", err)
			}
			results, err := store.Query(ctx, vector, vector_store.QueryOptions{
				TopK:            parsed.TopK,
				Threshold:       0.3,
				IncludeMetadata: true,
			})
			if err != nil {
				return "", fmt.Errorf("failed to search documents: %w", err)
			}

			payload, err := json.Marshal(map[string]interface{}{
				"results": results,
				"count":   len(results),
			})
			if err != nil {
				return "", err
			}
			return string(payload), nil
		},
	}

	imageTool := tool_registry.ToolDescriptor{
		Name:        "generate_image",
		Description: "Generate an image from a text prompt and return its URL.",
		Parameters: map[string]tool_registry.ParamSpec{
			"prompt": {Type: "string", Description: "What the image should depict", Required: true},
			"size":   {Type: "string", Description: "Image dimensions", Enum: []string{"1024x1024", "1792x1024", "1024x1792"}},
			"style":  {Type: "string", Description: "Rendering style", Enum: []string{"vivid", "natural"}},
		},
		Handler: func(ctx context.Context, args json.RawMessage) (string, error) {
			var parsed lab_type.ImageRequest
			if err := json.Unmarshal(args, &parsed); err != nil {
				return "", fmt.Errorf("failed to parse image arguments: %w", err)
			}

			result, err := imageService.GenerateImage(ctx, imageCfg, parsed)
			if err != nil {
				return "", fmt.Errorf("failed to generate image: %w", err)
			}

			payload, err := json.Marshal(result)
			if err != nil {
				return "", err
			}
			return string(payload), nil
		},
	}

	tools := []tool_registry.ToolDescriptor{searchTool, imageTool}

	// A second provider gives the assistant a cross-check; only offered
	// when credentials are configured.
	if anthropicCfg.APIKey != "" {
		if provider, ok := registry.GetLLMService("anthropic"); ok {
			tools = append(tools, tool_registry.ToolDescriptor{
				Name:        "second_opinion",
				Description: "Ask a different model family for a second opinion on a question.",
				Parameters: map[string]tool_registry.ParamSpec{
					"question": {Type: "string", Description: "The question to cross-check", Required: true},
				},
				Handler: func(ctx context.Context, args json.RawMessage) (string, error) {
					var parsed struct {
						Question string `json:"question"`
					}
					if err := json.Unmarshal(args, &parsed); err != nil {
						return "", fmt.Errorf("failed to parse second opinion arguments: %w", err)
					}
					return provider.CallLLM(ctx, anthropicCfg, []lab_type.ChatMessage{
						{Role: "user", Content: parsed.Question},
					})
				},
			})
		}
	}

	for _, tool := range tools {
		if err := registry.RegisterTool(tool); err != nil {
			return err
		}
	}
	return nil
}
