package main

import (
	"context"
	"log"
	"net/http"

	httpadapter "github.com/calio/food-agent/internal/adapters/http"
	"github.com/calio/food-agent/internal/adapters/llm"
	"github.com/calio/food-agent/internal/adapters/places"
	firestorestore "github.com/calio/food-agent/internal/adapters/storage/firestore"
	memstore "github.com/calio/food-agent/internal/adapters/storage/memory"
	redisstore "github.com/calio/food-agent/internal/adapters/storage/redis"
	"github.com/calio/food-agent/internal/app/conversation"
	"github.com/calio/food-agent/internal/app/orders"
	"github.com/calio/food-agent/internal/app/tools"
	"github.com/calio/food-agent/internal/config"
	"github.com/calio/food-agent/internal/domain"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	// LLM: mock or Gemini on Vertex
	var (
		llmClient domain.LLMClient
		err       error
	)
	if cfg.UseMockLLM {
		log.Println("[LLM] Using MOCK LLM client")
		llmClient = llm.NewMockLLM()
	} else {
		log.Println("[LLM] Using Gemini LLM client")
		llmClient, err = llm.NewGeminiClient(ctx, cfg.GCPProjectID, cfg.GCPLocation, cfg.ModelName)
		if err != nil {
			log.Fatalf("error initializing Gemini LLM client: %v", err)
		}
	}

	// Restaurant directory: mock or Google Places
	var directory domain.RestaurantDirectory
	if cfg.UseMockPlaces {
		log.Println("[PLACES] Using MOCK restaurant directory")
		directory = places.NewMockDirectory()
	} else {
		log.Println("[PLACES] Using Google Places directory")
		directory, err = places.NewGoogleDirectory(cfg.PlacesAPIKey)
		if err != nil {
			log.Fatalf("error initializing Places directory: %v", err)
		}
	}

	// Storage: memory, redis or firestore
	var (
		sessionStore domain.SessionStore
		messageStore domain.MessageStore
		memoryStore  domain.MemoryStore
		orderStore   domain.OrderStore
	)

	switch cfg.StorageBackend {
	case "firestore":
		log.Printf("[STORE] Using Firestore storage (project=%s)", cfg.GCPProjectID)
		fsStore, err := firestorestore.NewStore(ctx, cfg.GCPProjectID)
		if err != nil {
			log.Fatalf("error initializing Firestore store: %v", err)
		}

		// 1 store, implements 4 interfaces
		sessionStore = fsStore
		messageStore = fsStore
		memoryStore = fsStore
		orderStore = fsStore

	case "redis":
		log.Printf("[STORE] Using Redis storage (addr=%s)", cfg.RedisAddr)
		rStore, err := redisstore.NewStore(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Fatalf("error initializing Redis store: %v", err)
		}
		defer rStore.Close()

		// Redis holds the durable per-user data; sessions and
		// transcripts stay in process.
		memoryStore = rStore
		orderStore = rStore
		sessionStore = memstore.NewSessionStore()
		messageStore = memstore.NewMessageStore()

	default:
		log.Println("[STORE] Using in-memory storage")
		sessionStore = memstore.NewSessionStore()
		messageStore = memstore.NewMessageStore()
		memoryStore = memstore.NewMemoryStore()
		orderStore = memstore.NewOrderStore()
	}

	orderTool := tools.NewOrderTool(orderStore)

	svc := conversation.NewService(
		llmClient,
		sessionStore,
		messageStore,
		memoryStore,
		directory,
		orderTool,
		cfg.MaxSessions,
		cfg.SessionTimeout,
	)
	go svc.StartCleanupRoutine(ctx)

	ordersSvc := orders.NewService(orderStore)

	handler := httpadapter.NewServer(svc, ordersSvc, memoryStore, directory)

	addr := ":" + cfg.Port
	log.Println("food-agent API listening on port:", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatal(err)
	}
}
