package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"chatrelay/internal/adapter/llm"
	"chatrelay/internal/config"
	"chatrelay/internal/policy"
	store "chatrelay/internal/repository"
	"chatrelay/internal/service"
	v1 "chatrelay/internal/transport/http/v1"
	"chatrelay/internal/transport/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if os.Getenv(llm.EnvRelayMode) != llm.ModeMock {
		if err := cfg.Validate(); err != nil {
			log.Fatalf("Configuration error: %v", err)
		}
	}

	log.Printf("Starting chatrelay...")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("Database: %s", cfg.DatabaseURL)
	log.Printf("Default model: %s", cfg.DefaultModel)

	db, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer db.Close()

	llmClient := llm.NewLLMClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMTimeout)

	ctx := context.Background()
	access, err := policy.NewEngine(ctx, policy.DefaultPolicy, cfg.AllowedUsers)
	if err != nil {
		log.Fatalf("Failed to initialize access policy: %v", err)
	}

	svc := service.New(db, llmClient, access, cfg)

	h := v1.NewHandler(svc)
	gateway := ws.NewServer(svc)

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	h.RegisterRoutes(e)
	gateway.RegisterRoutes(e)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("chatrelay started on port %d", cfg.HTTPPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down chatrelay...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown server gracefully: %v", err)
	}

	log.Println("chatrelay stopped")
}
