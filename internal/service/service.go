// Package service implements the session lifecycle, context replay and
// model selection logic behind the chat command handlers.
package service

import (
	"sync"
	"time"

	"chatrelay/internal/adapter/llm"
	"chatrelay/internal/config"
	"chatrelay/internal/policy"
	store "chatrelay/internal/repository"
)

type Service struct {
	store     store.Store
	llmClient llm.LLMClient
	access    *policy.Engine
	config    *config.Config

	// Model catalog cache, guarded by catalogMu.
	catalogMu sync.Mutex
	catalog   []string
	fetchedAt time.Time
}

func New(store store.Store, llmClient llm.LLMClient, access *policy.Engine, cfg *config.Config) *Service {
	return &Service{
		store:     store,
		llmClient: llmClient,
		access:    access,
		config:    cfg,
	}
}
