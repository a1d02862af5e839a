package service

import (
	"context"
	"testing"
	"time"

	"chatrelay/internal/adapter/llm"
	"chatrelay/internal/config"
	"chatrelay/internal/policy"
	"chatrelay/tests/helpers"
)

func testConfig() *config.Config {
	return &config.Config{
		DefaultModel:  "gpt-3.5-turbo",
		ContextWindow: 10,
		HistoryLimit:  10,
		ModelsPerPage: 5,
		ModelCacheTTL: 5 * time.Minute,
		LLMTimeout:    time.Second,
	}
}

func newTestService(t *testing.T) (*Service, *llm.MockClient) {
	t.Helper()

	db := helpers.NewTestSQLiteStore(t)

	access, err := policy.NewEngine(context.Background(), policy.DefaultPolicy, nil)
	if err != nil {
		t.Fatalf("failed to create policy engine: %v", err)
	}

	mock := llm.NewMockClient()
	return New(db, mock, access, testConfig()), mock
}
