package llm

import (
	"log"
	"os"
	"time"
)

const (
	// EnvRelayMode is the environment variable name for mode selection.
	EnvRelayMode = "CHATRELAY_MODE"
	// ModeMock indicates mock mode should be used.
	ModeMock = "MOCK"
)

// NewLLMClient creates an LLM client based on the CHATRELAY_MODE environment
// variable. If CHATRELAY_MODE=MOCK, returns a MockClient; otherwise returns
// a real Client.
func NewLLMClient(baseURL, apiKey string, timeout time.Duration) LLMClient {
	if os.Getenv(EnvRelayMode) == ModeMock {
		log.Println("CHATRELAY_MODE=MOCK detected, using mock LLM client")
		return NewMockClient()
	}
	return NewClient(baseURL, apiKey, timeout)
}
