package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"chatrelay/internal/adapter/llm"
	"chatrelay/internal/domain"
)

func TestGenerateImageArchivesPromptAndResult(t *testing.T) {
	ctx := context.Background()
	svc, mock := newTestService(t)

	mock.ImageFn = func(ctx context.Context, req *llm.ImageRequest) (*llm.ImageResponse, error) {
		if req.Prompt != "a cat in space" {
			t.Fatalf("prompt = %q", req.Prompt)
		}
		return &llm.ImageResponse{Data: []llm.ImageData{{URL: "https://img.example/1.png"}}}, nil
	}

	result, err := svc.GenerateImage(ctx, "u1", "alice", "a cat in space")
	if err != nil {
		t.Fatalf("GenerateImage failed: %v", err)
	}
	if result.URL != "https://img.example/1.png" {
		t.Fatalf("url = %q", result.URL)
	}

	messages, err := svc.SessionMessages(ctx, "u1", result.SessionID, 0)
	if err != nil {
		t.Fatalf("SessionMessages failed: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 archived messages, got %d", len(messages))
	}
	if messages[0].Kind != domain.KindImagePrompt || messages[0].Role != domain.RoleUser {
		t.Fatalf("unexpected prompt turn: %+v", messages[0])
	}
	if messages[1].Kind != domain.KindImageResult || messages[1].Role != domain.RoleAssistant {
		t.Fatalf("unexpected result turn: %+v", messages[1])
	}
	if messages[1].Content != "https://img.example/1.png\nprompt: a cat in space" {
		t.Fatalf("unexpected result content: %q", messages[1].Content)
	}
}

func TestGenerateImageUpstreamFailureKeepsPromptOnly(t *testing.T) {
	ctx := context.Background()
	svc, mock := newTestService(t)

	session, err := svc.NewSession(ctx, "u1", "alice")
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}

	mock.ImageFn = func(ctx context.Context, req *llm.ImageRequest) (*llm.ImageResponse, error) {
		return nil, fmt.Errorf("image API is down")
	}

	_, err = svc.GenerateImage(ctx, "u1", "alice", "a dog")
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}

	messages, err := svc.SessionMessages(ctx, "u1", session.SessionID, 0)
	if err != nil {
		t.Fatalf("SessionMessages failed: %v", err)
	}
	if len(messages) != 1 || messages[0].Kind != domain.KindImagePrompt {
		t.Fatalf("expected only the prompt turn, got %+v", messages)
	}
}

func TestGenerateImageEmptyArtifact(t *testing.T) {
	ctx := context.Background()
	svc, mock := newTestService(t)

	mock.ImageFn = func(ctx context.Context, req *llm.ImageRequest) (*llm.ImageResponse, error) {
		return &llm.ImageResponse{}, nil
	}

	_, err := svc.GenerateImage(ctx, "u1", "alice", "a dog")
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
}
