package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatrelay/internal/adapter/llm"
	"chatrelay/internal/config"
	"chatrelay/internal/policy"
	store "chatrelay/internal/repository"
	"chatrelay/internal/service"
)

func newTestGateway(t *testing.T) (*Server, *llm.MockClient) {
	t.Helper()

	db, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	access, err := policy.NewEngine(context.Background(), policy.DefaultPolicy, nil)
	require.NoError(t, err)

	mock := llm.NewMockClient()
	cfg := &config.Config{
		DefaultModel:  "gpt-3.5-turbo",
		ContextWindow: 10,
		HistoryLimit:  10,
		ModelsPerPage: 5,
		ModelCacheTTL: 5 * time.Minute,
		LLMTimeout:    time.Second,
	}
	return NewServer(service.New(db, mock, access, cfg)), mock
}

func TestSplitCommand(t *testing.T) {
	cases := []struct {
		text string
		cmd  string
		arg  string
	}{
		{"/new", "/new", ""},
		{"/rename My Topic", "/rename", "My Topic"},
		{"/model gpt-4", "/model", "gpt-4"},
		{"  /help  ", "/help", ""},
		{"/image a cat in space", "/image", "a cat in space"},
	}
	for _, tc := range cases {
		cmd, arg := splitCommand(tc.text)
		assert.Equal(t, tc.cmd, cmd, tc.text)
		assert.Equal(t, tc.arg, arg, tc.text)
	}
}

func TestRouteCommands(t *testing.T) {
	gateway, _ := newTestGateway(t)
	ctx := context.Background()
	conn := &connection{userID: "u1", username: "alice"}

	reply := gateway.route(ctx, conn, "/new")
	assert.Contains(t, reply.Text, "Started a new conversation")

	reply = gateway.route(ctx, conn, "/history")
	assert.Contains(t, reply.Text, "Recent conversations")
	require.Len(t, reply.Buttons, 1)

	reply = gateway.route(ctx, conn, "/rename Travel Plans")
	assert.Contains(t, reply.Text, "Travel Plans")

	reply = gateway.route(ctx, conn, "/frobnicate")
	assert.Equal(t, "Unknown command. Try /help.", reply.Text)
}

func TestRoutePlainTextIsChatTurn(t *testing.T) {
	gateway, mock := newTestGateway(t)
	mock.ChatFn = func(ctx context.Context, req *llm.ChatCompletionRequest) (*llm.ChatCompletionResponse, error) {
		return &llm.ChatCompletionResponse{
			Choices: []llm.Choice{{Message: &llm.ChatMessage{Role: "assistant", Content: "echoed"}}},
		}, nil
	}

	conn := &connection{userID: "u1", username: "alice"}
	reply := gateway.route(context.Background(), conn, "hello there")
	assert.Equal(t, "echoed", reply.Text)
}

func TestDispatchRequiresHello(t *testing.T) {
	gateway, _ := newTestGateway(t)

	conn := &connection{send: make(chan *Outbound, 1)}
	gateway.dispatch(conn, &Inbound{Type: TypeChat, Text: "hi"})

	out := <-conn.send
	assert.Equal(t, TypeError, out.Type)
	assert.Equal(t, "send hello first", out.Text)
}

func TestDispatchHelloBindsUser(t *testing.T) {
	gateway, _ := newTestGateway(t)

	conn := &connection{send: make(chan *Outbound, 1)}
	gateway.dispatch(conn, &Inbound{Type: TypeHello, UserID: "u1", Username: "alice"})

	out := <-conn.send
	assert.Equal(t, TypeHelloAck, out.Type)
	assert.Equal(t, "u1", conn.userID)
	assert.Equal(t, "alice", conn.username)
}

func TestGatewayRoundTrip(t *testing.T) {
	gateway, mock := newTestGateway(t)
	mock.ChatFn = func(ctx context.Context, req *llm.ChatCompletionRequest) (*llm.ChatCompletionResponse, error) {
		return &llm.ChatCompletionResponse{
			Choices: []llm.Choice{{Message: &llm.ChatMessage{Role: "assistant", Content: "pong"}}},
		}, nil
	}

	e := echo.New()
	gateway.RegisterRoutes(e)
	server := httptest.NewServer(e)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(Inbound{Type: TypeHello, UserID: "u1", Username: "alice"}))

	var ack Outbound
	require.NoError(t, conn.ReadJSON(&ack))
	assert.Equal(t, TypeHelloAck, ack.Type)

	require.NoError(t, conn.WriteJSON(Inbound{Type: TypeChat, Text: "ping"}))

	var reply Outbound
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, TypeReply, reply.Type)
	assert.Equal(t, "pong", reply.Text)
}
