package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"chatrelay/internal/domain"
	"chatrelay/internal/service"
)

const (
	readTimeout    = 120 * time.Second
	writeTimeout   = 10 * time.Second
	pingInterval   = 30 * time.Second
	maxMessageSize = 1 << 16
	sendBuffer     = 16
)

// Server handles WebSocket chat connections.
type Server struct {
	service  *service.Service
	upgrader websocket.Upgrader
}

// NewServer creates a new WebSocket gateway.
func NewServer(svc *service.Service) *Server {
	return &Server{
		service: svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// RegisterRoutes registers the gateway endpoint with the echo server.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws", s.HandleWebSocket)
}

// connection is one chat client. userID is bound by the hello frame.
type connection struct {
	ws       *websocket.Conn
	send     chan *Outbound
	userID   string
	username string
}

// HandleWebSocket handles WebSocket upgrade and connection lifecycle.
func (s *Server) HandleWebSocket(c echo.Context) error {
	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("Failed to upgrade WebSocket: %v", err)
		return err
	}

	conn := &connection{
		ws:   ws,
		send: make(chan *Outbound, sendBuffer),
	}

	ws.SetReadLimit(maxMessageSize)

	go s.writePump(conn)
	go s.readPump(conn)

	return nil
}

// readPump reads frames from the connection and dispatches them one at a
// time: a single logical worker per inbound event.
func (s *Server) readPump(conn *connection) {
	defer func() {
		close(conn.send)
	}()

	conn.ws.SetReadDeadline(time.Now().Add(readTimeout))
	conn.ws.SetPongHandler(func(string) error {
		conn.ws.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	for {
		_, raw, err := conn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}

		var in Inbound
		if err := json.Unmarshal(raw, &in); err != nil {
			conn.send <- errorFrame("invalid frame")
			continue
		}
		s.dispatch(conn, &in)
	}
}

// writePump writes frames and keeps the connection alive with pings.
func (s *Server) writePump(conn *connection) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		conn.ws.Close()
	}()

	for {
		select {
		case out, ok := <-conn.send:
			conn.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				conn.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.ws.WriteJSON(out); err != nil {
				return
			}
		case <-ticker.C:
			conn.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) dispatch(conn *connection, in *Inbound) {
	ctx := context.Background()

	switch in.Type {
	case TypeHello:
		if in.UserID == "" {
			conn.send <- errorFrame("hello requires user_id")
			return
		}
		conn.userID = in.UserID
		conn.username = in.Username
		conn.send <- &Outbound{Type: TypeHelloAck, Ts: time.Now().UnixMilli()}

	case TypeChat:
		if conn.userID == "" {
			conn.send <- errorFrame("send hello first")
			return
		}
		conn.send <- replyFrame(s.route(ctx, conn, in.Text))

	case TypeButton:
		if conn.userID == "" {
			conn.send <- errorFrame("send hello first")
			return
		}
		reply := s.service.HandleButton(ctx, conn.userID, conn.username, in.Data)
		conn.send <- replyFrame(reply)

	default:
		conn.send <- errorFrame("unknown frame type")
	}
}

// route parses slash commands out of a chat frame and invokes the matching
// handler; anything else is a plain text turn.
func (s *Server) route(ctx context.Context, conn *connection, text string) *domain.Reply {
	if !strings.HasPrefix(text, "/") {
		return s.service.HandleText(ctx, conn.userID, conn.username, text)
	}

	cmd, arg := splitCommand(text)
	switch cmd {
	case "/start":
		return s.service.HandleStart(ctx, conn.userID, conn.username)
	case "/help":
		return s.service.HandleHelp(ctx, conn.userID)
	case "/new":
		return s.service.HandleNew(ctx, conn.userID, conn.username)
	case "/history":
		return s.service.HandleHistory(ctx, conn.userID)
	case "/model":
		return s.service.HandleModel(ctx, conn.userID, arg)
	case "/rename":
		return s.service.HandleRename(ctx, conn.userID, arg)
	case "/image":
		return s.service.HandleImage(ctx, conn.userID, conn.username, arg)
	default:
		return domain.TextReply("Unknown command. Try /help.")
	}
}

func splitCommand(text string) (cmd, arg string) {
	parts := strings.SplitN(strings.TrimSpace(text), " ", 2)
	cmd = parts[0]
	if len(parts) == 2 {
		arg = strings.TrimSpace(parts[1])
	}
	return cmd, arg
}

func replyFrame(reply *domain.Reply) *Outbound {
	return &Outbound{
		Type:     TypeReply,
		Ts:       time.Now().UnixMilli(),
		Text:     reply.Text,
		Buttons:  reply.Buttons,
		ImageURL: reply.ImageURL,
	}
}

func errorFrame(text string) *Outbound {
	return &Outbound{Type: TypeError, Ts: time.Now().UnixMilli(), Text: text}
}
