// Command chatcli is a simple interactive client for the chat relay's
// WebSocket gateway.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Frame types, mirroring the gateway protocol.
const (
	TypeHello    = "hello"
	TypeHelloAck = "hello_ack"
	TypeChat     = "chat"
	TypeButton   = "button"
	TypeReply    = "reply"
	TypeError    = "error"
)

type button struct {
	Text string `json:"text"`
	Data string `json:"data"`
}

type frame struct {
	Type     string     `json:"type"`
	Ts       int64      `json:"ts,omitempty"`
	UserID   string     `json:"user_id,omitempty"`
	Username string     `json:"username,omitempty"`
	Text     string     `json:"text,omitempty"`
	Data     string     `json:"data,omitempty"`
	Buttons  [][]button `json:"buttons,omitempty"`
	ImageURL string     `json:"image_url,omitempty"`
}

func main() {
	addr := flag.String("addr", "ws://localhost:8080/ws", "gateway address")
	userID := flag.String("user", "local", "user id")
	username := flag.String("name", "", "display name")
	flag.Parse()

	conn, _, err := websocket.DefaultDialer.Dial(*addr, nil)
	if err != nil {
		log.Fatalf("Failed to connect to %s: %v", *addr, err)
	}
	defer conn.Close()

	hello := frame{Type: TypeHello, Ts: time.Now().UnixMilli(), UserID: *userID, Username: *username}
	if err := conn.WriteJSON(hello); err != nil {
		log.Fatalf("Failed to send hello: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var f frame
			if err := conn.ReadJSON(&f); err != nil {
				log.Printf("Connection closed: %v", err)
				return
			}
			render(&f)
		}
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-done:
			return
		case <-interrupt:
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			// "!<payload>" presses an inline button by its payload.
			out := frame{Type: TypeChat, Ts: time.Now().UnixMilli(), Text: line}
			if strings.HasPrefix(line, "!") {
				out = frame{Type: TypeButton, Ts: time.Now().UnixMilli(), Data: strings.TrimPrefix(line, "!")}
			}
			if err := conn.WriteJSON(out); err != nil {
				log.Printf("Failed to send: %v", err)
				return
			}
		}
	}
}

func render(f *frame) {
	switch f.Type {
	case TypeHelloAck:
		fmt.Println("[connected]")
	case TypeError:
		fmt.Printf("[error] %s\n", f.Text)
	case TypeReply:
		if f.Text != "" {
			fmt.Println(f.Text)
		}
		if f.ImageURL != "" {
			fmt.Printf("[image] %s\n", f.ImageURL)
		}
		for _, row := range f.Buttons {
			for _, b := range row {
				fmt.Printf("  [%s] -> !%s\n", b.Text, b.Data)
			}
		}
	default:
		raw, _ := json.Marshal(f)
		fmt.Println(string(raw))
	}
}
