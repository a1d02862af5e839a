package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"chatrelay/internal/domain"
)

// Command handlers: the surface exposed to the transport layer. Each takes
// (userID, payload) and returns a rendering instruction. Failures are
// converted to user-visible replies here; nothing propagates far enough to
// take the process down on behalf of one request.

const (
	deniedText  = "You are not allowed to use this bot."
	genericText = "Something went wrong, please try again later."
)

func (s *Service) allowed(ctx context.Context, userID, operation string) bool {
	ok, err := s.access.Allowed(ctx, userID, operation)
	if err != nil {
		log.Printf("ERROR: access policy evaluation failed for user %s: %v", userID, err)
		return false
	}
	return ok
}

// Authorize runs the access policy for a transport that maps decisions to
// its own error shape instead of a Reply. Evaluation failures deny.
func (s *Service) Authorize(ctx context.Context, userID, operation string) bool {
	return s.allowed(ctx, userID, operation)
}

// HandleStart initializes the user and their first session.
func (s *Service) HandleStart(ctx context.Context, userID, username string) *domain.Reply {
	if !s.allowed(ctx, userID, "start") {
		return domain.TextReply(deniedText)
	}
	if _, err := s.EnsureSession(ctx, userID, username); err != nil {
		log.Printf("ERROR: start failed for user %s: %v", userID, err)
		return domain.TextReply(genericText)
	}
	return domain.TextReply(
		"Welcome!\n\n" +
			"Commands:\n" +
			"/new - start a new conversation\n" +
			"/history - list recent conversations\n" +
			"/model [name] - show or switch the model\n" +
			"/rename <title> - rename the current conversation\n\n" +
			"Send text to chat, or /image <prompt> to generate an image.")
}

// HandleHelp returns the command reference.
func (s *Service) HandleHelp(ctx context.Context, userID string) *domain.Reply {
	if !s.allowed(ctx, userID, "help") {
		return domain.TextReply(deniedText)
	}
	return domain.TextReply(
		"Help:\n\n" +
			"/start - initialize\n" +
			"/new - reset context, start a new topic\n" +
			"/history - list the last 10 conversations, tap one to resume\n" +
			"/model [name] - show the catalog or switch directly\n" +
			"/rename <title> - set the current conversation's title\n" +
			"/image <prompt> - generate an image in the current conversation")
}

// HandleNew starts a fresh conversation.
func (s *Service) HandleNew(ctx context.Context, userID, username string) *domain.Reply {
	if !s.allowed(ctx, userID, "new") {
		return domain.TextReply(deniedText)
	}
	session, err := s.NewSession(ctx, userID, username)
	if err != nil {
		log.Printf("ERROR: new session failed for user %s: %v", userID, err)
		return domain.TextReply(genericText)
	}
	log.Printf("User %s started new session %s", userID, session.SessionID)
	return domain.TextReply(fmt.Sprintf("Started a new conversation with model %s.", session.Model))
}

// HandleHistory lists recent sessions as switch buttons.
func (s *Service) HandleHistory(ctx context.Context, userID string) *domain.Reply {
	if !s.allowed(ctx, userID, "history") {
		return domain.TextReply(deniedText)
	}
	sessions, err := s.ListRecentSessions(ctx, userID)
	if err != nil {
		log.Printf("ERROR: history failed for user %s: %v", userID, err)
		return domain.TextReply(genericText)
	}
	if len(sessions) == 0 {
		return domain.TextReply("No history yet.")
	}

	buttons := make([][]domain.Button, 0, len(sessions))
	for _, sess := range sessions {
		title := sess.Title
		if title == "" {
			title = "Session " + sess.SessionID
		}
		buttons = append(buttons, []domain.Button{{
			Text: fmt.Sprintf("%s (%s)", title, sess.Model),
			Data: "sess:" + sess.SessionID,
		}})
	}
	return &domain.Reply{
		Text:    "Recent conversations (tap to switch):",
		Buttons: buttons,
	}
}

// HandleModel shows the paginated catalog, or switches directly when an
// argument is given (the literal string is accepted without catalog
// validation, matching command-style usage).
func (s *Service) HandleModel(ctx context.Context, userID, arg string) *domain.Reply {
	if !s.allowed(ctx, userID, "model") {
		return domain.TextReply(deniedText)
	}

	if arg != "" {
		return s.switchModelReply(ctx, userID, arg)
	}

	page, err := s.ListModelsPage(ctx, 0)
	if err != nil {
		current, cerr := s.CurrentModel(ctx, userID)
		if cerr != nil {
			log.Printf("ERROR: model lookup failed for user %s: %v", userID, cerr)
			return domain.TextReply(genericText)
		}
		return domain.TextReply(fmt.Sprintf(
			"Current model: %s\n(the catalog is unavailable, pass a model name directly)", current))
	}
	if page.TotalPages == 0 {
		current, cerr := s.CurrentModel(ctx, userID)
		if cerr != nil {
			log.Printf("ERROR: model lookup failed for user %s: %v", userID, cerr)
			return domain.TextReply(genericText)
		}
		return domain.TextReply(fmt.Sprintf(
			"Current model: %s\n(the catalog is empty, pass a model name directly)", current))
	}
	return modelPageReply(page)
}

func modelPageReply(page *ModelPage) *domain.Reply {
	buttons := make([][]domain.Button, 0, len(page.Models)+2)
	for _, m := range page.Models {
		buttons = append(buttons, []domain.Button{{Text: m, Data: "model_sel:" + m}})
	}

	var nav []domain.Button
	if page.Page > 0 {
		nav = append(nav, domain.Button{Text: "< Prev", Data: "model_page:" + strconv.Itoa(page.Page-1)})
	}
	if page.Page < page.TotalPages-1 {
		nav = append(nav, domain.Button{Text: "Next >", Data: "model_page:" + strconv.Itoa(page.Page+1)})
	}
	if len(nav) > 0 {
		buttons = append(buttons, nav)
	}
	buttons = append(buttons, []domain.Button{{Text: "Close", Data: "model_close"}})

	return &domain.Reply{
		Text:    fmt.Sprintf("Choose a model (page %d/%d):", page.Page+1, page.TotalPages),
		Buttons: buttons,
	}
}

func (s *Service) switchModelReply(ctx context.Context, userID, modelID string) *domain.Reply {
	err := s.SwitchModel(ctx, userID, modelID)
	switch {
	case err == nil:
		return domain.TextReply(fmt.Sprintf("Model switched to %s.", modelID))
	case errors.Is(err, domain.ErrNotFound):
		return domain.TextReply("Start a conversation first (/start or /new).")
	case errors.Is(err, domain.ErrNotOwner):
		log.Printf("WARN: user %s attempted model switch on a foreign session", userID)
		return domain.TextReply(genericText)
	default:
		log.Printf("ERROR: model switch failed for user %s: %v", userID, err)
		return domain.TextReply(genericText)
	}
}

// HandleRename renames the current session.
func (s *Service) HandleRename(ctx context.Context, userID, title string) *domain.Reply {
	if !s.allowed(ctx, userID, "rename") {
		return domain.TextReply(deniedText)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.TextReply("Give the new title, e.g. /rename Translation helper")
	}

	err := s.RenameCurrentSession(ctx, userID, title)
	switch {
	case err == nil:
		return domain.TextReply(fmt.Sprintf("Title changed to %q.", title))
	case errors.Is(err, domain.ErrNotFound):
		return domain.TextReply("No active conversation.")
	case errors.Is(err, domain.ErrNotOwner):
		log.Printf("WARN: user %s attempted rename on a foreign session", userID)
		return domain.TextReply(genericText)
	default:
		log.Printf("ERROR: rename failed for user %s: %v", userID, err)
		return domain.TextReply(genericText)
	}
}

// HandleText runs a plain text turn.
func (s *Service) HandleText(ctx context.Context, userID, username, text string) *domain.Reply {
	if !s.allowed(ctx, userID, "chat") {
		return domain.TextReply(deniedText)
	}
	result, err := s.ChatTurn(ctx, userID, username, text)
	if err != nil {
		var upstream *UpstreamError
		if errors.As(err, &upstream) {
			return domain.TextReply(fmt.Sprintf("Request failed: %v", upstream.Err))
		}
		log.Printf("ERROR: chat turn failed for user %s: %v", userID, err)
		return domain.TextReply(genericText)
	}
	return domain.TextReply(result.Reply)
}

// HandleImage runs an image generation turn.
func (s *Service) HandleImage(ctx context.Context, userID, username, prompt string) *domain.Reply {
	if !s.allowed(ctx, userID, "image") {
		return domain.TextReply(deniedText)
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return domain.TextReply("Give a prompt, e.g. /image a cat swimming in space")
	}

	result, err := s.GenerateImage(ctx, userID, username, prompt)
	if err != nil {
		var upstream *UpstreamError
		if errors.As(err, &upstream) {
			return domain.TextReply(fmt.Sprintf("Image generation failed: %v", upstream.Err))
		}
		log.Printf("ERROR: image turn failed for user %s: %v", userID, err)
		return domain.TextReply(genericText)
	}
	return &domain.Reply{
		Text:     fmt.Sprintf("Image link: %s\nModel: %s", result.URL, result.Model),
		ImageURL: result.URL,
	}
}

// HandleButton dispatches an inline button press by payload prefix.
func (s *Service) HandleButton(ctx context.Context, userID, username, data string) *domain.Reply {
	if !s.allowed(ctx, userID, "button") {
		return domain.TextReply(deniedText)
	}

	switch {
	case strings.HasPrefix(data, "sess:"):
		return s.switchSessionReply(ctx, userID, username, strings.TrimPrefix(data, "sess:"))

	case strings.HasPrefix(data, "model_sel:"):
		return s.switchModelReply(ctx, userID, strings.TrimPrefix(data, "model_sel:"))

	case strings.HasPrefix(data, "model_page:"):
		n, err := strconv.Atoi(strings.TrimPrefix(data, "model_page:"))
		if err != nil {
			return domain.TextReply(genericText)
		}
		page, err := s.ListModelsPage(ctx, n)
		if err != nil || page.TotalPages == 0 {
			return domain.TextReply("The model catalog is unavailable right now.")
		}
		return modelPageReply(page)

	case data == "model_close":
		return domain.TextReply("Model selection closed.")

	default:
		return domain.TextReply(genericText)
	}
}

func (s *Service) switchSessionReply(ctx context.Context, userID, username, sessionID string) *domain.Reply {
	session, messages, err := s.SwitchSession(ctx, userID, sessionID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		// Stale id: recover by starting fresh rather than failing the user.
		if _, nerr := s.NewSession(ctx, userID, username); nerr != nil {
			log.Printf("ERROR: recovery session failed for user %s: %v", userID, nerr)
			return domain.TextReply(genericText)
		}
		return domain.TextReply("Session not found, starting a new one.")
	case errors.Is(err, domain.ErrNotOwner):
		log.Printf("WARN: user %s attempted to switch to a foreign session %s", userID, sessionID)
		return domain.TextReply(genericText)
	case err != nil:
		log.Printf("ERROR: session switch failed for user %s: %v", userID, err)
		return domain.TextReply(genericText)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Switched to: %s\n", session.Title)
	if len(messages) > 0 {
		fmt.Fprintf(&b, "\nReplay (last %d turns):\n", len(messages))
		for _, m := range messages {
			who := "User"
			if m.Role == domain.RoleAssistant {
				who = "AI"
			}
			content := m.Content
			if runes := []rune(content); len(runes) > 200 {
				content = string(runes[:200]) + "..."
			}
			fmt.Fprintf(&b, "%s: %s\n", who, content)
		}
	}
	return domain.TextReply(b.String())
}
