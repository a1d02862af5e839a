package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

type createSessionRequest struct {
	Username string `json:"username,omitempty"`
}

// CreateSession starts a fresh session and makes it current.
// POST /v1/users/:user_id/sessions
func (h *Handler) CreateSession(c echo.Context) error {
	userID := c.Param("user_id")
	if !h.authorize(c, userID, "new") {
		return forbiddenJSON(c)
	}

	var req createSessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	ctx := c.Request().Context()
	session, err := h.service.NewSession(ctx, userID, req.Username)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusCreated, session)
}

// ListSessions lists the user's sessions, most recently active first.
// GET /v1/users/:user_id/sessions
func (h *Handler) ListSessions(c echo.Context) error {
	userID := c.Param("user_id")
	if !h.authorize(c, userID, "history") {
		return forbiddenJSON(c)
	}

	ctx := c.Request().Context()
	sessions, err := h.service.ListRecentSessions(ctx, userID)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"sessions": sessions,
	})
}

// ActivateSession switches the user's current session and returns the
// replay window of the newly active session.
// POST /v1/users/:user_id/sessions/:session_id/activate
func (h *Handler) ActivateSession(c echo.Context) error {
	userID := c.Param("user_id")
	sessionID := c.Param("session_id")
	if !h.authorize(c, userID, "switch") {
		return forbiddenJSON(c)
	}

	ctx := c.Request().Context()
	session, messages, err := h.service.SwitchSession(ctx, userID, sessionID)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"session":  session,
		"messages": messages,
	})
}

type renameRequest struct {
	Title string `json:"title"`
}

// RenameSession sets the session title.
// POST /v1/users/:user_id/sessions/:session_id/rename
func (h *Handler) RenameSession(c echo.Context) error {
	userID := c.Param("user_id")
	sessionID := c.Param("session_id")
	if !h.authorize(c, userID, "rename") {
		return forbiddenJSON(c)
	}

	var req renameRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "title is required"})
	}

	ctx := c.Request().Context()
	if err := h.service.RenameSession(ctx, userID, sessionID, req.Title); err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type setModelRequest struct {
	Model string `json:"model"`
}

// SetSessionModel binds a model to the session. History is untouched.
// POST /v1/users/:user_id/sessions/:session_id/model
func (h *Handler) SetSessionModel(c echo.Context) error {
	userID := c.Param("user_id")
	sessionID := c.Param("session_id")
	if !h.authorize(c, userID, "model") {
		return forbiddenJSON(c)
	}

	var req setModelRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.Model == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "model is required"})
	}

	ctx := c.Request().Context()
	if err := h.service.SetSessionModel(ctx, userID, sessionID, req.Model); err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// GetSessionMessages retrieves the tail of a session's history in
// chronological order.
// GET /v1/users/:user_id/sessions/:session_id/messages
func (h *Handler) GetSessionMessages(c echo.Context) error {
	userID := c.Param("user_id")
	sessionID := c.Param("session_id")
	if !h.authorize(c, userID, "history") {
		return forbiddenJSON(c)
	}

	limit := 50
	if l := c.QueryParam("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil {
			limit = val
		}
	}

	ctx := c.Request().Context()
	messages, err := h.service.SessionMessages(ctx, userID, sessionID, limit)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"messages": messages,
	})
}
