package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type chatRequest struct {
	Username string `json:"username,omitempty"`
	Text     string `json:"text"`
}

// Chat runs one text turn against the user's current session.
// POST /v1/users/:user_id/chat
func (h *Handler) Chat(c echo.Context) error {
	userID := c.Param("user_id")
	if !h.authorize(c, userID, "chat") {
		return forbiddenJSON(c)
	}

	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.Text == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "text is required"})
	}

	ctx := c.Request().Context()
	result, err := h.service.ChatTurn(ctx, userID, req.Username, req.Text)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{
		"session_id": result.SessionID,
		"model":      result.Model,
		"reply":      result.Reply,
	})
}

type imageRequest struct {
	Username string `json:"username,omitempty"`
	Prompt   string `json:"prompt"`
}

// GenerateImage runs one image turn against the user's current session.
// POST /v1/users/:user_id/images
func (h *Handler) GenerateImage(c echo.Context) error {
	userID := c.Param("user_id")
	if !h.authorize(c, userID, "image") {
		return forbiddenJSON(c)
	}

	var req imageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.Prompt == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "prompt is required"})
	}

	ctx := c.Request().Context()
	result, err := h.service.GenerateImage(ctx, userID, req.Username, req.Prompt)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{
		"session_id": result.SessionID,
		"model":      result.Model,
		"url":        result.URL,
	})
}
