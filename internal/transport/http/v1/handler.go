// Package v1 provides the HTTP JSON API for the chat relay.
package v1

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"chatrelay/internal/domain"
	"chatrelay/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/v1/users/:user_id/chat", h.Chat)
	e.POST("/v1/users/:user_id/images", h.GenerateImage)

	e.POST("/v1/users/:user_id/sessions", h.CreateSession)
	e.GET("/v1/users/:user_id/sessions", h.ListSessions)
	e.POST("/v1/users/:user_id/sessions/:session_id/activate", h.ActivateSession)
	e.POST("/v1/users/:user_id/sessions/:session_id/rename", h.RenameSession)
	e.POST("/v1/users/:user_id/sessions/:session_id/model", h.SetSessionModel)
	e.GET("/v1/users/:user_id/sessions/:session_id/messages", h.GetSessionMessages)

	e.GET("/v1/users/:user_id/models", h.ListModels)

	e.GET("/health", h.Health)
}

// authorize runs the access policy for the requesting user. Every endpoint
// below /v1/users calls it before touching the service.
func (h *Handler) authorize(c echo.Context, userID, operation string) bool {
	return h.service.Authorize(c.Request().Context(), userID, operation)
}

func forbiddenJSON(c echo.Context) error {
	return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}

// errorJSON maps service errors to HTTP statuses. Ownership violations are
// reported as a generic not-found so a probing caller learns nothing, and
// logged as a misuse signal.
func errorJSON(c echo.Context, err error) error {
	var upstream *service.UpstreamError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, domain.ErrNotOwner):
		log.Printf("WARN: ownership violation: %v (path %s)", err, c.Path())
		return c.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.As(err, &upstream):
		return c.JSON(http.StatusBadGateway, map[string]string{"error": upstream.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
