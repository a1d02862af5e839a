package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// ListModels returns one page of the live model catalog.
// GET /v1/users/:user_id/models?page=
func (h *Handler) ListModels(c echo.Context) error {
	userID := c.Param("user_id")
	if !h.authorize(c, userID, "model") {
		return forbiddenJSON(c)
	}

	page := 0
	if p := c.QueryParam("page"); p != "" {
		if val, err := strconv.Atoi(p); err == nil {
			page = val
		}
	}

	ctx := c.Request().Context()
	result, err := h.service.ListModelsPage(ctx, page)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"models":      result.Models,
		"page":        result.Page,
		"total_pages": result.TotalPages,
	})
}
