package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rentalhub/marketplace-gate/internal/core/ports"
)

const defaultAccessEventsLimit = 50

// AccessEventHandler lists the gate audit trail.
type AccessEventHandler struct {
	repo ports.AccessEventRepository
}

func NewAccessEventHandler(repo ports.AccessEventRepository) *AccessEventHandler {
	return &AccessEventHandler{repo: repo}
}

// List handles GET /api/admin/access-events.
//
// @Summary      Recent access events
// @Description  Latest invalid-credential and cross-zone decisions, newest first.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Maximum number of events (1-500)"
// @Success      200    {object}  accessEventsResponse
// @Failure      401    {object}  errorResponse
// @Failure      403    {object}  errorResponse
// @Failure      422    {object}  errorResponse
// @Router       /api/admin/access-events [get]
func (h *AccessEventHandler) List(c echo.Context) error {
	var q listAccessEventsQuery
	if err := c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	}
	if err := c.Validate(&q); err != nil {
		return err
	}
	if q.Limit == 0 {
		q.Limit = defaultAccessEventsLimit
	}

	events, err := h.repo.ListRecent(c.Request().Context(), q.Limit)
	if err != nil {
		return err
	}

	resp := accessEventsResponse{Events: make([]accessEventResponse, 0, len(events))}
	for _, e := range events {
		resp.Events = append(resp.Events, toAccessEventResponse(e))
	}
	resp.Count = len(resp.Events)
	return c.JSON(http.StatusOK, resp)
}
