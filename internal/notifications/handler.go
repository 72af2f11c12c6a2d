package notifications

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gatherhall/backend/internal/events"
	"github.com/gatherhall/backend/internal/middleware"
	"github.com/gatherhall/backend/internal/models"
	"github.com/gatherhall/backend/pkg/response"
)

// HostChecker gates the notification log to event hosts.
type HostChecker interface {
	IsHost(ctx context.Context, eventID, userID uuid.UUID) (bool, error)
}

// LogStore lists the email audit trail for an event.
type LogStore interface {
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*models.EmailLog, error)
}

// Handler handles notification log HTTP endpoints.
type Handler struct {
	repo  LogStore
	hosts HostChecker
}

// NewHandler creates a notifications handler.
func NewHandler(repo LogStore, hosts HostChecker) *Handler {
	return &Handler{repo: repo, hosts: hosts}
}

// ListByEvent handles GET /events/:id/emails. Hosts only.
func (h *Handler) ListByEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	ok, err := h.hosts.IsHost(c.Request.Context(), eventID, userID)
	if err != nil {
		if errors.Is(err, events.ErrNotFound) {
			response.NotFound(c, "event not found")
			return
		}
		response.Internal(c, "failed to check event access")
		return
	}
	if !ok {
		response.BadRequest(c, "not an event host")
		return
	}

	list, err := h.repo.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		response.Internal(c, "failed to list email logs")
		return
	}
	response.OK(c, list)
}
