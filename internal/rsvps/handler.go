package rsvps

import (
	"context"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gatherhall/backend/internal/middleware"
	"github.com/gatherhall/backend/internal/models"
	"github.com/gatherhall/backend/pkg/response"
)

// DecisionRequest is the body for POST /events/:id/rsvps/:requestId/decision.
type DecisionRequest struct {
	Action string `json:"action" binding:"required"`
}

// Handler handles RSVP admission HTTP endpoints.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates an RSVP handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, logger: logger}
}

// Request handles POST /events/:id/rsvp.
func (h *Handler) Request(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	outcome, err := h.service.RequestAdmission(c.Request.Context(), eventID, userID)
	if err != nil {
		h.fail(c, "request admission", eventID, userID, err)
		return
	}
	if !outcome.Needed {
		response.OK(c, outcome)
		return
	}
	response.Created(c, outcome)
}

// ListPending handles GET /events/:id/rsvps/pending.
func (h *Handler) ListPending(c *gin.Context) {
	h.list(c, h.service.ListPending)
}

// ListProcessed handles GET /events/:id/rsvps/processed.
func (h *Handler) ListProcessed(c *gin.Context) {
	h.list(c, h.service.ListProcessed)
}

// Decide handles POST /events/:id/rsvps/:requestId/decision.
func (h *Handler) Decide(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	requestID, err := uuid.Parse(c.Param("requestId"))
	if err != nil {
		response.BadRequest(c, "invalid request id")
		return
	}
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	action := models.RSVPStatus(req.Action)
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	updated, err := h.service.Decide(c.Request.Context(), eventID, requestID, action, userID)
	if err != nil {
		h.fail(c, "decide", eventID, userID, err)
		return
	}
	response.OK(c, updated)
}

func (h *Handler) list(c *gin.Context, fn func(ctx context.Context, eventID, requesterID uuid.UUID, page, pageSize int) (*models.RSVPPage, error)) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "page_size", DefaultPageSize)

	result, err := fn(c.Request.Context(), eventID, userID, page, pageSize)
	if err != nil {
		h.fail(c, "list requests", eventID, userID, err)
		return
	}
	response.OK(c, result)
}

// fail logs once at the boundary and maps workflow sentinels to response
// classes. Host-authorization failures surface as 400 to match the
// established client contract.
func (h *Handler) fail(c *gin.Context, op string, eventID, actorID uuid.UUID, err error) {
	switch {
	case errors.Is(err, ErrEventNotFound):
		response.NotFound(c, "event not found")
	case errors.Is(err, ErrAlreadyPending):
		response.Conflict(c, "join request already pending")
	case errors.Is(err, ErrAlreadyApproved):
		response.Conflict(c, "join request already approved")
	case errors.Is(err, ErrNoPendingRequest):
		response.Conflict(c, "no pending join request matching")
	case errors.Is(err, ErrNotHost):
		response.BadRequest(c, "not an event host")
	case errors.Is(err, ErrInvalidAction):
		response.BadRequest(c, "action must be approved or rejected")
	default:
		h.logger.Error("rsvp operation failed",
			zap.String("op", op),
			zap.String("event_id", eventID.String()),
			zap.String("actor_id", actorID.String()),
			zap.Error(err),
		)
		response.Internal(c, "internal error")
		return
	}
	h.logger.Warn("rsvp operation rejected",
		zap.String("op", op),
		zap.String("event_id", eventID.String()),
		zap.String("actor_id", actorID.String()),
		zap.String("reason", err.Error()),
	)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v := c.Query(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
