package events

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gatherhall/backend/internal/middleware"
	"github.com/gatherhall/backend/internal/models"
	"github.com/gatherhall/backend/pkg/response"
)

// CreateRequest is the body for POST /events.
type CreateRequest struct {
	Title            string     `json:"title" binding:"required"`
	Description      string     `json:"description"`
	Location         string     `json:"location"`
	StartsAt         time.Time  `json:"starts_at" binding:"required"`
	EndsAt           *time.Time `json:"ends_at"`
	ApprovalRequired bool       `json:"approval_required"`
	Capacity         int        `json:"capacity"`
}

// AddCohostRequest is the body for POST /events/:id/cohosts.
type AddCohostRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

// Handler handles event HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates an events handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// Create handles POST /events.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	e := &models.Event{
		Title:            req.Title,
		Description:      req.Description,
		Location:         req.Location,
		StartsAt:         req.StartsAt,
		CreatedBy:        userID,
		ApprovalRequired: req.ApprovalRequired,
		Capacity:         req.Capacity,
	}
	if req.EndsAt != nil {
		e.EndsAt = *req.EndsAt
	} else {
		e.EndsAt = req.StartsAt
	}

	if err := h.repo.Create(c.Request.Context(), e); err != nil {
		h.logger.Error("create event failed", zap.Error(err), zap.String("user_id", userID.String()))
		response.Internal(c, "failed to create event")
		return
	}
	response.Created(c, e)
}

// GetByID handles GET /events/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	e, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "event not found")
			return
		}
		response.Internal(c, "failed to load event")
		return
	}
	response.OK(c, e)
}

// List handles GET /events.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list events")
		return
	}
	response.OK(c, list)
}

// RoomCounter reports live websocket connections for an event room.
type RoomCounter interface {
	RoomSize(eventID uuid.UUID) int
}

// AudienceCount handles GET /events/:id/audience_count.
func (h *Handler) AudienceCount(counter RoomCounter) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.BadRequest(c, "invalid event id")
			return
		}
		response.OK(c, gin.H{"event_id": id, "count": counter.RoomSize(id)})
	}
}

// AddCohost handles POST /events/:id/cohosts. Only the event creator may
// grant the cohost role.
func (h *Handler) AddCohost(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	var req AddCohostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	e, err := h.repo.GetByID(c.Request.Context(), eventID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "event not found")
			return
		}
		response.Internal(c, "failed to load event")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if e.CreatedBy != userID {
		response.Forbidden(c, "only the event creator can add cohosts")
		return
	}

	if err := h.repo.AddParticipant(c.Request.Context(), eventID, req.UserID, models.ParticipantRoleCohost); err != nil {
		h.logger.Error("add cohost failed", zap.Error(err), zap.String("event_id", eventID.String()))
		response.Internal(c, "failed to add cohost")
		return
	}
	response.OK(c, gin.H{"event_id": eventID, "user_id": req.UserID, "role": models.ParticipantRoleCohost})
}
