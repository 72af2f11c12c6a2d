package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gatherhall/backend/internal/models"
	"github.com/gatherhall/backend/internal/realtime"
	"github.com/gatherhall/backend/pkg/queue"
)

// UserGetter resolves recipient addresses.
type UserGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// EventGetter resolves the event title and host for notification copy.
type EventGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
}

// Notifier fans out admission events after commit: an email job on the
// queue plus a live push to the event's websocket room. Everything here is
// best-effort; failures are logged, never returned.
type Notifier struct {
	users  UserGetter
	events EventGetter
	queue  *queue.Queue
	hub    *realtime.Hub
	logger *zap.Logger
}

// NewNotifier creates the post-commit notifier. hub may be nil.
func NewNotifier(users UserGetter, events EventGetter, q *queue.Queue, hub *realtime.Hub, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{users: users, events: events, queue: q, hub: hub, logger: logger}
}

// RequestCreated notifies the event host about a new pending request.
func (n *Notifier) RequestCreated(ctx context.Context, req *models.RSVPRequest) {
	if n.hub != nil {
		n.hub.BroadcastAndPublish(req.EventID, realtime.EventRSVPRequested, req)
	}

	e, err := n.events.GetByID(ctx, req.EventID)
	if err != nil {
		n.logger.Warn("notify skipped: event lookup failed", zap.Error(err), zap.String("event_id", req.EventID.String()))
		return
	}
	// Host alert and requester confirmation are independent; one failed
	// lookup must not swallow the other email.
	if host, err := n.users.GetByID(ctx, e.CreatedBy); err != nil {
		n.logger.Warn("notify skipped: host lookup failed", zap.Error(err), zap.String("event_id", req.EventID.String()))
	} else {
		n.enqueue(ctx, queue.EmailPayload{
			EmailType:      models.EmailTypeHostNewRequest,
			EventID:        req.EventID,
			RSVPRequestID:  req.ID,
			RecipientEmail: host.Email,
			Subject:        fmt.Sprintf("New join request for %s", e.Title),
			BodyHTML:       fmt.Sprintf("<p>Someone asked to join <b>%s</b>. Review it in your dashboard.</p>", e.Title),
		})
	}

	if requester, err := n.users.GetByID(ctx, req.CreatedBy); err != nil {
		n.logger.Warn("notify skipped: requester lookup failed", zap.Error(err), zap.String("event_id", req.EventID.String()))
	} else {
		n.enqueue(ctx, queue.EmailPayload{
			EmailType:      models.EmailTypeRequestReceived,
			EventID:        req.EventID,
			RSVPRequestID:  req.ID,
			RecipientEmail: requester.Email,
			Subject:        fmt.Sprintf("Request received for %s", e.Title),
			BodyHTML:       fmt.Sprintf("<p>Your request to join <b>%s</b> is in. The host will review it soon.</p>", e.Title),
		})
	}
}

// RequestDecided notifies the requester about the decision.
func (n *Notifier) RequestDecided(ctx context.Context, req *models.RSVPRequest) {
	if n.hub != nil {
		n.hub.BroadcastAndPublish(req.EventID, realtime.EventRSVPDecided, req)
	}

	e, err := n.events.GetByID(ctx, req.EventID)
	if err != nil {
		n.logger.Warn("notify skipped: event lookup failed", zap.Error(err), zap.String("event_id", req.EventID.String()))
		return
	}
	requester, err := n.users.GetByID(ctx, req.CreatedBy)
	if err != nil {
		n.logger.Warn("notify skipped: requester lookup failed", zap.Error(err), zap.String("event_id", req.EventID.String()))
		return
	}

	emailType := models.EmailTypeRequestApproved
	subject := fmt.Sprintf("You're in: %s", e.Title)
	body := fmt.Sprintf("<p>Your request to join <b>%s</b> was approved.</p>", e.Title)
	if req.Status == models.RSVPStatusRejected {
		emailType = models.EmailTypeRequestRejected
		subject = fmt.Sprintf("Update on your request for %s", e.Title)
		body = fmt.Sprintf("<p>Your request to join <b>%s</b> was not approved this time.</p>", e.Title)
	}
	n.enqueue(ctx, queue.EmailPayload{
		EmailType:      emailType,
		EventID:        req.EventID,
		RSVPRequestID:  req.ID,
		RecipientEmail: requester.Email,
		Subject:        subject,
		BodyHTML:       body,
	})
}

func (n *Notifier) enqueue(ctx context.Context, payload queue.EmailPayload) {
	if n.queue == nil {
		return
	}
	if err := n.queue.EnqueueEmail(ctx, payload); err != nil {
		n.logger.Error("enqueue email failed", zap.Error(err), zap.String("email_type", payload.EmailType))
	}
}
