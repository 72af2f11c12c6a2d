package rsvps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gatherhall/backend/internal/events"
	"github.com/gatherhall/backend/internal/models"
)

// Sentinel errors for the admission workflow. Handlers branch on these to
// pick the response class; anything else is an internal failure.
var (
	ErrEventNotFound    = errors.New("event not found")
	ErrAlreadyPending   = errors.New("join request already pending")
	ErrAlreadyApproved  = errors.New("join request already approved")
	ErrNoPendingRequest = errors.New("no pending join request matching")
	ErrNotHost          = errors.New("not an event host")
	ErrInvalidAction    = errors.New("invalid decision action")
)

// DefaultPageSize is used when the caller does not specify a page size.
const DefaultPageSize = 20

// EventResolver supplies event identity and the approval-required policy.
type EventResolver interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
}

// HostChecker reports whether a user may administer join requests for an
// event. Derived fresh on every call.
type HostChecker interface {
	IsHost(ctx context.Context, eventID, userID uuid.UUID) (bool, error)
}

// Notifier receives admission events after the transaction commits. Calls
// are best-effort; failures never affect the committed state.
type Notifier interface {
	RequestCreated(ctx context.Context, req *models.RSVPRequest)
	RequestDecided(ctx context.Context, req *models.RSVPRequest)
}

// AdmissionOutcome is the result of RequestAdmission. When the event does
// not require approval no request is created and Needed is false; callers
// must treat that as "request unnecessary", not as an error.
type AdmissionOutcome struct {
	Needed  bool                `json:"approval_required"`
	Request *models.RSVPRequest `json:"request,omitempty"`
}

// Service orchestrates the RSVP admission workflow: request, list, decide.
type Service struct {
	store    Store
	events   EventResolver
	hosts    HostChecker
	notifier Notifier
	logger   *zap.Logger
}

// NewService creates the admission workflow service. notifier may be nil.
func NewService(store Store, resolver EventResolver, hosts HostChecker, notifier Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, events: resolver, hosts: hosts, notifier: notifier, logger: logger}
}

// RequestAdmission creates a pending join request for the event, or reports
// that none is needed. At most one live (pending or approved) request per
// event+user can exist; a rejected one does not block a fresh request.
func (s *Service) RequestAdmission(ctx context.Context, eventID, requesterID uuid.UUID) (*AdmissionOutcome, error) {
	e, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, events.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("resolve event: %w", err)
	}
	if !e.ApprovalRequired {
		return &AdmissionOutcome{Needed: false}, nil
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	// Released on every exit path; no-op once committed.
	defer func() { _ = tx.Rollback(ctx) }()

	existing, err := s.store.FindActiveRequest(ctx, tx, eventID, requesterID)
	if err != nil {
		return nil, fmt.Errorf("find active request: %w", err)
	}
	if existing != nil {
		if existing.Status == models.RSVPStatusApproved {
			return nil, ErrAlreadyApproved
		}
		return nil, ErrAlreadyPending
	}

	req, err := s.store.CreateRequest(ctx, tx, eventID, requesterID)
	if err != nil {
		// The loser of a create race hits the unique index instead of the
		// guard read.
		if errors.Is(err, ErrDuplicateRequest) {
			return nil, ErrAlreadyPending
		}
		return nil, fmt.Errorf("create request: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	if s.notifier != nil {
		s.notifier.RequestCreated(ctx, req)
	}
	return &AdmissionOutcome{Needed: true, Request: req}, nil
}

// ListPending returns the page of pending requests for hosts to review.
func (s *Service) ListPending(ctx context.Context, eventID, requesterID uuid.UUID, page, pageSize int) (*models.RSVPPage, error) {
	if err := s.authorizeHost(ctx, eventID, requesterID); err != nil {
		return nil, err
	}
	return s.listPage(ctx, eventID, []models.RSVPStatus{models.RSVPStatusPending}, page, pageSize)
}

// ListProcessed returns the page of approved and rejected requests.
func (s *Service) ListProcessed(ctx context.Context, eventID, requesterID uuid.UUID, page, pageSize int) (*models.RSVPPage, error) {
	if err := s.authorizeHost(ctx, eventID, requesterID); err != nil {
		return nil, err
	}
	return s.listPage(ctx, eventID, []models.RSVPStatus{models.RSVPStatusApproved, models.RSVPStatusRejected}, page, pageSize)
}

// Decide applies a terminal decision to a pending request. Exactly one of
// any set of concurrent decisions on the same request succeeds; the rest
// fail with ErrNoPendingRequest.
func (s *Service) Decide(ctx context.Context, eventID, requestID uuid.UUID, action models.RSVPStatus, deciderID uuid.UUID) (*models.RSVPRequest, error) {
	if !action.Terminal() {
		return nil, ErrInvalidAction
	}
	if err := s.authorizeHost(ctx, eventID, deciderID); err != nil {
		return nil, err
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	req, err := s.store.FindPendingForUpdate(ctx, tx, eventID, requestID)
	if err != nil {
		return nil, fmt.Errorf("lock pending request: %w", err)
	}
	if req == nil {
		return nil, ErrNoPendingRequest
	}

	updated, err := s.store.TransitionStatus(ctx, tx, requestID, action, deciderID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("transition status: %w", err)
	}
	if updated == nil {
		return nil, ErrNoPendingRequest
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	if s.notifier != nil {
		s.notifier.RequestDecided(ctx, updated)
	}
	return updated, nil
}

func (s *Service) authorizeHost(ctx context.Context, eventID, userID uuid.UUID) error {
	ok, err := s.hosts.IsHost(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, events.ErrNotFound) {
			return ErrEventNotFound
		}
		return fmt.Errorf("host check: %w", err)
	}
	if !ok {
		return ErrNotHost
	}
	return nil
}

func (s *Service) listPage(ctx context.Context, eventID uuid.UUID, statuses []models.RSVPStatus, page, pageSize int) (*models.RSVPPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	items, total, err := s.store.ListByStatuses(ctx, eventID, statuses, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return &models.RSVPPage{
		Items:      items,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}
