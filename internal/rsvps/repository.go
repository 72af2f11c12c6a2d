package rsvps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatherhall/backend/internal/models"
)

// ErrDuplicateRequest is returned by CreateRequest when the partial unique
// index rejects a second live request for the same event+user.
var ErrDuplicateRequest = errors.New("duplicate join request")

// Tx is the ambient transaction handle threaded through store primitives.
// The admission workflow opens it and commits or rolls back on every exit
// path; the store never does either.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Store is the data-access boundary for join requests.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
	// FindActiveRequest returns the non-deleted pending or approved request
	// for event+user, or nil when none exists.
	FindActiveRequest(ctx context.Context, tx Tx, eventID, userID uuid.UUID) (*models.RSVPRequest, error)
	// CreateRequest inserts a fresh pending request.
	CreateRequest(ctx context.Context, tx Tx, eventID, userID uuid.UUID) (*models.RSVPRequest, error)
	// FindPendingForUpdate locks and returns the pending request matching
	// id+event, or nil when no such row exists (unknown, decided, deleted,
	// or wrong event).
	FindPendingForUpdate(ctx context.Context, tx Tx, eventID, requestID uuid.UUID) (*models.RSVPRequest, error)
	// TransitionStatus applies the terminal decision to a request and
	// returns the refreshed row.
	TransitionStatus(ctx context.Context, tx Tx, requestID uuid.UUID, status models.RSVPStatus, deciderID uuid.UUID, now time.Time) (*models.RSVPRequest, error)
	// ListByStatuses returns one page of non-deleted requests in the given
	// statuses with the requester profile joined, plus the total count.
	ListByStatuses(ctx context.Context, eventID uuid.UUID, statuses []models.RSVPStatus, page, pageSize int) ([]models.RSVPRequestWithRequester, int, error)
}

// PostgresStore implements Store on pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed join request store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

type pgTx struct {
	pgx.Tx
}

func asPgTx(tx Tx) (pgx.Tx, error) {
	t, ok := tx.(pgTx)
	if !ok {
		return nil, fmt.Errorf("unexpected transaction handle %T", tx)
	}
	return t.Tx, nil
}

// Begin opens a transaction. The caller owns commit and rollback.
func (s *PostgresStore) Begin(ctx context.Context) (Tx, error) {
	t, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return pgTx{t}, nil
}

const requestColumns = `id, event_id, created_by, status, created_at, responded_at, decided_by, deleted_at`

func scanRequest(row pgx.Row) (*models.RSVPRequest, error) {
	var req models.RSVPRequest
	err := row.Scan(&req.ID, &req.EventID, &req.CreatedBy, &req.Status,
		&req.CreatedAt, &req.RespondedAt, &req.DecidedBy, &req.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

// FindActiveRequest returns the live (pending or approved) request for event+user.
func (s *PostgresStore) FindActiveRequest(ctx context.Context, tx Tx, eventID, userID uuid.UUID) (*models.RSVPRequest, error) {
	t, err := asPgTx(tx)
	if err != nil {
		return nil, err
	}
	const q = `SELECT ` + requestColumns + ` FROM rsvp_requests
		WHERE event_id = $1 AND created_by = $2 AND status IN ($3, $4) AND deleted_at IS NULL`
	return scanRequest(t.QueryRow(ctx, q, eventID, userID, models.RSVPStatusPending, models.RSVPStatusApproved))
}

// CreateRequest inserts a fresh pending request for event+user.
func (s *PostgresStore) CreateRequest(ctx context.Context, tx Tx, eventID, userID uuid.UUID) (*models.RSVPRequest, error) {
	t, err := asPgTx(tx)
	if err != nil {
		return nil, err
	}
	const q = `INSERT INTO rsvp_requests (id, event_id, created_by, status)
		VALUES (gen_random_uuid(), $1, $2, $3)
		RETURNING ` + requestColumns
	req, err := scanRequest(t.QueryRow(ctx, q, eventID, userID, models.RSVPStatusPending))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateRequest
		}
		return nil, err
	}
	return req, nil
}

// FindPendingForUpdate acquires a row lock on the pending request so a
// concurrent decision blocks until this transaction finishes.
func (s *PostgresStore) FindPendingForUpdate(ctx context.Context, tx Tx, eventID, requestID uuid.UUID) (*models.RSVPRequest, error) {
	t, err := asPgTx(tx)
	if err != nil {
		return nil, err
	}
	const q = `SELECT ` + requestColumns + ` FROM rsvp_requests
		WHERE id = $1 AND event_id = $2 AND status = $3 AND deleted_at IS NULL
		FOR UPDATE`
	return scanRequest(t.QueryRow(ctx, q, requestID, eventID, models.RSVPStatusPending))
}

// TransitionStatus applies the decision and returns the refreshed row.
func (s *PostgresStore) TransitionStatus(ctx context.Context, tx Tx, requestID uuid.UUID, status models.RSVPStatus, deciderID uuid.UUID, now time.Time) (*models.RSVPRequest, error) {
	t, err := asPgTx(tx)
	if err != nil {
		return nil, err
	}
	const q = `UPDATE rsvp_requests
		SET status = $2, responded_at = $3, decided_by = $4
		WHERE id = $1 AND status = $5
		RETURNING ` + requestColumns
	return scanRequest(t.QueryRow(ctx, q, requestID, status, now, deciderID, models.RSVPStatusPending))
}

// ListByStatuses returns one page of requests with requester profiles.
// Pending pages order by creation time; processed pages order by response
// time with creation time as tie-break.
func (s *PostgresStore) ListByStatuses(ctx context.Context, eventID uuid.UUID, statuses []models.RSVPStatus, page, pageSize int) ([]models.RSVPRequestWithRequester, int, error) {
	statusStrs := make([]string, len(statuses))
	pendingOnly := true
	for i, st := range statuses {
		statusStrs[i] = string(st)
		if st != models.RSVPStatusPending {
			pendingOnly = false
		}
	}

	const countQ = `SELECT COUNT(*) FROM rsvp_requests
		WHERE event_id = $1 AND status = ANY($2) AND deleted_at IS NULL`
	var total int
	if err := s.pool.QueryRow(ctx, countQ, eventID, statusStrs).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count requests: %w", err)
	}

	orderBy := `r.responded_at DESC NULLS LAST, r.created_at DESC`
	if pendingOnly {
		orderBy = `r.created_at DESC`
	}
	q := `SELECT r.id, r.event_id, r.created_by, r.status, r.created_at, r.responded_at, r.decided_by, r.deleted_at,
			u.id, u.email, u.full_name, COALESCE(u.phone,''), COALESCE(u.avatar_url,''), u.points, u.events_attended, u.created_at
		FROM rsvp_requests r
		JOIN users u ON u.id = r.created_by
		WHERE r.event_id = $1 AND r.status = ANY($2) AND r.deleted_at IS NULL
		ORDER BY ` + orderBy + `
		LIMIT $3 OFFSET $4`
	rows, err := s.pool.Query(ctx, q, eventID, statusStrs, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	var list []models.RSVPRequestWithRequester
	for rows.Next() {
		var item models.RSVPRequestWithRequester
		if err := rows.Scan(&item.ID, &item.EventID, &item.CreatedBy, &item.Status,
			&item.CreatedAt, &item.RespondedAt, &item.DecidedBy, &item.DeletedAt,
			&item.Requester.ID, &item.Requester.Email, &item.Requester.FullName,
			&item.Requester.Phone, &item.Requester.AvatarURL,
			&item.Requester.Points, &item.Requester.EventsAttended, &item.Requester.CreatedAt); err != nil {
			return nil, 0, err
		}
		list = append(list, item)
	}
	return list, total, rows.Err()
}
