package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatherhall/backend/internal/models"
)

// ErrNotFound is returned when an event does not exist.
var ErrNotFound = errors.New("event not found")

// Repository handles event and participant persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an events repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const eventColumns = `id, title, COALESCE(description,''), COALESCE(location,''), starts_at,
	COALESCE(ends_at, starts_at), created_by, approval_required, capacity, created_at, updated_at`

func scanEvent(row pgx.Row) (*models.Event, error) {
	var e models.Event
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Location, &e.StartsAt,
		&e.EndsAt, &e.CreatedBy, &e.ApprovalRequired, &e.Capacity, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// Create inserts a new event and its creator's host participant row in one
// transaction, so an event can never exist without a host.
func (r *Repository) Create(ctx context.Context, e *models.Event) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const q = `INSERT INTO events (id, title, description, location, starts_at, ends_at, created_by, approval_required, capacity)
		VALUES (gen_random_uuid(), $1, NULLIF($2,''), NULLIF($3,''), $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`
	err = tx.QueryRow(ctx, q, e.Title, e.Description, e.Location, e.StartsAt, e.EndsAt, e.CreatedBy, e.ApprovalRequired, e.Capacity).
		Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return err
	}

	const pq = `INSERT INTO event_participants (id, event_id, user_id, role)
		VALUES (gen_random_uuid(), $1, $2, $3)`
	if _, err := tx.Exec(ctx, pq, e.ID, e.CreatedBy, models.ParticipantRoleHost); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GetByID returns an event by ID, or ErrNotFound.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	return scanEvent(r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
}

// List returns all events ordered by start time descending.
func (r *Repository) List(ctx context.Context) ([]models.Event, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+eventColumns+` FROM events ORDER BY starts_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *e)
	}
	return list, rows.Err()
}

// AddParticipant adds or revives a participant role row on an event.
func (r *Repository) AddParticipant(ctx context.Context, eventID, userID uuid.UUID, role string) error {
	const q = `INSERT INTO event_participants (id, event_id, user_id, role)
		VALUES (gen_random_uuid(), $1, $2, $3)
		ON CONFLICT (event_id, user_id) DO UPDATE SET role = EXCLUDED.role, deleted_at = NULL`
	_, err := r.pool.Exec(ctx, q, eventID, userID, role)
	return err
}

// IsHost returns true if the user created the event or holds a non-deleted
// host-class participant role. Recomputed on every call, never cached.
func (r *Repository) IsHost(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	e, err := r.GetByID(ctx, eventID)
	if err != nil {
		return false, err
	}
	if e.CreatedBy == userID {
		return true, nil
	}
	const q = `SELECT 1 FROM event_participants
		WHERE event_id = $1 AND user_id = $2 AND role IN ($3, $4) AND deleted_at IS NULL`
	var exists int
	err = r.pool.QueryRow(ctx, q, eventID, userID, models.ParticipantRoleHost, models.ParticipantRoleCohost).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
