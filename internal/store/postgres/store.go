package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/scriptureforge/draft-audit/internal/domain"
	"github.com/scriptureforge/draft-audit/internal/projects"
)

// Store implements service.EventSource and projects.Store using
// PostgreSQL.
type Store struct {
	db        *sql.DB
	opTimeout time.Duration
}

// New creates a new PostgreSQL store with the given database
// connection. opTimeout bounds each database operation; zero disables
// the bound.
func New(db *sql.DB, opTimeout time.Duration) *Store {
	return &Store{db: db, opTimeout: opTimeout}
}

func (s *Store) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

// QueryEvents returns events of the given types within the inclusive
// time range, optionally filtered to one project, oldest first, capped
// at limit rows. Payloads are decoded leniently: a malformed payload
// yields an event with an empty payload, never an error.
func (s *Store) QueryEvents(ctx context.Context, types []domain.EventType, projectID string, start, end time.Time, limit int) ([]domain.Event, error) {
	typeStrings := make([]string, len(types))
	for i, t := range types {
		typeStrings[i] = string(t)
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, queryEvents,
		pq.Array(typeStrings), start, end, projectID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var (
			event     domain.Event
			eventType string
			project   sql.NullString
			userID    uuid.NullUUID
			payload   []byte
			result    sql.NullString
			exception sql.NullString
		)

		err := rows.Scan(
			&event.ID,
			&eventType,
			&event.TimeStamp,
			&project,
			&userID,
			&payload,
			&result,
			&exception,
		)
		if err != nil {
			return nil, err
		}

		event.EventType = domain.EventType(eventType)
		if project.Valid {
			event.ProjectID = project.String
		}
		if userID.Valid {
			id := userID.UUID
			event.UserID = &id
		}
		if result.Valid {
			r := result.String
			event.Result = &r
		}
		if exception.Valid {
			e := exception.String
			event.Exception = &e
		}
		event.Payload = domain.ParsePayload(payload)

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

// GetProjectName returns the display name for a project, or
// projects.ErrProjectNotFound when the project was deleted.
func (s *Store) GetProjectName(ctx context.Context, projectID string) (string, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	var name string
	err := s.db.QueryRowContext(ctx, queryProjectName, projectID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", projects.ErrProjectNotFound
	}
	if err != nil {
		return "", err
	}
	return name, nil
}
