package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/venue-system/models"
	"github.com/lib/pq"
)

var (
	ErrSignupNotFound     = errors.New("signup not found")
	ErrSignupEventInvalid = errors.New("signup event does not exist")
)

const signupColumns = `id, name, email, phone, event_id, notes, status, additional_participants, party_size, created_at, updated_at`

type SignupRepository interface {
	Create(ctx context.Context, exec SQLExecutor, signup *models.Signup) error
	GetByID(ctx context.Context, id string) (*models.Signup, error)
	List(ctx context.Context, eventID *string) ([]models.Signup, error)
	CountByEvent(ctx context.Context, exec SQLExecutor, eventID string) (int, error)
	CountsByEvent(ctx context.Context, eventIDs []string) (map[string]int, error)
	UpdateStatusNotes(ctx context.Context, id string, status models.SignupStatus, notes *string) (*models.Signup, error)
	Delete(ctx context.Context, id string) error
}

type postgresSignupRepository struct {
	db *sql.DB
}

func NewPostgresSignupRepository(db *sql.DB) SignupRepository {
	return &postgresSignupRepository{db: db}
}

func (r *postgresSignupRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func scanSignup(row rowScanner) (*models.Signup, error) {
	var s models.Signup
	var notes, additional sql.NullString
	err := row.Scan(&s.ID, &s.Name, &s.Email, &s.Phone, &s.EventID, &notes, &s.Status, &additional, &s.PartySize, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.Notes = stringPtr(notes)
	s.AdditionalParticipants = models.ParseAdditionalParticipants(stringPtr(additional))
	return &s, nil
}

func (r *postgresSignupRepository) Create(ctx context.Context, exec SQLExecutor, signup *models.Signup) error {
	executor := r.getExecutor(exec)
	if signup.ID == "" {
		signup.ID = newID()
	}
	query := `
		INSERT INTO signups (id, name, email, phone, event_id, notes, status, additional_participants, party_size, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`

	if signup.PartySize < 1 {
		signup.PartySize = 1 + models.NamedCount(signup.AdditionalParticipants)
	}
	_, err := executor.ExecContext(ctx, query,
		signup.ID,
		signup.Name,
		signup.Email,
		signup.Phone,
		signup.EventID,
		nullableString(signup.Notes),
		signup.Status,
		nullableString(models.EncodeAdditionalParticipants(signup.AdditionalParticipants)),
		signup.PartySize,
		signup.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrSignupEventInvalid
		}
		return fmt.Errorf("failed to create signup: %w", err)
	}
	signup.UpdatedAt = signup.CreatedAt
	return nil
}

func (r *postgresSignupRepository) GetByID(ctx context.Context, id string) (*models.Signup, error) {
	query := `SELECT ` + signupColumns + ` FROM signups WHERE id = $1`

	signup, err := scanSignup(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSignupNotFound
		}
		return nil, err
	}
	return signup, nil
}

func (r *postgresSignupRepository) List(ctx context.Context, eventID *string) ([]models.Signup, error) {
	query := `SELECT ` + signupColumns + ` FROM signups`
	var args []interface{}
	if eventID != nil {
		query += ` WHERE event_id = $1`
		args = append(args, *eventID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	signups := make([]models.Signup, 0)
	for rows.Next() {
		s, err := scanSignup(rows)
		if err != nil {
			return nil, err
		}
		signups = append(signups, *s)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return signups, nil
}

// CountByEvent возвращает число участников события: каждая запись плюс её именованные дополнительные участники.
func (r *postgresSignupRepository) CountByEvent(ctx context.Context, exec SQLExecutor, eventID string) (int, error) {
	executor := r.getExecutor(exec)
	var count int
	err := executor.QueryRowContext(ctx, `SELECT COALESCE(SUM(party_size), 0) FROM signups WHERE event_id = $1`, eventID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count signups for event %s: %w", eventID, err)
	}
	return count, nil
}

func (r *postgresSignupRepository) CountsByEvent(ctx context.Context, eventIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(eventIDs))
	if len(eventIDs) == 0 {
		return counts, nil
	}

	query := `SELECT event_id, SUM(party_size) FROM signups WHERE event_id = ANY($1) GROUP BY event_id`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(eventIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to count signups: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *postgresSignupRepository) UpdateStatusNotes(ctx context.Context, id string, status models.SignupStatus, notes *string) (*models.Signup, error) {
	query := `
		UPDATE signups SET status = $1, notes = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING ` + signupColumns

	signup, err := scanSignup(r.db.QueryRowContext(ctx, query, status, nullableString(notes), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSignupNotFound
		}
		return nil, err
	}
	return signup, nil
}

func (r *postgresSignupRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM signups WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrSignupNotFound)
}
