package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/venue-system/models"
)

var (
	ErrEventNotFound       = errors.New("event not found")
	ErrEventSectionInvalid = errors.New("event section does not exist")
)

const eventColumns = `
	id, title, description, event_date, location, max_attendees, is_active, show_capacity,
	section_id, event_type, logo_type, allow_signups, participants_per_signup, featured_image,
	gallery_images, detailed_content, created_by, created_at, updated_at`

type EventRepository interface {
	Create(ctx context.Context, exec SQLExecutor, event *models.Event) error
	GetByID(ctx context.Context, id string) (*models.Event, error)
	// GetForUpdate блокирует строку события до конца транзакции.
	GetForUpdate(ctx context.Context, exec SQLExecutor, id string) (*models.Event, error)
	List(ctx context.Context, sectionID *string) ([]models.Event, error)
	Update(ctx context.Context, exec SQLExecutor, event *models.Event) error
	Delete(ctx context.Context, id string) error
}

type postgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) EventRepository {
	return &postgresEventRepository{db: db}
}

func (r *postgresEventRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner) (*models.Event, error) {
	var (
		e               models.Event
		description     sql.NullString
		eventDate       sql.NullTime
		location        sql.NullString
		maxAttendees    sql.NullInt64
		sectionID       sql.NullString
		featuredImage   sql.NullString
		galleryImages   sql.NullString
		detailedContent sql.NullString
	)
	err := row.Scan(
		&e.ID, &e.Title, &description, &eventDate, &location, &maxAttendees, &e.IsActive, &e.ShowCapacity,
		&sectionID, &e.EventType, &e.LogoType, &e.AllowSignups, &e.ParticipantsPerSignup, &featuredImage,
		&galleryImages, &detailedContent, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Description = stringPtr(description)
	if eventDate.Valid {
		t := eventDate.Time
		e.EventDate = &t
	}
	e.Location = stringPtr(location)
	if maxAttendees.Valid {
		m := int(maxAttendees.Int64)
		e.MaxAttendees = &m
	}
	e.SectionID = stringPtr(sectionID)
	e.FeaturedImage = stringPtr(featuredImage)
	e.GalleryImages = models.ParseGalleryImages(stringPtr(galleryImages))
	e.DetailedContent = stringPtr(detailedContent)
	return &e, nil
}

func eventArgs(e *models.Event) []interface{} {
	var eventDate sql.NullTime
	if e.EventDate != nil {
		eventDate = sql.NullTime{Time: *e.EventDate, Valid: true}
	}
	var maxAttendees sql.NullInt64
	if e.MaxAttendees != nil {
		maxAttendees = sql.NullInt64{Int64: int64(*e.MaxAttendees), Valid: true}
	}
	return []interface{}{
		e.Title,
		nullableString(e.Description),
		eventDate,
		nullableString(e.Location),
		maxAttendees,
		e.IsActive,
		e.ShowCapacity,
		nullableString(e.SectionID),
		e.EventType,
		e.LogoType,
		e.AllowSignups,
		e.ParticipantsPerSignup,
		nullableString(e.FeaturedImage),
		nullableString(models.EncodeGalleryImages(e.GalleryImages)),
		nullableString(e.DetailedContent),
	}
}

func (r *postgresEventRepository) Create(ctx context.Context, exec SQLExecutor, event *models.Event) error {
	executor := r.getExecutor(exec)
	if event.ID == "" {
		event.ID = newID()
	}
	query := `
		INSERT INTO events (
			title, description, event_date, location, max_attendees, is_active, show_capacity,
			section_id, event_type, logo_type, allow_signups, participants_per_signup, featured_image,
			gallery_images, detailed_content, id, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING created_at, updated_at`

	args := append(eventArgs(event), event.ID, event.CreatedBy)
	err := executor.QueryRowContext(ctx, query, args...).Scan(&event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrEventSectionInvalid
		}
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

func (r *postgresEventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	event, err := scanEvent(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}

func (r *postgresEventRepository) GetForUpdate(ctx context.Context, exec SQLExecutor, id string) (*models.Event, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 FOR UPDATE`

	event, err := scanEvent(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}

func (r *postgresEventRepository) List(ctx context.Context, sectionID *string) ([]models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events`
	var args []interface{}
	if sectionID != nil {
		query += ` WHERE section_id = $1`
		args = append(args, *sectionID)
	}
	query += ` ORDER BY event_date ASC NULLS LAST, created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]models.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *event)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func (r *postgresEventRepository) Update(ctx context.Context, exec SQLExecutor, event *models.Event) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE events SET
			title = $1, description = $2, event_date = $3, location = $4, max_attendees = $5,
			is_active = $6, show_capacity = $7, section_id = $8, event_type = $9, logo_type = $10,
			allow_signups = $11, participants_per_signup = $12, featured_image = $13,
			gallery_images = $14, detailed_content = $15, updated_at = NOW()
		WHERE id = $16
		RETURNING created_by, created_at, updated_at`

	args := append(eventArgs(event), event.ID)
	err := executor.QueryRowContext(ctx, query, args...).Scan(&event.CreatedBy, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrEventNotFound
		}
		if isForeignKeyViolation(err) {
			return ErrEventSectionInvalid
		}
		return fmt.Errorf("failed to update event: %w", err)
	}
	return nil
}

// Delete удаляет событие; записи, ссылки и расписание удаляются каскадно.
func (r *postgresEventRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrEventNotFound)
}
