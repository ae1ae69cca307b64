package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/venue-system/models"
)

var (
	ErrScheduleItemNotFound = errors.New("schedule item not found")
	ErrScheduleItemExists   = errors.New("event is already in the schedule")
	ErrScheduleEventInvalid = errors.New("schedule event does not exist")
)

type ScheduleRepository interface {
	// List возвращает элементы расписания вместе с их событиями.
	List(ctx context.Context, eventID *string) ([]models.ScheduleItem, error)
	// ListForUpdate блокирует все элементы расписания до конца транзакции exec.
	ListForUpdate(ctx context.Context, exec SQLExecutor) ([]models.ScheduleItem, error)
	GetByEvent(ctx context.Context, exec SQLExecutor, eventID string) (*models.ScheduleItem, error)
	NextOrder(ctx context.Context, exec SQLExecutor) (int, error)
	Create(ctx context.Context, exec SQLExecutor, item *models.ScheduleItem) error
	DeleteByEvent(ctx context.Context, exec SQLExecutor, eventID string) error
	SwapOrder(ctx context.Context, exec SQLExecutor, a, b *models.ScheduleItem) error
}

type postgresScheduleRepository struct {
	db *sql.DB
}

func NewPostgresScheduleRepository(db *sql.DB) ScheduleRepository {
	return &postgresScheduleRepository{db: db}
}

func (r *postgresScheduleRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresScheduleRepository) List(ctx context.Context, eventID *string) ([]models.ScheduleItem, error) {
	query := `
		SELECT s.id, s.event_id, s."order", s.created_at, s.updated_at,
			e.id, e.title, e.description, e.event_date, e.location, e.max_attendees, e.is_active, e.show_capacity,
			e.section_id, e.event_type, e.logo_type, e.allow_signups, e.participants_per_signup, e.featured_image,
			e.gallery_images, e.detailed_content, e.created_by, e.created_at, e.updated_at
		FROM schedule_items s
		JOIN events e ON e.id = s.event_id`
	var args []interface{}
	if eventID != nil {
		query += ` WHERE s.event_id = $1`
		args = append(args, *eventID)
	}
	query += ` ORDER BY s."order" ASC, s.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]models.ScheduleItem, 0)
	for rows.Next() {
		var item models.ScheduleItem
		event, err := scanEvent(scheduleRowScanner{rows: rows, item: &item})
		if err != nil {
			return nil, err
		}
		item.Event = event
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *postgresScheduleRepository) ListForUpdate(ctx context.Context, exec SQLExecutor) ([]models.ScheduleItem, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, event_id, "order", created_at, updated_at
		FROM schedule_items
		ORDER BY "order" ASC, created_at ASC
		FOR UPDATE`

	rows, err := executor.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]models.ScheduleItem, 0)
	for rows.Next() {
		var item models.ScheduleItem
		if err := rows.Scan(&item.ID, &item.EventID, &item.Order, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// scheduleRowScanner отдаёт первые пять колонок элементу расписания, остальные событию.
type scheduleRowScanner struct {
	rows *sql.Rows
	item *models.ScheduleItem
}

func (s scheduleRowScanner) Scan(dest ...interface{}) error {
	all := append([]interface{}{&s.item.ID, &s.item.EventID, &s.item.Order, &s.item.CreatedAt, &s.item.UpdatedAt}, dest...)
	return s.rows.Scan(all...)
}

func (r *postgresScheduleRepository) GetByEvent(ctx context.Context, exec SQLExecutor, eventID string) (*models.ScheduleItem, error) {
	executor := r.getExecutor(exec)
	query := `SELECT id, event_id, "order", created_at, updated_at FROM schedule_items WHERE event_id = $1`

	var item models.ScheduleItem
	err := executor.QueryRowContext(ctx, query, eventID).Scan(&item.ID, &item.EventID, &item.Order, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrScheduleItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

// NextOrder возвращает max(order)+1 или 0 для пустого расписания.
func (r *postgresScheduleRepository) NextOrder(ctx context.Context, exec SQLExecutor) (int, error) {
	executor := r.getExecutor(exec)
	var next int
	err := executor.QueryRowContext(ctx, `SELECT COALESCE(MAX("order"), -1) + 1 FROM schedule_items`).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to compute next schedule order: %w", err)
	}
	return next, nil
}

func (r *postgresScheduleRepository) Create(ctx context.Context, exec SQLExecutor, item *models.ScheduleItem) error {
	executor := r.getExecutor(exec)
	if item.ID == "" {
		item.ID = newID()
	}
	query := `
		INSERT INTO schedule_items (id, event_id, "order")
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`

	err := executor.QueryRowContext(ctx, query, item.ID, item.EventID, item.Order).Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return ErrScheduleItemExists
		case isForeignKeyViolation(err):
			return ErrScheduleEventInvalid
		}
		return fmt.Errorf("failed to create schedule item: %w", err)
	}
	return nil
}

func (r *postgresScheduleRepository) DeleteByEvent(ctx context.Context, exec SQLExecutor, eventID string) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `DELETE FROM schedule_items WHERE event_id = $1`, eventID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrScheduleItemNotFound)
}

func (r *postgresScheduleRepository) SwapOrder(ctx context.Context, exec SQLExecutor, a, b *models.ScheduleItem) error {
	executor := r.getExecutor(exec)
	query := `UPDATE schedule_items SET "order" = $1, updated_at = NOW() WHERE id = $2`

	result, err := executor.ExecContext(ctx, query, b.Order, a.ID)
	if err != nil {
		return err
	}
	if err := checkAffectedRows(result, ErrScheduleItemNotFound); err != nil {
		return err
	}

	result, err = executor.ExecContext(ctx, query, a.Order, b.ID)
	if err != nil {
		return err
	}
	if err := checkAffectedRows(result, ErrScheduleItemNotFound); err != nil {
		return err
	}

	a.Order, b.Order = b.Order, a.Order
	return nil
}
