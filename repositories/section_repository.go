package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/venue-system/models"
)

var (
	ErrSectionNotFound = errors.New("section not found")
)

type SectionRepository interface {
	Create(ctx context.Context, section *models.Section) error
	GetByID(ctx context.Context, id string) (*models.Section, error)
	List(ctx context.Context) ([]models.Section, error)
	// ListForUpdate блокирует все разделы до конца транзакции exec.
	ListForUpdate(ctx context.Context, exec SQLExecutor) ([]models.Section, error)
	Update(ctx context.Context, section *models.Section) error
	Delete(ctx context.Context, id string) error
	SwapOrder(ctx context.Context, exec SQLExecutor, a, b *models.Section) error
}

type postgresSectionRepository struct {
	db *sql.DB
}

func NewPostgresSectionRepository(db *sql.DB) SectionRepository {
	return &postgresSectionRepository{db: db}
}

func (r *postgresSectionRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresSectionRepository) Create(ctx context.Context, section *models.Section) error {
	if section.ID == "" {
		section.ID = newID()
	}
	query := `
		INSERT INTO sections (id, title, description, "order")
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		section.ID, section.Title, nullableString(section.Description), section.Order,
	).Scan(&section.CreatedAt, &section.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create section: %w", err)
	}
	return nil
}

func (r *postgresSectionRepository) GetByID(ctx context.Context, id string) (*models.Section, error) {
	query := `SELECT id, title, description, "order", created_at, updated_at FROM sections WHERE id = $1`

	var s models.Section
	var description sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.Title, &description, &s.Order, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSectionNotFound
		}
		return nil, err
	}
	s.Description = stringPtr(description)
	return &s, nil
}

func (r *postgresSectionRepository) List(ctx context.Context) ([]models.Section, error) {
	query := `
		SELECT id, title, description, "order", created_at, updated_at
		FROM sections
		ORDER BY "order" ASC, created_at ASC`

	return scanSections(r.db.QueryContext(ctx, query))
}

func (r *postgresSectionRepository) ListForUpdate(ctx context.Context, exec SQLExecutor) ([]models.Section, error) {
	query := `
		SELECT id, title, description, "order", created_at, updated_at
		FROM sections
		ORDER BY "order" ASC, created_at ASC
		FOR UPDATE`

	return scanSections(r.getExecutor(exec).QueryContext(ctx, query))
}

func scanSections(rows *sql.Rows, err error) ([]models.Section, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sections := make([]models.Section, 0)
	for rows.Next() {
		var s models.Section
		var description sql.NullString
		if err := rows.Scan(&s.ID, &s.Title, &description, &s.Order, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		s.Description = stringPtr(description)
		sections = append(sections, s)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return sections, nil
}

func (r *postgresSectionRepository) Update(ctx context.Context, section *models.Section) error {
	query := `
		UPDATE sections
		SET title = $1, description = $2, "order" = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		section.Title, nullableString(section.Description), section.Order, section.ID,
	).Scan(&section.CreatedAt, &section.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSectionNotFound
		}
		return err
	}
	return nil
}

func (r *postgresSectionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sections WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrSectionNotFound)
}

// SwapOrder меняет местами значения "order" у двух секций.
func (r *postgresSectionRepository) SwapOrder(ctx context.Context, exec SQLExecutor, a, b *models.Section) error {
	executor := r.getExecutor(exec)
	query := `UPDATE sections SET "order" = $1, updated_at = NOW() WHERE id = $2`

	result, err := executor.ExecContext(ctx, query, b.Order, a.ID)
	if err != nil {
		return err
	}
	if err := checkAffectedRows(result, ErrSectionNotFound); err != nil {
		return err
	}

	result, err = executor.ExecContext(ctx, query, a.Order, b.ID)
	if err != nil {
		return err
	}
	if err := checkAffectedRows(result, ErrSectionNotFound); err != nil {
		return err
	}

	a.Order, b.Order = b.Order, a.Order
	return nil
}
