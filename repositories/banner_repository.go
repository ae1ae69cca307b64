package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/venue-system/models"
)

type BannerRepository interface {
	// GetOrCreateDefault возвращает баннер, создавая строку по умолчанию при первом чтении.
	GetOrCreateDefault(ctx context.Context) (*models.MessageBanner, error)
	Upsert(ctx context.Context, banner *models.MessageBanner) error
}

type postgresBannerRepository struct {
	db *sql.DB
}

func NewPostgresBannerRepository(db *sql.DB) BannerRepository {
	return &postgresBannerRepository{db: db}
}

func (r *postgresBannerRepository) GetOrCreateDefault(ctx context.Context) (*models.MessageBanner, error) {
	def := models.DefaultBanner()
	insert := `
		INSERT INTO message_banners (id, message, is_active, background_color, text_color, show_close_button)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`

	_, err := r.db.ExecContext(ctx, insert,
		def.ID, def.Message, def.IsActive, def.BackgroundColor, def.TextColor, def.ShowCloseButton)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure default banner: %w", err)
	}

	query := `
		SELECT id, message, is_active, background_color, text_color, show_close_button, updated_at
		FROM message_banners WHERE id = $1`

	var b models.MessageBanner
	err = r.db.QueryRowContext(ctx, query, models.DefaultBannerID).Scan(
		&b.ID, &b.Message, &b.IsActive, &b.BackgroundColor, &b.TextColor, &b.ShowCloseButton, &b.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to load banner: %w", err)
	}
	return &b, nil
}

func (r *postgresBannerRepository) Upsert(ctx context.Context, banner *models.MessageBanner) error {
	banner.ID = models.DefaultBannerID
	query := `
		INSERT INTO message_banners (id, message, is_active, background_color, text_color, show_close_button, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (id) DO UPDATE SET
			message = EXCLUDED.message,
			is_active = EXCLUDED.is_active,
			background_color = EXCLUDED.background_color,
			text_color = EXCLUDED.text_color,
			show_close_button = EXCLUDED.show_close_button,
			updated_at = NOW()
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		banner.ID, banner.Message, banner.IsActive, banner.BackgroundColor, banner.TextColor, banner.ShowCloseButton,
	).Scan(&banner.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert banner: %w", err)
	}
	return nil
}
