package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/venue-system/models"
)

type QuickLinkRepository interface {
	ListByEvent(ctx context.Context, eventID string) ([]models.QuickLink, error)
	// ReplaceForEvent удаляет все ссылки события и вставляет переданные.
	// Без exec открывает собственную транзакцию.
	ReplaceForEvent(ctx context.Context, exec SQLExecutor, eventID string, links []models.QuickLink) error
}

type postgresQuickLinkRepository struct {
	db *sql.DB
}

func NewPostgresQuickLinkRepository(db *sql.DB) QuickLinkRepository {
	return &postgresQuickLinkRepository{db: db}
}

func (r *postgresQuickLinkRepository) ListByEvent(ctx context.Context, eventID string) ([]models.QuickLink, error) {
	query := `SELECT id, event_id, title, url, "order" FROM quick_links WHERE event_id = $1 ORDER BY "order" ASC`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := make([]models.QuickLink, 0)
	for rows.Next() {
		var l models.QuickLink
		if err := rows.Scan(&l.ID, &l.EventID, &l.Title, &l.URL, &l.Order); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return links, nil
}

func (r *postgresQuickLinkRepository) ReplaceForEvent(ctx context.Context, exec SQLExecutor, eventID string, links []models.QuickLink) (err error) {
	if exec == nil {
		var tx *sql.Tx
		tx, err = r.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction for quick links: %w", err)
		}
		defer func() {
			if p := recover(); p != nil {
				_ = tx.Rollback()
				panic(p)
			} else if err != nil {
				_ = tx.Rollback()
			} else {
				err = tx.Commit()
			}
		}()
		exec = tx
	}

	if _, err = exec.ExecContext(ctx, `DELETE FROM quick_links WHERE event_id = $1`, eventID); err != nil {
		return fmt.Errorf("failed to delete quick links for event %s: %w", eventID, err)
	}

	query := `INSERT INTO quick_links (id, event_id, title, url, "order") VALUES ($1, $2, $3, $4, $5)`
	for i := range links {
		if links[i].ID == "" {
			links[i].ID = newID()
		}
		links[i].EventID = eventID
		if _, err = exec.ExecContext(ctx, query, links[i].ID, eventID, links[i].Title, links[i].URL, links[i].Order); err != nil {
			if isForeignKeyViolation(err) {
				return ErrEventNotFound
			}
			return fmt.Errorf("failed to insert quick link %d for event %s: %w", i, eventID, err)
		}
	}
	return nil
}
