package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/venue-system/cache"
	"github.com/Dosada05/venue-system/models"
	"github.com/Dosada05/venue-system/repositories"
)

var (
	ErrScheduleUpdateFailed = errors.New("failed to update schedule")
)

type ScheduleService interface {
	ListSchedule(ctx context.Context, eventID *string) ([]models.ScheduleItem, error)
	AddToSchedule(ctx context.Context, eventID string) (*models.ScheduleItem, error)
	RemoveFromSchedule(ctx context.Context, eventID string) error
	MoveScheduleItem(ctx context.Context, eventID string, direction models.MoveDirection) ([]models.ScheduleItem, error)
}

type scheduleService struct {
	tx        repositories.Transactor
	eventRepo repositories.EventRepository
	schedRepo repositories.ScheduleRepository
	fx        SideEffects
}

func NewScheduleService(
	tx repositories.Transactor,
	eventRepo repositories.EventRepository,
	schedRepo repositories.ScheduleRepository,
	fx SideEffects,
) ScheduleService {
	return &scheduleService{
		tx:        tx,
		eventRepo: eventRepo,
		schedRepo: schedRepo,
		fx:        fx,
	}
}

// ensureScheduled добавляет событие в конец расписания, если его там ещё нет.
// Второй результат сообщает, была ли создана запись.
func ensureScheduled(ctx context.Context, repo repositories.ScheduleRepository, exec repositories.SQLExecutor, eventID string) (*models.ScheduleItem, bool, error) {
	existing, err := repo.GetByEvent(ctx, exec, eventID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repositories.ErrScheduleItemNotFound) {
		return nil, false, fmt.Errorf("%w: %w", ErrScheduleUpdateFailed, err)
	}

	next, err := repo.NextOrder(ctx, exec)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrScheduleUpdateFailed, err)
	}
	item := &models.ScheduleItem{EventID: eventID, Order: next}
	if err := repo.Create(ctx, exec, item); err != nil {
		switch {
		case errors.Is(err, repositories.ErrScheduleItemExists):
			existing, getErr := repo.GetByEvent(ctx, exec, eventID)
			if getErr != nil {
				return nil, false, fmt.Errorf("%w: %w", ErrScheduleUpdateFailed, getErr)
			}
			return existing, false, nil
		case errors.Is(err, repositories.ErrScheduleEventInvalid):
			return nil, false, ErrEventNotFound
		default:
			return nil, false, fmt.Errorf("%w: %w", ErrScheduleUpdateFailed, err)
		}
	}
	return item, true, nil
}

// unschedule удаляет запись расписания события, отсутствие записи не ошибка.
func unschedule(ctx context.Context, repo repositories.ScheduleRepository, exec repositories.SQLExecutor, eventID string) (bool, error) {
	err := repo.DeleteByEvent(ctx, exec, eventID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repositories.ErrScheduleItemNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %w", ErrScheduleUpdateFailed, err)
	}
}

func (s *scheduleService) ListSchedule(ctx context.Context, eventID *string) ([]models.ScheduleItem, error) {
	key := "schedule:all"
	if eventID != nil {
		key = "schedule:event:" + *eventID
	}
	return cached(ctx, s.fx, key, []string{cache.TagSchedule, cache.TagEvents}, func() ([]models.ScheduleItem, error) {
		items, err := s.schedRepo.List(ctx, eventID)
		if err != nil {
			return nil, fmt.Errorf("failed to list schedule: %w", err)
		}
		if items == nil {
			items = []models.ScheduleItem{}
		}
		return items, nil
	})
}

func (s *scheduleService) AddToSchedule(ctx context.Context, eventID string) (*models.ScheduleItem, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return nil, newValidationError("eventId", "is required")
	}

	var item *models.ScheduleItem
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if _, err := s.eventRepo.GetForUpdate(ctx, exec, eventID); err != nil {
			if errors.Is(err, repositories.ErrEventNotFound) {
				return ErrEventNotFound
			}
			return fmt.Errorf("%w: %w", ErrScheduleUpdateFailed, err)
		}
		created, added, err := ensureScheduled(ctx, s.schedRepo, exec, eventID)
		if err != nil {
			return err
		}
		if !added {
			return ErrAlreadyScheduled
		}
		item = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.fx.invalidate(ctx, cache.TagSchedule)
	return item, nil
}

func (s *scheduleService) RemoveFromSchedule(ctx context.Context, eventID string) error {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return newValidationError("eventId", "is required")
	}
	removed, err := unschedule(ctx, s.schedRepo, nil, eventID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrScheduleItemNotFound
	}
	s.fx.invalidate(ctx, cache.TagSchedule)
	return nil
}

// MoveScheduleItem меняет order с соседним элементом; перенумерации нет.
func (s *scheduleService) MoveScheduleItem(ctx context.Context, eventID string, direction models.MoveDirection) ([]models.ScheduleItem, error) {
	if !direction.Valid() {
		return nil, newValidationError("direction", "must be up or down")
	}

	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		items, err := s.schedRepo.ListForUpdate(ctx, exec)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrScheduleUpdateFailed, err)
		}
		idx := -1
		for i := range items {
			if items[i].EventID == eventID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return ErrScheduleItemNotFound
		}
		neighbour := neighbourIndex(idx, len(items), direction)
		if neighbour < 0 {
			return ErrCannotMove
		}
		if err := s.schedRepo.SwapOrder(ctx, exec, &items[idx], &items[neighbour]); err != nil {
			return fmt.Errorf("%w: %w", ErrScheduleUpdateFailed, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.fx.invalidate(ctx, cache.TagSchedule)
	return s.schedRepo.List(ctx, nil)
}

func neighbourIndex(idx, n int, direction models.MoveDirection) int {
	switch direction {
	case models.MoveUp:
		if idx > 0 {
			return idx - 1
		}
	case models.MoveDown:
		if idx < n-1 {
			return idx + 1
		}
	}
	return -1
}
