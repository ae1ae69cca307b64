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
	ErrSectionCreationFailed = errors.New("failed to create section")
	ErrSectionUpdateFailed   = errors.New("failed to update section")
	ErrSectionDeleteFailed   = errors.New("failed to delete section")
)

type SectionService interface {
	ListSections(ctx context.Context) ([]models.Section, error)
	CreateSection(ctx context.Context, input SectionInput) (*models.Section, error)
	UpdateSection(ctx context.Context, id string, input SectionInput) (*models.Section, error)
	DeleteSection(ctx context.Context, id string) error
	MoveSection(ctx context.Context, id string, direction models.MoveDirection) ([]models.Section, error)
}

type SectionInput struct {
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description"`
	Order       *int    `json:"order"`
}

type sectionService struct {
	tx          repositories.Transactor
	sectionRepo repositories.SectionRepository
	fx          SideEffects
}

func NewSectionService(tx repositories.Transactor, sectionRepo repositories.SectionRepository, fx SideEffects) SectionService {
	return &sectionService{
		tx:          tx,
		sectionRepo: sectionRepo,
		fx:          fx,
	}
}

func (s *sectionService) ListSections(ctx context.Context) ([]models.Section, error) {
	return cached(ctx, s.fx, "sections:all", []string{cache.TagSections}, func() ([]models.Section, error) {
		sections, err := s.sectionRepo.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list sections: %w", err)
		}
		if sections == nil {
			sections = []models.Section{}
		}
		return sections, nil
	})
}

func buildSection(input SectionInput) (*models.Section, error) {
	input.Title = strings.TrimSpace(input.Title)
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	section := &models.Section{
		Title:       input.Title,
		Description: trimPtr(input.Description),
	}
	if input.Order != nil {
		section.Order = *input.Order
	}
	return section, nil
}

func (s *sectionService) CreateSection(ctx context.Context, input SectionInput) (*models.Section, error) {
	section, err := buildSection(input)
	if err != nil {
		return nil, err
	}
	if err := s.sectionRepo.Create(ctx, section); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSectionCreationFailed, err)
	}
	s.fx.invalidate(ctx, cache.TagSections)
	return section, nil
}

func (s *sectionService) UpdateSection(ctx context.Context, id string, input SectionInput) (*models.Section, error) {
	section, err := buildSection(input)
	if err != nil {
		return nil, err
	}
	section.ID = id
	if err := s.sectionRepo.Update(ctx, section); err != nil {
		if errors.Is(err, repositories.ErrSectionNotFound) {
			return nil, ErrSectionNotFound
		}
		return nil, fmt.Errorf("%w (id: %s): %w", ErrSectionUpdateFailed, id, err)
	}
	s.fx.invalidate(ctx, cache.TagSections)
	return section, nil
}

// DeleteSection оставляет события раздела, обнуляя у них section_id.
func (s *sectionService) DeleteSection(ctx context.Context, id string) error {
	if err := s.sectionRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrSectionNotFound) {
			return ErrSectionNotFound
		}
		return fmt.Errorf("%w (id: %s): %w", ErrSectionDeleteFailed, id, err)
	}
	s.fx.invalidate(ctx, cache.TagSections, cache.TagEvents)
	return nil
}

func (s *sectionService) MoveSection(ctx context.Context, id string, direction models.MoveDirection) ([]models.Section, error) {
	if !direction.Valid() {
		return nil, newValidationError("direction", "must be up or down")
	}

	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		sections, err := s.sectionRepo.ListForUpdate(ctx, exec)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrSectionUpdateFailed, err)
		}
		idx := -1
		for i := range sections {
			if sections[i].ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return ErrSectionNotFound
		}
		neighbour := neighbourIndex(idx, len(sections), direction)
		if neighbour < 0 {
			return ErrCannotMove
		}
		if err := s.sectionRepo.SwapOrder(ctx, exec, &sections[idx], &sections[neighbour]); err != nil {
			if errors.Is(err, repositories.ErrSectionNotFound) {
				return ErrSectionNotFound
			}
			return fmt.Errorf("%w: %w", ErrSectionUpdateFailed, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.fx.invalidate(ctx, cache.TagSections)
	return s.sectionRepo.List(ctx)
}
