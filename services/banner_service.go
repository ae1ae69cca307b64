package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/Dosada05/venue-system/cache"
	"github.com/Dosada05/venue-system/models"
	"github.com/Dosada05/venue-system/repositories"
)

type BannerService interface {
	GetBanner(ctx context.Context) (*models.MessageBanner, error)
	UpdateBanner(ctx context.Context, input BannerInput) (*models.MessageBanner, error)
}

type BannerInput struct {
	Message         string `json:"message"`
	IsActive        bool   `json:"isActive"`
	BackgroundColor string `json:"backgroundColor" validate:"required,hexcolor"`
	TextColor       string `json:"textColor" validate:"required,hexcolor"`
	ShowCloseButton *bool  `json:"showCloseButton"`
}

type bannerService struct {
	bannerRepo repositories.BannerRepository
	fx         SideEffects
}

func NewBannerService(bannerRepo repositories.BannerRepository, fx SideEffects) BannerService {
	return &bannerService{bannerRepo: bannerRepo, fx: fx}
}

func (s *bannerService) GetBanner(ctx context.Context) (*models.MessageBanner, error) {
	return cached(ctx, s.fx, "banner", []string{cache.TagBanner}, func() (*models.MessageBanner, error) {
		banner, err := s.bannerRepo.GetOrCreateDefault(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load banner: %w", err)
		}
		return banner, nil
	})
}

func (s *bannerService) UpdateBanner(ctx context.Context, input BannerInput) (*models.MessageBanner, error) {
	defaults := models.DefaultBanner()
	input.BackgroundColor = strings.TrimSpace(input.BackgroundColor)
	input.TextColor = strings.TrimSpace(input.TextColor)
	if input.BackgroundColor == "" {
		input.BackgroundColor = defaults.BackgroundColor
	}
	if input.TextColor == "" {
		input.TextColor = defaults.TextColor
	}
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	banner := &models.MessageBanner{
		ID:              models.DefaultBannerID,
		Message:         strings.TrimSpace(input.Message),
		IsActive:        input.IsActive,
		BackgroundColor: input.BackgroundColor,
		TextColor:       input.TextColor,
		ShowCloseButton: boolOr(input.ShowCloseButton, true),
	}
	if err := s.bannerRepo.Upsert(ctx, banner); err != nil {
		return nil, fmt.Errorf("failed to update banner: %w", err)
	}
	s.fx.invalidate(ctx, cache.TagBanner)
	return banner, nil
}
