package service

import (
	"context"
	"fmt"

	"github.com/diagnosis/luxsuv-rentals/pkg/apperror"
	"github.com/diagnosis/luxsuv-rentals/pkg/logger"
	"github.com/diagnosis/luxsuv-rentals/pkg/utils"
	"github.com/diagnosis/luxsuv-rentals/services/bookings/internal/domain"
	"github.com/diagnosis/luxsuv-rentals/services/bookings/internal/repository"
)

var ErrInvalidAvailability = apperror.Validation("INVALID_AVAILABILITY", "availability descriptor is not valid")

type CatalogService interface {
	CreateItem(ctx context.Context, req *domain.CreateItemRequest) (*domain.Item, error)
	UpdateItem(ctx context.Context, id int64, req *domain.UpdateItemRequest) (*domain.Item, error)
	GetItem(ctx context.Context, id int64, includeHidden bool) (*domain.Item, error)
	ListItems(ctx context.Context, f domain.ItemFilter) ([]domain.Item, error)
	UnlistItem(ctx context.Context, id int64) (*domain.Item, error)
	ActivateItem(ctx context.Context, id int64) (*domain.Item, error)
	EndItem(ctx context.Context, id int64) (*domain.Item, error)
	DeleteItem(ctx context.Context, id int64) error
}

type catalogService struct {
	itemRepo repository.ItemRepository
}

func NewCatalogService(itemRepo repository.ItemRepository) CatalogService {
	return &catalogService{itemRepo: itemRepo}
}

func validAvailability(a domain.Availability) error {
	if err := a.Validate(); err != nil {
		return ErrInvalidAvailability.WithMessage(err.Error())
	}
	return nil
}

func (s *catalogService) CreateItem(ctx context.Context, req *domain.CreateItemRequest) (*domain.Item, error) {
	item := &domain.Item{
		Kind:         req.Kind,
		Title:        utils.NormalizeString(req.Title),
		Description:  req.Description,
		PricePerUnit: *req.PricePerUnit,
		Capacity:     req.Capacity,
		Availability: domain.AlwaysOpen(),
		Status:       domain.ItemActive,
	}
	if item.Kind == "" {
		item.Kind = domain.KindService
	}
	if item.Capacity == 0 {
		item.Capacity = 1
	}
	if req.Availability != nil {
		if err := validAvailability(*req.Availability); err != nil {
			return nil, err
		}
		item.Availability = *req.Availability
	}

	created, err := s.itemRepo.Create(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}
	logger.InfoContext(ctx, "Service created", "item_id", created.ID, "kind", created.Kind, "capacity", created.Capacity)
	return created, nil
}

func (s *catalogService) UpdateItem(ctx context.Context, id int64, req *domain.UpdateItemRequest) (*domain.Item, error) {
	item, err := s.GetItem(ctx, id, true)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		item.Title = utils.NormalizeString(*req.Title)
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.PricePerUnit != nil {
		item.PricePerUnit = *req.PricePerUnit
	}
	if req.Capacity != nil {
		item.Capacity = *req.Capacity
	}
	if req.Availability != nil {
		if err := validAvailability(*req.Availability); err != nil {
			return nil, err
		}
		item.Availability = *req.Availability
	}

	updated, err := s.itemRepo.Update(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("failed to update service: %w", err)
	}
	if updated == nil {
		return nil, ErrItemNotFound
	}
	return updated, nil
}

// GetItem hides unlisted, ended and deleted items unless includeHidden is set.
// Deleted items are never returned.
func (s *catalogService) GetItem(ctx context.Context, id int64, includeHidden bool) (*domain.Item, error) {
	item, err := s.itemRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	if item == nil || item.IsDeleted {
		return nil, ErrItemNotFound
	}
	if !includeHidden && item.Status != domain.ItemActive {
		return nil, ErrItemNotFound
	}
	return item, nil
}

func (s *catalogService) ListItems(ctx context.Context, f domain.ItemFilter) ([]domain.Item, error) {
	items, err := s.itemRepo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return items, nil
}

func (s *catalogService) UnlistItem(ctx context.Context, id int64) (*domain.Item, error) {
	return s.setStatus(ctx, id, domain.ItemUnlisted)
}

func (s *catalogService) ActivateItem(ctx context.Context, id int64) (*domain.Item, error) {
	return s.setStatus(ctx, id, domain.ItemActive)
}

func (s *catalogService) EndItem(ctx context.Context, id int64) (*domain.Item, error) {
	return s.setStatus(ctx, id, domain.ItemEnded)
}

func (s *catalogService) setStatus(ctx context.Context, id int64, status domain.ItemStatus) (*domain.Item, error) {
	item, err := s.itemRepo.SetStatus(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("failed to update service status: %w", err)
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	logger.InfoContext(ctx, "Service status changed", "item_id", id, "status", status)
	return item, nil
}

func (s *catalogService) DeleteItem(ctx context.Context, id int64) error {
	ok, err := s.itemRepo.SoftDelete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete service: %w", err)
	}
	if !ok {
		return ErrItemNotFound
	}
	logger.InfoContext(ctx, "Service deleted", "item_id", id)
	return nil
}
