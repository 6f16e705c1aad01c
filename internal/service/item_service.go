package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	apperrors "workshopbuddy/internal/errors"
	"workshopbuddy/internal/model"
	"workshopbuddy/internal/repository"
)

// CreateItemInput carries the fields of a new item. Items start without links.
type CreateItemInput struct {
	Name        string
	Description *string
	Notes       *string
}

// ItemPatch is a partial update of an item's own fields.
type ItemPatch struct {
	Name        model.Optional[string]
	Description model.Optional[string]
	Notes       model.Optional[string]
}

// ItemService manages items and their material links.
type ItemService interface {
	List(ctx context.Context, userID uint) ([]model.Item, error)
	Get(ctx context.Context, userID, id uint) (*model.Item, error)
	Create(ctx context.Context, userID uint, in CreateItemInput) (*model.Item, error)
	Update(ctx context.Context, userID, id uint, patch ItemPatch) (*model.Item, error)
	Delete(ctx context.Context, userID, id uint) error
	LinkMaterial(ctx context.Context, userID, itemID, materialID uint, requiredQuantity int) (*model.Item, error)
	UnlinkMaterial(ctx context.Context, userID, itemID, materialID uint) error
}

type itemService struct {
	items     repository.ItemRepository
	materials repository.StockRepository
}

// NewItemService creates a new item service. materials must be the materials collection.
func NewItemService(items repository.ItemRepository, materials repository.StockRepository) ItemService {
	return &itemService{items: items, materials: materials}
}

func (s *itemService) List(ctx context.Context, userID uint) ([]model.Item, error) {
	items, err := s.items.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

func (s *itemService) Get(ctx context.Context, userID, id uint) (*model.Item, error) {
	item, err := s.items.FindByID(ctx, userID, id)
	if err != nil {
		return nil, itemErr("get item", err)
	}
	return item, nil
}

func (s *itemService) Create(ctx context.Context, userID uint, in CreateItemInput) (*model.Item, error) {
	if err := requireName("name", in.Name); err != nil {
		return nil, err
	}

	item := &model.Item{
		UserID:      userID,
		Name:        in.Name,
		Description: in.Description,
		Notes:       in.Notes,
		Materials:   []model.ItemMaterial{},
	}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	return item, nil
}

// Update applies the patch and returns the item with its links resolved.
func (s *itemService) Update(ctx context.Context, userID, id uint, patch ItemPatch) (*model.Item, error) {
	item, err := s.items.FindByID(ctx, userID, id)
	if err != nil {
		return nil, itemErr("get item", err)
	}

	if err := patchName("name", patch.Name, &item.Name); err != nil {
		return nil, err
	}
	patchText(patch.Description, &item.Description)
	patchText(patch.Notes, &item.Notes)

	if err := s.items.Update(ctx, item); err != nil {
		return nil, itemErr("update item", err)
	}
	return s.Get(ctx, userID, id)
}

func (s *itemService) Delete(ctx context.Context, userID, id uint) error {
	if err := s.items.Delete(ctx, userID, id); err != nil {
		return itemErr("delete item", err)
	}
	return nil
}

// LinkMaterial checks item ownership, then material ownership, then the
// existing link, and only then inserts. A concurrent duplicate insert is
// caught by the composite primary key.
func (s *itemService) LinkMaterial(ctx context.Context, userID, itemID, materialID uint, requiredQuantity int) (*model.Item, error) {
	if requiredQuantity < 1 {
		return nil, apperrors.NewValidationError("requiredQuantity", "must be at least 1")
	}

	if _, err := s.items.FindByID(ctx, userID, itemID); err != nil {
		return nil, itemErr("get item", err)
	}

	if _, err := s.materials.FindByID(ctx, userID, materialID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrMaterialNotFound
		}
		return nil, fmt.Errorf("get material: %w", err)
	}

	_, err := s.items.FindLink(ctx, itemID, materialID)
	if err == nil {
		return nil, apperrors.ErrMaterialAlreadyLinked
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find link: %w", err)
	}

	link := &model.ItemMaterial{
		ItemID:           itemID,
		MaterialID:       materialID,
		RequiredQuantity: requiredQuantity,
	}
	if err := s.items.CreateLink(ctx, link); err != nil {
		switch {
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return nil, apperrors.ErrMaterialAlreadyLinked
		case errors.Is(err, gorm.ErrForeignKeyViolated):
			// Material or item was deleted between the checks and the insert.
			return nil, apperrors.ErrMaterialNotFound
		default:
			return nil, fmt.Errorf("create link: %w", err)
		}
	}

	return s.Get(ctx, userID, itemID)
}

func (s *itemService) UnlinkMaterial(ctx context.Context, userID, itemID, materialID uint) error {
	if _, err := s.items.FindByID(ctx, userID, itemID); err != nil {
		return itemErr("get item", err)
	}

	if err := s.items.DeleteLink(ctx, itemID, materialID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrLinkNotFound
		}
		return fmt.Errorf("delete link: %w", err)
	}
	return nil
}

func itemErr(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrItemNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
