package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"workshopbuddy/internal/model"
)

// ItemRepository defines item and item/material link persistence operations.
type ItemRepository interface {
	List(ctx context.Context, userID uint) ([]model.Item, error)
	FindByID(ctx context.Context, userID, id uint) (*model.Item, error)
	Create(ctx context.Context, item *model.Item) error
	Update(ctx context.Context, item *model.Item) error
	Delete(ctx context.Context, userID, id uint) error

	FindLink(ctx context.Context, itemID, materialID uint) (*model.ItemMaterial, error)
	CreateLink(ctx context.Context, link *model.ItemMaterial) error
	DeleteLink(ctx context.Context, itemID, materialID uint) error
}

type itemRepository struct {
	db *gorm.DB
}

// NewItemRepository creates a new item repository.
func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepository{db: db}
}

// withLinks preloads links in insertion order together with their current material rows.
func withLinks(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Materials", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, material_id ASC")
		}).
		Preload("Materials.Material")
}

func (r *itemRepository) List(ctx context.Context, userID uint) ([]model.Item, error) {
	items := make([]model.Item, 0)
	if err := withLinks(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("id").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *itemRepository) FindByID(ctx context.Context, userID, id uint) (*model.Item, error) {
	var item model.Item
	if err := withLinks(r.db.WithContext(ctx)).
		Where("id = ? AND user_id = ?", id, userID).
		Take(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) Create(ctx context.Context, item *model.Item) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error
}

// Update overwrites the item's own columns. Links are left untouched.
func (r *itemRepository) Update(ctx context.Context, item *model.Item) error {
	item.UpdatedAt = time.Now()
	res := r.db.WithContext(ctx).
		Model(&model.Item{}).
		Where("id = ? AND user_id = ?", item.ID, item.UserID).
		Updates(map[string]interface{}{
			"name":        item.Name,
			"description": item.Description,
			"notes":       item.Notes,
			"updated_at":  item.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the item and all of its links in one transaction.
func (r *itemRepository) Delete(ctx context.Context, userID, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Item
		if err := tx.Select("id").Where("id = ? AND user_id = ?", id, userID).Take(&existing).Error; err != nil {
			return err
		}
		if err := tx.Where("item_id = ?", id).Delete(&model.ItemMaterial{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&model.Item{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *itemRepository) FindLink(ctx context.Context, itemID, materialID uint) (*model.ItemMaterial, error) {
	var link model.ItemMaterial
	if err := r.db.WithContext(ctx).
		Where("item_id = ? AND material_id = ?", itemID, materialID).
		Take(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

// CreateLink relies on the composite primary key to reject duplicates. A
// concurrent duplicate surfaces as gorm.ErrDuplicatedKey.
func (r *itemRepository) CreateLink(ctx context.Context, link *model.ItemMaterial) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(link).Error
}

func (r *itemRepository) DeleteLink(ctx context.Context, itemID, materialID uint) error {
	res := r.db.WithContext(ctx).
		Where("item_id = ? AND material_id = ?", itemID, materialID).
		Delete(&model.ItemMaterial{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
