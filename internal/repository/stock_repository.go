package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"workshopbuddy/internal/model"
)

// StockRepository persists one stock collection (materials or consumables).
// Every method is scoped by the owning user id.
type StockRepository interface {
	Kind() model.StockKind
	List(ctx context.Context, userID uint) ([]model.Stock, error)
	FindByID(ctx context.Context, userID, id uint) (*model.Stock, error)
	Create(ctx context.Context, stock *model.Stock) error
	Update(ctx context.Context, stock *model.Stock) error
	Delete(ctx context.Context, userID, id uint) error
}

type stockRepository struct {
	db   *gorm.DB
	kind model.StockKind
}

// NewMaterialRepository returns the materials collection. Deleting a material
// also removes every item link that references it.
func NewMaterialRepository(db *gorm.DB) StockRepository {
	return &stockRepository{db: db, kind: model.KindMaterial}
}

// NewConsumableRepository returns the consumables collection.
func NewConsumableRepository(db *gorm.DB) StockRepository {
	return &stockRepository{db: db, kind: model.KindConsumable}
}

func (r *stockRepository) Kind() model.StockKind {
	return r.kind
}

func (r *stockRepository) table(db *gorm.DB) *gorm.DB {
	return db.Table(r.kind.Table())
}

// List returns all rows owned by userID in creation order.
func (r *stockRepository) List(ctx context.Context, userID uint) ([]model.Stock, error) {
	rows := make([]model.Stock, 0)
	if err := r.table(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByID returns gorm.ErrRecordNotFound for missing rows and rows owned by someone else.
func (r *stockRepository) FindByID(ctx context.Context, userID, id uint) (*model.Stock, error) {
	var stock model.Stock
	if err := r.table(r.db.WithContext(ctx)).
		Where("id = ? AND user_id = ?", id, userID).
		Take(&stock).Error; err != nil {
		return nil, err
	}
	return &stock, nil
}

func (r *stockRepository) Create(ctx context.Context, stock *model.Stock) error {
	return r.table(r.db.WithContext(ctx)).Create(stock).Error
}

// Update overwrites every mutable column and refreshes UpdatedAt.
func (r *stockRepository) Update(ctx context.Context, stock *model.Stock) error {
	stock.UpdatedAt = time.Now()
	res := r.table(r.db.WithContext(ctx)).
		Where("id = ? AND user_id = ?", stock.ID, stock.UserID).
		Updates(map[string]interface{}{
			"name":             stock.Name,
			"description":      stock.Description,
			"quantity":         stock.Quantity,
			"minimum_quantity": stock.MinimumQuantity,
			"unit":             stock.Unit,
			"updated_at":       stock.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the row, and for materials their item links, in one transaction.
func (r *stockRepository) Delete(ctx context.Context, userID, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Stock
		if err := r.table(tx).
			Select("id").
			Where("id = ? AND user_id = ?", id, userID).
			Take(&existing).Error; err != nil {
			return err
		}

		if r.kind == model.KindMaterial {
			if err := tx.Where("material_id = ?", id).Delete(&model.ItemMaterial{}).Error; err != nil {
				return err
			}
		}

		res := r.table(tx).Where("id = ? AND user_id = ?", id, userID).Delete(&model.Stock{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
