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

// CreateStockInput carries the fields of a new material or consumable.
// Quantities are not range checked.
type CreateStockInput struct {
	Name            string
	Description     *string
	Quantity        int
	MinimumQuantity int
	Unit            *string
}

// StockPatch is a partial update. Absent fields keep their stored value.
type StockPatch struct {
	Name            model.Optional[string]
	Description     model.Optional[string]
	Quantity        model.Optional[int]
	MinimumQuantity model.Optional[int]
	Unit            model.Optional[string]
}

// StockService is the inventory contract shared by materials and consumables.
type StockService interface {
	Kind() model.StockKind
	List(ctx context.Context, userID uint) ([]model.Stock, error)
	Get(ctx context.Context, userID, id uint) (*model.Stock, error)
	Create(ctx context.Context, userID uint, in CreateStockInput) (*model.Stock, error)
	Update(ctx context.Context, userID, id uint, patch StockPatch) (*model.Stock, error)
	Delete(ctx context.Context, userID, id uint) error
}

type stockService struct {
	repo     repository.StockRepository
	notFound error
}

// NewStockService wraps one stock repository.
func NewStockService(repo repository.StockRepository) StockService {
	notFound := apperrors.ErrConsumableNotFound
	if repo.Kind() == model.KindMaterial {
		notFound = apperrors.ErrMaterialNotFound
	}
	return &stockService{repo: repo, notFound: notFound}
}

func (s *stockService) Kind() model.StockKind {
	return s.repo.Kind()
}

func (s *stockService) List(ctx context.Context, userID uint) ([]model.Stock, error) {
	rows, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list %ss: %w", s.Kind(), err)
	}
	return rows, nil
}

func (s *stockService) Get(ctx context.Context, userID, id uint) (*model.Stock, error) {
	stock, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, s.mapErr("get", err)
	}
	return stock, nil
}

func (s *stockService) Create(ctx context.Context, userID uint, in CreateStockInput) (*model.Stock, error) {
	if err := requireName("name", in.Name); err != nil {
		return nil, err
	}

	stock := &model.Stock{
		UserID:          userID,
		Name:            in.Name,
		Description:     in.Description,
		Quantity:        in.Quantity,
		MinimumQuantity: in.MinimumQuantity,
		Unit:            in.Unit,
	}
	if err := s.repo.Create(ctx, stock); err != nil {
		return nil, fmt.Errorf("create %s: %w", s.Kind(), err)
	}
	return stock, nil
}

// Update validates the whole patch before touching storage. UpdatedAt is
// refreshed even when no field changes.
func (s *stockService) Update(ctx context.Context, userID, id uint, patch StockPatch) (*model.Stock, error) {
	stock, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, s.mapErr("get", err)
	}

	if err := patchName("name", patch.Name, &stock.Name); err != nil {
		return nil, err
	}
	if err := patchInt("quantity", patch.Quantity, &stock.Quantity); err != nil {
		return nil, err
	}
	if err := patchInt("minimumQuantity", patch.MinimumQuantity, &stock.MinimumQuantity); err != nil {
		return nil, err
	}
	patchText(patch.Description, &stock.Description)
	patchText(patch.Unit, &stock.Unit)

	if err := s.repo.Update(ctx, stock); err != nil {
		return nil, s.mapErr("update", err)
	}
	return stock, nil
}

func (s *stockService) Delete(ctx context.Context, userID, id uint) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return s.mapErr("delete", err)
	}
	return nil
}

func (s *stockService) mapErr(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.notFound
	}
	return fmt.Errorf("%s %s: %w", op, s.Kind(), err)
}
