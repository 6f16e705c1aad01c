package handler

import (
	"workshopbuddy/internal/model"
)

// StockDto is the wire shape of a material or consumable.
type StockDto struct {
	ID              uint    `json:"id"`
	Name            string  `json:"name"`
	Description     *string `json:"description"`
	Quantity        int     `json:"quantity"`
	MinimumQuantity int     `json:"minimumQuantity"`
	Unit            *string `json:"unit"`
	IsLowStock      bool    `json:"isLowStock"`
}

// ItemMaterialDto is one resolved link of an item.
type ItemMaterialDto struct {
	MaterialID        uint   `json:"materialId"`
	MaterialName      string `json:"materialName"`
	RequiredQuantity  int    `json:"requiredQuantity"`
	AvailableQuantity int    `json:"availableQuantity"`
	IsSufficient      bool   `json:"isSufficient"`
}

// ItemDto is the wire shape of an item with its materials.
type ItemDto struct {
	ID          uint              `json:"id"`
	Name        string            `json:"name"`
	Description *string           `json:"description"`
	Notes       *string           `json:"notes"`
	Materials   []ItemMaterialDto `json:"materials"`
}

func toStockDto(s *model.Stock) StockDto {
	return StockDto{
		ID:              s.ID,
		Name:            s.Name,
		Description:     s.Description,
		Quantity:        s.Quantity,
		MinimumQuantity: s.MinimumQuantity,
		Unit:            s.Unit,
		IsLowStock:      s.IsLowStock(),
	}
}

func toStockDtos(rows []model.Stock) []StockDto {
	out := make([]StockDto, 0, len(rows))
	for i := range rows {
		out = append(out, toStockDto(&rows[i]))
	}
	return out
}

func toItemDto(item *model.Item) ItemDto {
	materials := make([]ItemMaterialDto, 0, len(item.Materials))
	for i := range item.Materials {
		link := &item.Materials[i]
		materials = append(materials, ItemMaterialDto{
			MaterialID:        link.MaterialID,
			MaterialName:      link.Material.Name,
			RequiredQuantity:  link.RequiredQuantity,
			AvailableQuantity: link.Material.Quantity,
			IsSufficient:      link.IsSufficient(),
		})
	}
	return ItemDto{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		Notes:       item.Notes,
		Materials:   materials,
	}
}

func toItemDtos(items []model.Item) []ItemDto {
	out := make([]ItemDto, 0, len(items))
	for i := range items {
		out = append(out, toItemDto(&items[i]))
	}
	return out
}
