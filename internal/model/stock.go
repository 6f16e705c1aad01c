package model

import "time"

// StockKind selects one of the two stock collections.
type StockKind string

const (
	// KindMaterial is reusable stock that items can be built from.
	KindMaterial StockKind = "material"
	// KindConsumable is stock used up on use.
	KindConsumable StockKind = "consumable"
)

// Table returns the table backing the collection.
func (k StockKind) Table() string {
	switch k {
	case KindMaterial:
		return "materials"
	case KindConsumable:
		return "consumables"
	default:
		return ""
	}
}

// Stock holds the columns shared by materials and consumables.
// Quantities are not clamped and may go negative.
type Stock struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	UserID          uint      `json:"-" gorm:"not null;index"`
	Name            string    `json:"name" gorm:"size:255;not null"`
	Description     *string   `json:"description" gorm:"type:text"`
	Quantity        int       `json:"quantity" gorm:"not null;default:0"`
	MinimumQuantity int       `json:"minimumQuantity" gorm:"not null;default:0"`
	Unit            *string   `json:"unit" gorm:"size:64"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// IsLowStock reports whether the current quantity is below the reorder threshold.
func (s *Stock) IsLowStock() bool {
	return s.Quantity < s.MinimumQuantity
}
