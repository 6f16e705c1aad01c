package model

import "time"

// ItemMaterial links an item to a material it needs. The (ItemID, MaterialID)
// primary key keeps at most one link per pair.
type ItemMaterial struct {
	ItemID           uint      `json:"itemId" gorm:"primaryKey;autoIncrement:false"`
	MaterialID       uint      `json:"materialId" gorm:"primaryKey;autoIncrement:false;index"`
	RequiredQuantity int       `json:"requiredQuantity" gorm:"not null"`
	CreatedAt        time.Time `json:"createdAt"`

	// Relations
	Material Material `json:"-" gorm:"foreignKey:MaterialID;constraint:OnDelete:CASCADE"`
}

// IsSufficient reports whether the linked material currently covers the requirement.
// Material must be loaded.
func (l *ItemMaterial) IsSufficient() bool {
	return l.Material.Quantity >= l.RequiredQuantity
}
