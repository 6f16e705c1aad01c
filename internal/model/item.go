package model

import "time"

// Item is something built in the workshop from linked materials.
type Item struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      uint      `json:"-" gorm:"not null;index"`
	Name        string    `json:"name" gorm:"size:255;not null"`
	Description *string   `json:"description" gorm:"type:text"`
	Notes       *string   `json:"notes" gorm:"type:text"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// Relations
	User      User           `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Materials []ItemMaterial `json:"materials" gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
}
