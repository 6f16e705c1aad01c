package model

// Consumable is stock that is used up, such as glue or sandpaper.
type Consumable struct {
	Stock

	// Relations
	User User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}
