package model

// Material is reusable workshop stock. Items link to materials.
type Material struct {
	Stock

	// Relations
	User User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}
