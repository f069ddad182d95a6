package model

import "github.com/google/uuid"

// Customer is a store-scoped shopper identity, matched loosely by phone or email.
type Customer struct {
	BaseModel
	StoreID uuid.UUID `gorm:"type:uuid;not null;index" json:"store_id"`
	Name    string    `gorm:"type:varchar(255);not null" json:"name"`
	Phone   string    `gorm:"type:varchar(30);index" json:"phone"`
	Email   string    `gorm:"type:varchar(255);index" json:"email"`
}
