package model

import "time"

// Supplier represents a product supplier stored in the database
type Supplier struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null;uniqueIndex"`
	Contact   string    `json:"contact" gorm:"type:varchar(100)"`
	Phone     string    `json:"phone" gorm:"type:varchar(20)"`
	City      string    `json:"city" gorm:"type:varchar(50)"`
	Estado    string    `json:"estado" gorm:"type:varchar(10);default:activo;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
