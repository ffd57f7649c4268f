package model

import "time"

// Category groups products. Name is unique across the catalog.
type Category struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null;uniqueIndex"`
	Estado    string    `json:"estado" gorm:"type:varchar(10);default:activo;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
