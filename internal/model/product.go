package model

import "time"

// Product is the central catalog entity. Category, supplier and user
// references are optional: rows created by the external importer carry
// none of them. Barcode is the upstream identifier used for import
// deduplication; Source labels where an imported row came from.
type Product struct {
	ID         uint      `json:"id" gorm:"primarykey"`
	Name       string    `json:"name" gorm:"type:varchar(255);index;not null"`
	Price      float64   `json:"price" gorm:"default:0"`
	Quantity   int       `json:"quantity" gorm:"default:0"`
	City       string    `json:"city" gorm:"type:varchar(100)"`
	Image      string    `json:"image,omitempty" gorm:"type:varchar(255)"`
	Source     string    `json:"source,omitempty" gorm:"type:varchar(100)"`
	Barcode    string    `json:"barcode,omitempty" gorm:"type:varchar(64);index"`
	CategoryID *uint     `json:"category_id" gorm:"index"`
	SupplierID *uint     `json:"supplier_id" gorm:"index"`
	UserID     *uint     `json:"user_id" gorm:"index"`
	Estado     string    `json:"estado" gorm:"type:varchar(10);default:activo;index"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
