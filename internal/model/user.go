package model

import "time"

// User represents a catalog user. Email is unique; Image holds the
// generated filename of an uploaded picture, not the original name.
type User struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	Name      string    `json:"name" gorm:"type:varchar(100);index;not null"`
	Email     string    `json:"email" gorm:"type:varchar(100);not null;uniqueIndex"`
	Phone     string    `json:"phone" gorm:"type:varchar(20)"`
	City      string    `json:"city" gorm:"type:varchar(50)"`
	Image     string    `json:"image,omitempty" gorm:"type:varchar(255)"`
	Estado    string    `json:"estado" gorm:"type:varchar(10);default:activo;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
