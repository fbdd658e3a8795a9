package models

import "time"

// Category - Demirbaş kategorisi (laptop, monitör, araç vs.)
// Hurdaya ayrılmamış demirbaşı olan kategori silinemez, kontrol handler'da.
type Category struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:100;not null;unique"`
	Description string `gorm:"size:255"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
