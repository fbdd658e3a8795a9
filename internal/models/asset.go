package models

import "time"

type AssetStatus string

const (
	AssetAvailable AssetStatus = "available" // Müsait, zimmetlenebilir
	AssetAssigned  AssetStatus = "assigned"  // Personele zimmetli
	AssetRepair    AssetStatus = "repair"    // Serviste / tamirde
	AssetScrapped  AssetStatus = "scrapped"  // Hurdaya ayrıldı (terminal)
)

// Asset - Demirbaş kaydı
// Status alanı sadece lifecycle paketi üzerinden değişir; assigned ve scrapped
// durumlarına genel update endpoint'i üzerinden geçilemez.
// Invariant: CurrentHolderID != nil <=> Status == assigned
type Asset struct {
	ID           uint   `gorm:"primaryKey"`
	Code         string `gorm:"size:20;uniqueIndex;not null"` // DMB-0001, codegen üretir
	SerialNumber string `gorm:"size:100;not null"`
	Name         string `gorm:"size:150;not null"`
	Make         string `gorm:"size:100"`
	Model        string `gorm:"size:100"`

	CategoryID uint `gorm:"index;not null"`
	Category   *Category

	BranchID uint `gorm:"index;not null"`
	Branch   *Branch

	PurchaseDate   time.Time `gorm:"not null"`
	PurchasePrice  float64   `gorm:"not null"`
	WarrantyExpiry *time.Time

	Status AssetStatus `gorm:"size:20;not null;default:'available';index"`

	CurrentHolderID *uint     `gorm:"index"`
	CurrentHolder   *Employee `gorm:"foreignKey:CurrentHolderID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
