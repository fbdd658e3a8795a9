package models

import "time"

type ReturnReason string

const (
	ReturnUpgrade     ReturnReason = "upgrade"
	ReturnRepair      ReturnReason = "repair"
	ReturnResignation ReturnReason = "resignation"
	ReturnTransfer    ReturnReason = "transfer"
	ReturnOther       ReturnReason = "other"
)

// ValidReturnReason - iade nedeni enum kontrolü
func ValidReturnReason(r ReturnReason) bool {
	switch r {
	case ReturnUpgrade, ReturnRepair, ReturnResignation, ReturnTransfer, ReturnOther:
		return true
	}
	return false
}

// Assignment - Bir demirbaşın bir personelde kaldığı aralığın kaydı.
// ReturnedDate == nil ise "açık zimmet"; bir demirbaş için aynı anda en fazla
// bir açık zimmet olabilir. İade kayıt kapatır, asla silmez.
type Assignment struct {
	ID uint `gorm:"primaryKey"`

	AssetID uint `gorm:"index;not null"`
	Asset   *Asset

	EmployeeID uint `gorm:"index;not null"`
	Employee   *Employee

	IssuedDate time.Time `gorm:"not null"`
	IssuedByID *uint
	IssuedBy   *User `gorm:"foreignKey:IssuedByID"`

	Notes string `gorm:"size:500"`

	ReturnedDate *time.Time    `gorm:"index"`
	ReturnReason *ReturnReason `gorm:"size:20"`
	ReturnedByID *uint
	ReturnedBy   *User         `gorm:"foreignKey:ReturnedByID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
