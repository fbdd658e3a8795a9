package models

import "time"

type HistoryAction string

const (
	ActionPurchased HistoryAction = "purchased"
	ActionIssued    HistoryAction = "issued"
	ActionReturned  HistoryAction = "returned"
	ActionRepair    HistoryAction = "repair"
	ActionScrapped  HistoryAction = "scrapped"
)

// HistoryRecord - Demirbaş yaşam döngüsü defteri. Append-only: kayıtlar asla
// güncellenmez veya silinmez.
type HistoryRecord struct {
	ID uint `gorm:"primaryKey"`

	AssetID uint `gorm:"index;not null"`
	Asset   *Asset

	Action     HistoryAction `gorm:"size:20;not null;index"`
	ActionDate time.Time     `gorm:"not null;index"`

	EmployeeID *uint
	Employee   *Employee

	Notes string `gorm:"size:500"`

	PerformedByID *uint
	PerformedBy   *User `gorm:"foreignKey:PerformedByID"`

	CreatedAt time.Time
}
