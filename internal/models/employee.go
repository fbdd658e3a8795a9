package models

import "time"

// Employee - Zimmet alabilecek personel
// Kayıtlar hiçbir zaman silinmez; işten ayrılan personel IsActive=false yapılır,
// geçmiş zimmet kayıtları çözülebilir kalmalı.
type Employee struct {
	ID          uint   `gorm:"primaryKey"`
	Code        string `gorm:"size:20;uniqueIndex;not null"` // PRS-0001, codegen üretir
	FirstName   string `gorm:"size:100;not null"`
	LastName    string `gorm:"size:100;not null"`
	Email       string `gorm:"size:100;uniqueIndex;not null"`
	Department  string `gorm:"size:100;not null"`
	Designation string `gorm:"size:100"`

	BranchID uint `gorm:"index;not null"`
	Branch   *Branch

	IsActive bool `gorm:"not null;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (e Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}
