// Package codegen benzersiz, insan okunur demirbaş ve personel kodları üretir.
// Sayaç code_sequences tablosunda tutulur; artırma çağıranın transaction'ı
// içinde yapıldığı için üretilen kod, işlem geri alınırsa yanmaz ve aynı kod
// iki kayda verilemez (Postgres satır kilidi eşzamanlı çağrıları sıralar).
package codegen

import (
	"fmt"

	"zimmet-backend/internal/models"

	"gorm.io/gorm"
)

const (
	assetPrefix    = "DMB" // Demirbaş
	employeePrefix = "PRS" // Personel
)

// NextAssetCode - yeni demirbaş kodu: DMB-0001, DMB-0002...
func NextAssetCode(tx *gorm.DB) (string, error) {
	n, err := next(tx, "asset")
	if err != nil {
		return "", fmt.Errorf("demirbaş kodu üretilemedi: %w", err)
	}
	return fmt.Sprintf("%s-%04d", assetPrefix, n), nil
}

// NextEmployeeCode - yeni personel kodu: PRS-0001, PRS-0002...
func NextEmployeeCode(tx *gorm.DB) (string, error) {
	n, err := next(tx, "employee")
	if err != nil {
		return "", fmt.Errorf("personel kodu üretilemedi: %w", err)
	}
	return fmt.Sprintf("%s-%04d", employeePrefix, n), nil
}

func next(tx *gorm.DB, kind string) (int64, error) {
	res := tx.Model(&models.CodeSequence{}).
		Where("kind = ?", kind).
		Update("value", gorm.Expr("value + 1"))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, fmt.Errorf("kod sayacı bulunamadı: %s", kind)
	}

	var seq models.CodeSequence
	if err := tx.First(&seq, "kind = ?", kind).Error; err != nil {
		return 0, err
	}
	return seq.Value, nil
}
