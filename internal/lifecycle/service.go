// Package lifecycle demirbaş durum makinesidir: satın alma, zimmetleme, iade
// ve hurdaya ayırma işlemlerini tek transaction içinde yürütür ve Asset /
// Assignment / HistoryRecord kayıtlarını birlikte tutarlı tutar.
//
// Geçiş kuralları burada, sunucu tarafında uygulanır; UI'ın listeyi filtrelemiş
// olmasına güvenilmez. Durum güncellemeleri koşulludur (WHERE status = ...):
// iki kullanıcı aynı demirbaşı aynı anda zimmetlemeye çalışırsa ikincisi
// ErrStatusConflict alır.
package lifecycle

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"zimmet-backend/internal/codegen"
	"zimmet-backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrAssetNotFound    = errors.New("demirbaş bulunamadı")
	ErrEmployeeNotFound = errors.New("personel bulunamadı")
	ErrEmployeeInactive = errors.New("pasif personele zimmet yapılamaz")
	ErrCategoryNotFound = errors.New("kategori bulunamadı")
	ErrBranchNotFound   = errors.New("şube bulunamadı")

	// Geçiş o anki duruma göre yasak (ör: zimmetli demirbaşı hurdaya ayırmak)
	// veya koşullu güncelleme sırasında durum değişti.
	ErrStatusConflict = errors.New("demirbaşın durumu bu işleme uygun değil")

	// İade edilecek demirbaşın açık zimmet kaydı yok: üst katmanda bozulmuş
	// veri demektir, hiçbir yazma yapılmadan iptal edilir.
	ErrNoOpenAssignment = errors.New("demirbaşa ait açık zimmet kaydı bulunamadı")
)

// Actor - işlemi yapan kullanıcı (JWT'den)
type Actor struct {
	UserID   uint
	UserName string
}

type PurchaseInput struct {
	SerialNumber   string
	Name           string
	Make           string
	Model          string
	CategoryID     uint
	BranchID       uint
	PurchaseDate   time.Time
	PurchasePrice  float64
	WarrantyExpiry *time.Time
	Notes          string
}

// Purchase - yeni demirbaş girişi: kod üret, available olarak kaydet,
// deftere "purchased" yaz.
func Purchase(db *gorm.DB, in PurchaseInput, actor Actor) (*models.Asset, error) {
	var category models.Category
	if err := db.First(&category, in.CategoryID).Error; err != nil {
		return nil, ErrCategoryNotFound
	}
	var branch models.Branch
	if err := db.First(&branch, in.BranchID).Error; err != nil {
		return nil, ErrBranchNotFound
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("işlem başlatılamadı: %w", tx.Error)
	}

	code, err := codegen.NextAssetCode(tx)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	asset := models.Asset{
		Code:           code,
		SerialNumber:   in.SerialNumber,
		Name:           in.Name,
		Make:           in.Make,
		Model:          in.Model,
		CategoryID:     in.CategoryID,
		BranchID:       in.BranchID,
		PurchaseDate:   in.PurchaseDate,
		PurchasePrice:  in.PurchasePrice,
		WarrantyExpiry: in.WarrantyExpiry,
		Status:         models.AssetAvailable,
	}
	if err := tx.Create(&asset).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("demirbaş oluşturulamadı: %w", err)
	}

	if err := appendHistory(tx, models.HistoryRecord{
		AssetID:       asset.ID,
		Action:        models.ActionPurchased,
		Notes:         in.Notes,
		PerformedByID: &actor.UserID,
	}); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("işlem tamamlanamadı: %w", err)
	}
	return &asset, nil
}

// Issue - müsait demirbaşı aktif personele zimmetler.
// Tek transaction: durum available→assigned (koşullu), açık Assignment
// kaydı, deftere "issued".
func Issue(db *gorm.DB, assetID, employeeID uint, notes string, actor Actor) (*models.Asset, error) {
	var employee models.Employee
	if err := db.First(&employee, employeeID).Error; err != nil {
		return nil, ErrEmployeeNotFound
	}
	if !employee.IsActive {
		return nil, ErrEmployeeInactive
	}

	var asset models.Asset
	if err := db.First(&asset, assetID).Error; err != nil {
		return nil, ErrAssetNotFound
	}
	if asset.Status != models.AssetAvailable {
		return nil, ErrStatusConflict
	}

	now := time.Now()

	tx := db.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("işlem başlatılamadı: %w", tx.Error)
	}

	// Koşullu güncelleme: okuma ile yazma arasında başka bir istek demirbaşı
	// kapmışsa RowsAffected 0 olur ve işlem çakışmayla reddedilir.
	res := tx.Model(&models.Asset{}).
		Where("id = ? AND status = ?", assetID, models.AssetAvailable).
		Updates(map[string]interface{}{
			"status":            models.AssetAssigned,
			"current_holder_id": employeeID,
		})
	if res.Error != nil {
		tx.Rollback()
		return nil, fmt.Errorf("demirbaş güncellenemedi: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return nil, ErrStatusConflict
	}

	assignment := models.Assignment{
		AssetID:    assetID,
		EmployeeID: employeeID,
		IssuedDate: now,
		IssuedByID: &actor.UserID,
		Notes:      notes,
	}
	if err := tx.Create(&assignment).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("zimmet kaydı oluşturulamadı: %w", err)
	}

	if err := appendHistory(tx, models.HistoryRecord{
		AssetID:       assetID,
		Action:        models.ActionIssued,
		ActionDate:    now,
		EmployeeID:    &employeeID,
		Notes:         notes,
		PerformedByID: &actor.UserID,
	}); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("işlem tamamlanamadı: %w", err)
	}

	return reload(db, assetID)
}

// Return - zimmetli demirbaşı iade alır: açık zimmet kaydını kapatır, durumu
// assigned→available yapar, deftere "returned" yazar.
func Return(db *gorm.DB, assetID uint, reason models.ReturnReason, notes string, actor Actor) (*models.Asset, error) {
	if !models.ValidReturnReason(reason) {
		return nil, fmt.Errorf("geçersiz iade nedeni: %s", reason)
	}

	var asset models.Asset
	if err := db.First(&asset, assetID).Error; err != nil {
		return nil, ErrAssetNotFound
	}
	if asset.Status != models.AssetAssigned {
		return nil, ErrStatusConflict
	}

	// Açık zimmet kaydı yoksa veri bozuk demektir, hiçbir yazma yapma.
	var assignment models.Assignment
	if err := db.Where("asset_id = ? AND returned_date IS NULL", assetID).
		First(&assignment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoOpenAssignment
		}
		return nil, fmt.Errorf("zimmet kaydı okunamadı: %w", err)
	}

	now := time.Now()

	tx := db.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("işlem başlatılamadı: %w", tx.Error)
	}

	res := tx.Model(&models.Asset{}).
		Where("id = ? AND status = ?", assetID, models.AssetAssigned).
		Updates(map[string]interface{}{
			"status":            models.AssetAvailable,
			"current_holder_id": nil,
		})
	if res.Error != nil {
		tx.Rollback()
		return nil, fmt.Errorf("demirbaş güncellenemedi: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return nil, ErrStatusConflict
	}

	if err := tx.Model(&models.Assignment{}).
		Where("id = ?", assignment.ID).
		Updates(map[string]interface{}{
			"returned_date":  now,
			"return_reason":  reason,
			"returned_by_id": actor.UserID,
		}).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("zimmet kaydı kapatılamadı: %w", err)
	}

	if err := appendHistory(tx, models.HistoryRecord{
		AssetID:       assetID,
		Action:        models.ActionReturned,
		ActionDate:    now,
		EmployeeID:    &assignment.EmployeeID,
		Notes:         composeReturnNotes(reason, notes),
		PerformedByID: &actor.UserID,
	}); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("işlem tamamlanamadı: %w", err)
	}

	return reload(db, assetID)
}

// Scrap - available veya repair durumundaki demirbaşı hurdaya ayırır.
// Terminal durum: hurdadan çıkış yok.
func Scrap(db *gorm.DB, assetID uint, notes string, actor Actor) (*models.Asset, error) {
	var asset models.Asset
	if err := db.First(&asset, assetID).Error; err != nil {
		return nil, ErrAssetNotFound
	}
	if asset.Status != models.AssetAvailable && asset.Status != models.AssetRepair {
		return nil, ErrStatusConflict
	}

	now := time.Now()

	tx := db.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("işlem başlatılamadı: %w", tx.Error)
	}

	res := tx.Model(&models.Asset{}).
		Where("id = ? AND status IN ?", assetID, []models.AssetStatus{models.AssetAvailable, models.AssetRepair}).
		Updates(map[string]interface{}{
			"status":            models.AssetScrapped,
			"current_holder_id": nil,
		})
	if res.Error != nil {
		tx.Rollback()
		return nil, fmt.Errorf("demirbaş güncellenemedi: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return nil, ErrStatusConflict
	}

	if err := appendHistory(tx, models.HistoryRecord{
		AssetID:       assetID,
		Action:        models.ActionScrapped,
		ActionDate:    now,
		Notes:         notes,
		PerformedByID: &actor.UserID,
	}); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("işlem tamamlanamadı: %w", err)
	}

	return reload(db, assetID)
}

// MarkRepair - veri girişi yolu: available→repair veya repair→available.
// Zimmetli ya da hurda demirbaşın durumu buradan değiştirilemez; assigned ve
// scrapped durumlarının tek yazarı yukarıdaki operasyonlardır.
func MarkRepair(db *gorm.DB, assetID uint, target models.AssetStatus, notes string, actor Actor) (*models.Asset, error) {
	if target != models.AssetAvailable && target != models.AssetRepair {
		return nil, ErrStatusConflict
	}

	var asset models.Asset
	if err := db.First(&asset, assetID).Error; err != nil {
		return nil, ErrAssetNotFound
	}
	if asset.Status != models.AssetAvailable && asset.Status != models.AssetRepair {
		return nil, ErrStatusConflict
	}
	if asset.Status == target {
		return &asset, nil
	}

	now := time.Now()

	tx := db.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("işlem başlatılamadı: %w", tx.Error)
	}

	res := tx.Model(&models.Asset{}).
		Where("id = ? AND status = ?", assetID, asset.Status).
		Update("status", target)
	if res.Error != nil {
		tx.Rollback()
		return nil, fmt.Errorf("demirbaş güncellenemedi: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return nil, ErrStatusConflict
	}

	// Deftere sadece servise giriş yazılır; servisten dönüş demirbaşı tekrar
	// müsait yapar ama ayrı bir action enum değeri yoktur.
	if target == models.AssetRepair {
		if err := appendHistory(tx, models.HistoryRecord{
			AssetID:       assetID,
			Action:        models.ActionRepair,
			ActionDate:    now,
			Notes:         notes,
			PerformedByID: &actor.UserID,
		}); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("işlem tamamlanamadı: %w", err)
	}

	return reload(db, assetID)
}

func appendHistory(tx *gorm.DB, rec models.HistoryRecord) error {
	if rec.ActionDate.IsZero() {
		rec.ActionDate = time.Now()
	}
	if err := tx.Create(&rec).Error; err != nil {
		return fmt.Errorf("geçmiş kaydı yazılamadı: %w", err)
	}
	return nil
}

// composeReturnNotes - iade defter notu: "Return reason: upgrade. <not>"
func composeReturnNotes(reason models.ReturnReason, notes string) string {
	return strings.TrimSpace(fmt.Sprintf("Return reason: %s. %s", reason, notes))
}

func reload(db *gorm.DB, assetID uint) (*models.Asset, error) {
	var asset models.Asset
	if err := db.Preload("Category").Preload("Branch").Preload("CurrentHolder").
		First(&asset, assetID).Error; err != nil {
		return nil, fmt.Errorf("demirbaş okunamadı: %w", err)
	}
	return &asset, nil
}
