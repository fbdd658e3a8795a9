package lifecycle

import (
	"testing"
	"time"

	"zimmet-backend/internal/database"
	"zimmet-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fixture struct {
	db       *gorm.DB
	branch   models.Branch
	category models.Category
	employee models.Employee
	actor    Actor
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Branch{},
		&models.User{},
		&models.Category{},
		&models.Employee{},
		&models.Asset{},
		&models.Assignment{},
		&models.HistoryRecord{},
		&models.AuditLog{},
		&models.CodeSequence{},
	))
	require.NoError(t, database.SeedCodeSequences(db))

	f := &fixture{db: db}

	f.branch = models.Branch{Name: "Merkez"}
	require.NoError(t, db.Create(&f.branch).Error)

	f.category = models.Category{Name: "Laptop"}
	require.NoError(t, db.Create(&f.category).Error)

	f.employee = models.Employee{
		Code:      "PRS-0001",
		FirstName: "Ayşe",
		LastName:  "Yılmaz",
		Email:     "ayse@example.com",
		BranchID:  f.branch.ID,
		IsActive:  true,
	}
	require.NoError(t, db.Create(&f.employee).Error)
	// Personel sayacını elle açılan kodun önüne al
	require.NoError(t, db.Model(&models.CodeSequence{}).
		Where("kind = ?", "employee").Update("value", 1).Error)

	user := models.User{Name: "Admin", Email: "admin@example.com", PasswordHash: "x", Role: models.RoleSuperAdmin}
	require.NoError(t, db.Create(&user).Error)
	f.actor = Actor{UserID: user.ID, UserName: user.Name}

	return f
}

func (f *fixture) purchase(t *testing.T) *models.Asset {
	t.Helper()
	asset, err := Purchase(f.db, PurchaseInput{
		SerialNumber:  "SN-001",
		Name:          "ThinkPad T14",
		Make:          "Lenovo",
		Model:         "T14 Gen 4",
		CategoryID:    f.category.ID,
		BranchID:      f.branch.ID,
		PurchaseDate:  time.Now().AddDate(0, -6, 0),
		PurchasePrice: 45000,
	}, f.actor)
	require.NoError(t, err)
	return asset
}

func (f *fixture) history(t *testing.T, assetID uint) []models.HistoryRecord {
	t.Helper()
	var recs []models.HistoryRecord
	require.NoError(t, f.db.Where("asset_id = ?", assetID).Order("id ASC").Find(&recs).Error)
	return recs
}

func TestPurchaseCreatesAvailableAssetWithCode(t *testing.T) {
	f := setup(t)

	asset := f.purchase(t)

	assert.Equal(t, "DMB-0001", asset.Code)
	assert.Equal(t, models.AssetAvailable, asset.Status)
	assert.Nil(t, asset.CurrentHolderID)

	recs := f.history(t, asset.ID)
	require.Len(t, recs, 1)
	assert.Equal(t, models.ActionPurchased, recs[0].Action)

	second := f.purchase(t)
	assert.Equal(t, "DMB-0002", second.Code)
}

func TestIssueAssignsAssetToEmployee(t *testing.T) {
	f := setup(t)
	asset := f.purchase(t)

	got, err := Issue(f.db, asset.ID, f.employee.ID, "saha çalışması", f.actor)
	require.NoError(t, err)

	assert.Equal(t, models.AssetAssigned, got.Status)
	require.NotNil(t, got.CurrentHolderID)
	assert.Equal(t, f.employee.ID, *got.CurrentHolderID)

	var assignment models.Assignment
	require.NoError(t, f.db.Where("asset_id = ? AND returned_date IS NULL", asset.ID).First(&assignment).Error)
	assert.Equal(t, f.employee.ID, assignment.EmployeeID)
	require.NotNil(t, assignment.IssuedByID)
	assert.Equal(t, f.actor.UserID, *assignment.IssuedByID)

	recs := f.history(t, asset.ID)
	require.Len(t, recs, 2)
	assert.Equal(t, models.ActionIssued, recs[1].Action)
	require.NotNil(t, recs[1].EmployeeID)
	assert.Equal(t, f.employee.ID, *recs[1].EmployeeID)
}

func TestIssueRejectsInactiveEmployee(t *testing.T) {
	f := setup(t)
	asset := f.purchase(t)

	require.NoError(t, f.db.Model(&models.Employee{}).
		Where("id = ?", f.employee.ID).Update("is_active", false).Error)

	_, err := Issue(f.db, asset.ID, f.employee.ID, "", f.actor)
	assert.ErrorIs(t, err, ErrEmployeeInactive)

	// Hiçbir yazma olmamalı
	var reloaded models.Asset
	require.NoError(t, f.db.First(&reloaded, asset.ID).Error)
	assert.Equal(t, models.AssetAvailable, reloaded.Status)
	assert.Len(t, f.history(t, asset.ID), 1)
}

func TestIssueRejectsNonAvailableAsset(t *testing.T) {
	f := setup(t)
	asset := f.purchase(t)

	_, err := Issue(f.db, asset.ID, f.employee.ID, "", f.actor)
	require.NoError(t, err)

	// İkinci zimmet denemesi çakışma verir, kayıtlar değişmez
	_, err = Issue(f.db, asset.ID, f.employee.ID, "", f.actor)
	assert.ErrorIs(t, err, ErrStatusConflict)

	var count int64
	require.NoError(t, f.db.Model(&models.Assignment{}).
		Where("asset_id = ? AND returned_date IS NULL", asset.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	assert.Len(t, f.history(t, asset.ID), 2)
}

func TestReturnClosesAssignmentAndComposesNotes(t *testing.T) {
	f := setup(t)
	asset := f.purchase(t)

	_, err := Issue(f.db, asset.ID, f.employee.ID, "", f.actor)
	require.NoError(t, err)

	got, err := Return(f.db, asset.ID, models.ReturnUpgrade, "yeni cihaz verildi", f.actor)
	require.NoError(t, err)

	assert.Equal(t, models.AssetAvailable, got.Status)
	assert.Nil(t, got.CurrentHolderID)

	var assignment models.Assignment
	require.NoError(t, f.db.Where("asset_id = ?", asset.ID).First(&assignment).Error)
	require.NotNil(t, assignment.ReturnedDate)
	require.NotNil(t, assignment.ReturnReason)
	assert.Equal(t, models.ReturnUpgrade, *assignment.ReturnReason)
	require.NotNil(t, assignment.ReturnedByID)
	assert.Equal(t, f.actor.UserID, *assignment.ReturnedByID)

	recs := f.history(t, asset.ID)
	require.Len(t, recs, 3)
	assert.Equal(t, models.ActionReturned, recs[2].Action)
	assert.Equal(t, "Return reason: upgrade. yeni cihaz verildi", recs[2].Notes)
}

func TestReturnNotesWithoutFreeText(t *testing.T) {
	f := setup(t)
	asset := f.purchase(t)

	_, err := Issue(f.db, asset.ID, f.employee.ID, "", f.actor)
	require.NoError(t, err)

	_, err = Return(f.db, asset.ID, models.ReturnResignation, "", f.actor)
	require.NoError(t, err)

	recs := f.history(t, asset.ID)
	require.Len(t, recs, 3)
	assert.Equal(t, "Return reason: resignation.", recs[2].Notes)
}

func TestReturnRejectsAvailableAsset(t *testing.T) {
	f := setup(t)
	asset := f.purchase(t)

	_, err := Return(f.db, asset.ID, models.ReturnOther, "", f.actor)
	assert.ErrorIs(t, err, ErrStatusConflict)
	assert.Len(t, f.history(t, asset.ID), 1)
}

func TestReturnAbortsWhenOpenAssignmentMissing(t *testing.T) {
	f := setup(t)
	asset := f.purchase(t)

	// Bozuk veri senaryosu: durum assigned ama açık zimmet kaydı yok
	require.NoError(t, f.db.Model(&models.Asset{}).
		Where("id = ?", asset.ID).
		Updates(map[string]interface{}{"status": models.AssetAssigned, "current_holder_id": f.employee.ID}).Error)

	_, err := Return(f.db, asset.ID, models.ReturnOther, "", f.actor)
	assert.ErrorIs(t, err, ErrNoOpenAssignment)

	// İptal edildi: durum dokunulmadan kaldı
	var reloaded models.Asset
	require.NoError(t, f.db.First(&reloaded, asset.ID).Error)
	assert.Equal(t, models.AssetAssigned, reloaded.Status)
}

func TestScrapFromAvailableAndRepair(t *testing.T) {
	f := setup(t)

	first := f.purchase(t)
	got, err := Scrap(f.db, first.ID, "ekran kırık", f.actor)
	require.NoError(t, err)
	assert.Equal(t, models.AssetScrapped, got.Status)
	assert.Nil(t, got.CurrentHolderID)

	recs := f.history(t, first.ID)
	require.Len(t, recs, 2)
	assert.Equal(t, models.ActionScrapped, recs[1].Action)

	second := f.purchase(t)
	_, err = MarkRepair(f.db, second.ID, models.AssetRepair, "anakart arızası", f.actor)
	require.NoError(t, err)
	got, err = Scrap(f.db, second.ID, "tamir edilemedi", f.actor)
	require.NoError(t, err)
	assert.Equal(t, models.AssetScrapped, got.Status)
}

func TestScrapRejectsAssignedAsset(t *testing.T) {
	f := setup(t)
	asset := f.purchase(t)

	_, err := Issue(f.db, asset.ID, f.employee.ID, "", f.actor)
	require.NoError(t, err)

	_, err = Scrap(f.db, asset.ID, "", f.actor)
	assert.ErrorIs(t, err, ErrStatusConflict)

	var reloaded models.Asset
	require.NoError(t, f.db.First(&reloaded, asset.ID).Error)
	assert.Equal(t, models.AssetAssigned, reloaded.Status)
}

func TestScrapIsTerminal(t *testing.T) {
	f := setup(t)
	asset := f.purchase(t)

	_, err := Scrap(f.db, asset.ID, "", f.actor)
	require.NoError(t, err)

	_, err = Issue(f.db, asset.ID, f.employee.ID, "", f.actor)
	assert.ErrorIs(t, err, ErrStatusConflict)

	_, err = MarkRepair(f.db, asset.ID, models.AssetRepair, "", f.actor)
	assert.ErrorIs(t, err, ErrStatusConflict)
}

func TestMarkRepairRoundTrip(t *testing.T) {
	f := setup(t)
	asset := f.purchase(t)

	got, err := MarkRepair(f.db, asset.ID, models.AssetRepair, "klavye değişimi", f.actor)
	require.NoError(t, err)
	assert.Equal(t, models.AssetRepair, got.Status)

	recs := f.history(t, asset.ID)
	require.Len(t, recs, 2)
	assert.Equal(t, models.ActionRepair, recs[1].Action)
	assert.Equal(t, "klavye değişimi", recs[1].Notes)

	// Servisten dönüş deftere ayrıca yazılmaz
	got, err = MarkRepair(f.db, asset.ID, models.AssetAvailable, "", f.actor)
	require.NoError(t, err)
	assert.Equal(t, models.AssetAvailable, got.Status)
	assert.Len(t, f.history(t, asset.ID), 2)
}

func TestMarkRepairRejectsAssignedTarget(t *testing.T) {
	f := setup(t)
	asset := f.purchase(t)

	_, err := MarkRepair(f.db, asset.ID, models.AssetAssigned, "", f.actor)
	assert.ErrorIs(t, err, ErrStatusConflict)

	_, err = MarkRepair(f.db, asset.ID, models.AssetScrapped, "", f.actor)
	assert.ErrorIs(t, err, ErrStatusConflict)
}

func TestFullLifecycleHistoryOrder(t *testing.T) {
	f := setup(t)
	asset := f.purchase(t)

	_, err := Issue(f.db, asset.ID, f.employee.ID, "", f.actor)
	require.NoError(t, err)
	_, err = Return(f.db, asset.ID, models.ReturnRepair, "şarj soketi", f.actor)
	require.NoError(t, err)
	_, err = MarkRepair(f.db, asset.ID, models.AssetRepair, "şarj soketi", f.actor)
	require.NoError(t, err)
	_, err = Scrap(f.db, asset.ID, "tamiri ekonomik değil", f.actor)
	require.NoError(t, err)

	recs := f.history(t, asset.ID)
	require.Len(t, recs, 5)
	want := []models.HistoryAction{
		models.ActionPurchased,
		models.ActionIssued,
		models.ActionReturned,
		models.ActionRepair,
		models.ActionScrapped,
	}
	for i, rec := range recs {
		assert.Equal(t, want[i], rec.Action)
	}
}
