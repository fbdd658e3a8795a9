package reports

import (
	"testing"
	"time"

	"zimmet-backend/internal/database"
	"zimmet-backend/internal/lifecycle"
	"zimmet-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDB(t *testing.T) {
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

	prev := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = prev })
}

func seedAsset(t *testing.T, branch, category string, price float64) *models.Asset {
	t.Helper()

	var b models.Branch
	require.NoError(t, database.DB.FirstOrCreate(&b, models.Branch{Name: branch}).Error)
	var cat models.Category
	require.NoError(t, database.DB.FirstOrCreate(&cat, models.Category{Name: category}).Error)

	asset, err := lifecycle.Purchase(database.DB, lifecycle.PurchaseInput{
		Name:          "Test Cihazı",
		CategoryID:    cat.ID,
		BranchID:      b.ID,
		PurchaseDate:  time.Now().AddDate(-1, 0, 0),
		PurchasePrice: price,
	}, lifecycle.Actor{UserID: 1, UserName: "Test"})
	require.NoError(t, err)
	return asset
}

func TestScrappedReportRetainsPurchasePrice(t *testing.T) {
	setupDB(t)

	asset := seedAsset(t, "Merkez", "Laptop", 42000)
	_, err := lifecycle.Scrap(database.DB, asset.ID, "ekran kırık", lifecycle.Actor{UserID: 1, UserName: "Test"})
	require.NoError(t, err)

	seedAsset(t, "Merkez", "Laptop", 30000) // hurda değil, rapora girmez

	report, err := buildScrappedReport()
	require.NoError(t, err)

	require.Len(t, report.Rows, 1)
	assert.Equal(t, asset.Code, report.Rows[0].Code)
	assert.Equal(t, 42000.0, report.Rows[0].PurchasePrice)
	assert.Equal(t, "ekran kırık", report.Rows[0].ScrapNotes)
	assert.Equal(t, 42000.0, report.TotalValue)
	assert.Equal(t, 1, report.TotalCount)
}

func TestStockReportIdempotentAcrossReads(t *testing.T) {
	setupDB(t)

	seedAsset(t, "Merkez", "Laptop", 40000)
	seedAsset(t, "Merkez", "Laptop", 45000)
	seedAsset(t, "Depo", "Monitör", 8000)

	first, err := buildStockReport(0, 0)
	require.NoError(t, err)
	second, err := buildStockReport(0, 0)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 3, first.Totals.Total)
	assert.Equal(t, 93000.0, first.Totals.TotalValue)
}

func TestStockReportBranchFilter(t *testing.T) {
	setupDB(t)

	seedAsset(t, "Merkez", "Laptop", 40000)
	seedAsset(t, "Depo", "Monitör", 8000)

	var branch models.Branch
	require.NoError(t, database.DB.Where("name = ?", "Depo").First(&branch).Error)

	report, err := buildStockReport(branch.ID, 0)
	require.NoError(t, err)

	require.Len(t, report.Rows, 1)
	assert.Equal(t, "Depo", report.Rows[0].Branch)
	assert.Equal(t, 8000.0, report.Totals.TotalValue)
}

func TestUtilizationReportSummary(t *testing.T) {
	setupDB(t)

	seedAsset(t, "Merkez", "Laptop", 40000)

	report, err := buildUtilizationReport()
	require.NoError(t, err)

	require.Len(t, report.Rows, 1)
	// Bir yıllık available demirbaş: katsayı 0.3
	assert.Equal(t, 30, report.Rows[0].UtilizationRate)
	assert.Equal(t, 1, report.Summary.AssetCount)
	assert.Equal(t, 30.0, report.Summary.AverageRate)
	assert.Equal(t, 0, report.Summary.HighCount)
	assert.Equal(t, 0, report.Summary.LowCount)
}
