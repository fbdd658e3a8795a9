package metrics

import (
	"testing"
	"time"

	"zimmet-backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func assetAged(days int, status models.AssetStatus) models.Asset {
	return models.Asset{
		PurchaseDate: time.Now().AddDate(0, 0, -days),
		Status:       status,
	}
}

func TestUtilizationAssignedAsset(t *testing.T) {
	a := assetAged(100, models.AssetAssigned)

	total, assigned, rate := Utilization(a, time.Now())

	assert.Equal(t, 100, total)
	assert.Equal(t, 80, assigned)
	assert.Equal(t, 80, rate)
}

func TestUtilizationScrappedAsset(t *testing.T) {
	a := assetAged(100, models.AssetScrapped)

	_, assigned, rate := Utilization(a, time.Now())

	assert.Equal(t, 60, assigned)
	assert.Equal(t, 60, rate)
}

func TestUtilizationAvailableAndRepair(t *testing.T) {
	for _, st := range []models.AssetStatus{models.AssetAvailable, models.AssetRepair} {
		a := assetAged(200, st)
		_, assigned, rate := Utilization(a, time.Now())
		assert.Equal(t, 60, assigned)
		assert.Equal(t, 30, rate)
	}
}

func TestUtilizationBrandNewAssetIsZero(t *testing.T) {
	now := time.Now()
	a := models.Asset{PurchaseDate: now, Status: models.AssetAssigned}

	total, assigned, rate := Utilization(a, now)

	assert.Zero(t, total)
	assert.Zero(t, assigned)
	assert.Zero(t, rate)
}

func TestUtilizationFutureDatedPurchase(t *testing.T) {
	a := models.Asset{
		PurchaseDate: time.Now().AddDate(0, 0, 10),
		Status:       models.AssetAssigned,
	}

	total, _, rate := Utilization(a, time.Now())

	assert.Zero(t, total)
	assert.Zero(t, rate)
}

func TestSummarizeUtilization(t *testing.T) {
	rows := []UtilizationRow{
		{UtilizationRate: 80},
		{UtilizationRate: 30},
		{UtilizationRate: 10},
	}

	s := SummarizeUtilization(rows)

	assert.Equal(t, 3, s.AssetCount)
	assert.Equal(t, 40.0, s.AverageRate)
	assert.Equal(t, 1, s.HighCount)
	assert.Equal(t, 1, s.LowCount)
}

func TestSummarizeUtilizationEmpty(t *testing.T) {
	s := SummarizeUtilization(nil)

	assert.Zero(t, s.AssetCount)
	assert.Zero(t, s.AverageRate)
}

func stockAsset(branch, category string, status models.AssetStatus, price float64) models.Asset {
	return models.Asset{
		Branch:        &models.Branch{Name: branch},
		Category:      &models.Category{Name: category},
		Status:        status,
		PurchasePrice: price,
	}
}

func TestBuildStockSummaryGroupsAndTotals(t *testing.T) {
	assets := []models.Asset{
		stockAsset("Merkez", "Laptop", models.AssetAvailable, 40000),
		stockAsset("Merkez", "Laptop", models.AssetAssigned, 45000),
		stockAsset("Merkez", "Laptop", models.AssetRepair, 38000),
		stockAsset("Merkez", "Monitör", models.AssetAvailable, 8000),
		stockAsset("Depo", "Laptop", models.AssetAssigned, 42000),
	}

	rows, totals := BuildStockSummary(assets)

	assert.Len(t, rows, 3)

	merkez := rows[0]
	assert.Equal(t, "Merkez", merkez.Branch)
	assert.Equal(t, "Laptop", merkez.Category)
	assert.Equal(t, 1, merkez.Available)
	assert.Equal(t, 1, merkez.Assigned)
	assert.Equal(t, 1, merkez.Repair)
	assert.Equal(t, 3, merkez.Total)
	assert.Equal(t, 123000.0, merkez.TotalValue)

	assert.Equal(t, 5, totals.Total)
	assert.Equal(t, 173000.0, totals.TotalValue)
}

func TestBuildStockSummaryExcludesScrapped(t *testing.T) {
	assets := []models.Asset{
		stockAsset("Merkez", "Laptop", models.AssetScrapped, 40000),
		stockAsset("Merkez", "Laptop", models.AssetAvailable, 45000),
	}

	rows, totals := BuildStockSummary(assets)

	assert.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].Total)
	assert.Equal(t, 45000.0, rows[0].TotalValue)
	assert.Equal(t, 45000.0, totals.TotalValue)
}

func TestBuildStockSummarySkipsAllScrappedGroup(t *testing.T) {
	assets := []models.Asset{
		stockAsset("Depo", "Yazıcı", models.AssetScrapped, 5000),
		stockAsset("Depo", "Yazıcı", models.AssetScrapped, 5000),
	}

	rows, totals := BuildStockSummary(assets)

	assert.Empty(t, rows)
	assert.Zero(t, totals.Total)
}
