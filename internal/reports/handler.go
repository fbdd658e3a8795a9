// Package reports yönetim raporlarını üretir: hurda listesi, kullanım
// oranları ve şube/kategori stok özeti. Her rapor hem JSON hem .xlsx
// olarak alınabilir.
package reports

import (
	"fmt"
	"time"

	"zimmet-backend/internal/cache"
	"zimmet-backend/internal/database"
	"zimmet-backend/internal/metrics"
	"zimmet-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type ScrappedAssetRow struct {
	ID            uint    `json:"id"`
	Code          string  `json:"code"`
	Name          string  `json:"name"`
	CategoryName  string  `json:"category_name"`
	BranchName    string  `json:"branch_name"`
	PurchaseDate  string  `json:"purchase_date"`
	PurchasePrice float64 `json:"purchase_price"`
	ScrappedDate  string  `json:"scrapped_date"`
	ScrapNotes    string  `json:"scrap_notes"`
}

type ScrappedReport struct {
	Rows       []ScrappedAssetRow `json:"rows"`
	TotalCount int                `json:"total_count"`
	TotalValue float64            `json:"total_value"` // kayıptan düşülen toplam değer
}

type UtilizationReport struct {
	Rows    []metrics.UtilizationRow   `json:"rows"`
	Summary metrics.UtilizationSummary `json:"summary"`
}

type StockReport struct {
	Rows   []metrics.StockRow  `json:"rows"`
	Totals metrics.StockTotals `json:"totals"`
}

func buildScrappedReport() (*ScrappedReport, error) {
	var assets []models.Asset
	if err := database.DB.Preload("Category").Preload("Branch").
		Where("status = ?", models.AssetScrapped).
		Order("updated_at DESC").Find(&assets).Error; err != nil {
		return nil, err
	}

	report := &ScrappedReport{Rows: []ScrappedAssetRow{}}
	for _, a := range assets {
		row := ScrappedAssetRow{
			ID:            a.ID,
			Code:          a.Code,
			Name:          a.Name,
			PurchaseDate:  a.PurchaseDate.Format("2006-01-02"),
			PurchasePrice: a.PurchasePrice,
		}
		if a.Category != nil {
			row.CategoryName = a.Category.Name
		}
		if a.Branch != nil {
			row.BranchName = a.Branch.Name
		}

		// Hurda tarihi ve notu defterden gelir
		var rec models.HistoryRecord
		if err := database.DB.
			Where("asset_id = ? AND action = ?", a.ID, models.ActionScrapped).
			Order("id DESC").First(&rec).Error; err == nil {
			row.ScrappedDate = rec.ActionDate.Format("2006-01-02")
			row.ScrapNotes = rec.Notes
		}

		report.Rows = append(report.Rows, row)
		report.TotalValue += a.PurchasePrice
	}
	report.TotalCount = len(report.Rows)
	return report, nil
}

func buildUtilizationReport() (*UtilizationReport, error) {
	var assets []models.Asset
	if err := database.DB.Preload("Category").Preload("Branch").
		Order("code asc").Find(&assets).Error; err != nil {
		return nil, err
	}

	rows := metrics.BuildUtilizationRows(assets, time.Now())
	return &UtilizationReport{
		Rows:    rows,
		Summary: metrics.SummarizeUtilization(rows),
	}, nil
}

func buildStockReport(branchID, categoryID uint) (*StockReport, error) {
	dbq := database.DB.Preload("Category").Preload("Branch")
	if branchID > 0 {
		dbq = dbq.Where("branch_id = ?", branchID)
	}
	if categoryID > 0 {
		dbq = dbq.Where("category_id = ?", categoryID)
	}

	var assets []models.Asset
	if err := dbq.Find(&assets).Error; err != nil {
		return nil, err
	}

	rows, totals := metrics.BuildStockSummary(assets)
	return &StockReport{Rows: rows, Totals: totals}, nil
}

func queryUint(c *fiber.Ctx, name string) uint {
	var v uint
	if s := c.Query(name); s != "" {
		fmt.Sscan(s, &v)
	}
	return v
}

// GET /api/reports/scrapped
func ScrappedReportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		report, err := buildScrappedReport()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Hurda raporu hesaplanamadı")
		}
		return c.JSON(report)
	}
}

// GET /api/reports/utilization
func UtilizationReportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		const key = "reports:utilization"
		var cached UtilizationReport
		if cache.GetJSON(c.Context(), key, &cached) {
			return c.JSON(cached)
		}

		report, err := buildUtilizationReport()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanım raporu hesaplanamadı")
		}

		cache.SetJSON(c.Context(), key, report)
		return c.JSON(report)
	}
}

// GET /api/stock-summary?branch_id=1&category_id=2
func StockSummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID := queryUint(c, "branch_id")
		categoryID := queryUint(c, "category_id")

		// Sadece filtresiz sorgu cache'lenir
		const key = "reports:stock"
		cacheable := branchID == 0 && categoryID == 0

		if cacheable {
			var cached StockReport
			if cache.GetJSON(c.Context(), key, &cached) {
				return c.JSON(cached)
			}
		}

		report, err := buildStockReport(branchID, categoryID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stok özeti hesaplanamadı")
		}

		if cacheable {
			cache.SetJSON(c.Context(), key, report)
		}
		return c.JSON(report)
	}
}
