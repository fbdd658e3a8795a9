// Package dashboard ana ekrandaki özet kartlarını besler.
package dashboard

import (
	"zimmet-backend/internal/cache"
	"zimmet-backend/internal/database"
	"zimmet-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type RecentAsset struct {
	ID           uint               `json:"id"`
	Code         string             `json:"code"`
	Name         string             `json:"name"`
	CategoryName string             `json:"category_name"`
	BranchName   string             `json:"branch_name"`
	Status       models.AssetStatus `json:"status"`
	CreatedAt    string             `json:"created_at"`
}

type BranchStock struct {
	BranchID   uint    `json:"branch_id"`
	BranchName string  `json:"branch_name"`
	Available  int64   `json:"available"`
	Assigned   int64   `json:"assigned"`
	Repair     int64   `json:"repair"`
	TotalValue float64 `json:"total_value"`
}

type StatsResponse struct {
	TotalAssets     int64         `json:"total_assets"` // hurdalar hariç
	Available       int64         `json:"available"`
	Assigned        int64         `json:"assigned"`
	Repair          int64         `json:"repair"`
	Scrapped        int64         `json:"scrapped"`
	ActiveEmployees int64         `json:"active_employees"`
	TotalValue      float64       `json:"total_value"` // hurdalar hariç
	RecentAssets    []RecentAsset `json:"recent_assets"`
	StockByBranch   []BranchStock `json:"stock_by_branch"`
}

const statsCacheKey = "dashboard:stats"

// GET /api/dashboard/stats
func StatsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var cached StatsResponse
		if cache.GetJSON(c.Context(), statsCacheKey, &cached) {
			return c.JSON(cached)
		}

		stats, err := buildStats()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Panel verileri hesaplanamadı")
		}

		cache.SetJSON(c.Context(), statsCacheKey, stats)
		return c.JSON(stats)
	}
}

func buildStats() (*StatsResponse, error) {
	stats := &StatsResponse{
		RecentAssets:  []RecentAsset{},
		StockByBranch: []BranchStock{},
	}

	countByStatus := func(status models.AssetStatus) (int64, error) {
		var n int64
		err := database.DB.Model(&models.Asset{}).Where("status = ?", status).Count(&n).Error
		return n, err
	}

	var err error
	if stats.Available, err = countByStatus(models.AssetAvailable); err != nil {
		return nil, err
	}
	if stats.Assigned, err = countByStatus(models.AssetAssigned); err != nil {
		return nil, err
	}
	if stats.Repair, err = countByStatus(models.AssetRepair); err != nil {
		return nil, err
	}
	if stats.Scrapped, err = countByStatus(models.AssetScrapped); err != nil {
		return nil, err
	}
	stats.TotalAssets = stats.Available + stats.Assigned + stats.Repair

	if err := database.DB.Model(&models.Employee{}).
		Where("is_active = ?", true).Count(&stats.ActiveEmployees).Error; err != nil {
		return nil, err
	}

	var totalValue *float64
	if err := database.DB.Model(&models.Asset{}).
		Where("status != ?", models.AssetScrapped).
		Select("SUM(purchase_price)").Scan(&totalValue).Error; err != nil {
		return nil, err
	}
	if totalValue != nil {
		stats.TotalValue = *totalValue
	}

	// Son eklenen 5 demirbaş
	var recent []models.Asset
	if err := database.DB.Preload("Category").Preload("Branch").
		Order("created_at DESC").Limit(5).Find(&recent).Error; err != nil {
		return nil, err
	}
	for _, a := range recent {
		r := RecentAsset{
			ID:        a.ID,
			Code:      a.Code,
			Name:      a.Name,
			Status:    a.Status,
			CreatedAt: a.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if a.Category != nil {
			r.CategoryName = a.Category.Name
		}
		if a.Branch != nil {
			r.BranchName = a.Branch.Name
		}
		stats.RecentAssets = append(stats.RecentAssets, r)
	}

	// Şube bazında dağılım
	var branches []models.Branch
	if err := database.DB.Order("name asc").Find(&branches).Error; err != nil {
		return nil, err
	}
	for _, b := range branches {
		var assets []models.Asset
		if err := database.DB.
			Where("branch_id = ? AND status != ?", b.ID, models.AssetScrapped).
			Find(&assets).Error; err != nil {
			return nil, err
		}
		row := BranchStock{BranchID: b.ID, BranchName: b.Name}
		for _, a := range assets {
			switch a.Status {
			case models.AssetAvailable:
				row.Available++
			case models.AssetAssigned:
				row.Assigned++
			case models.AssetRepair:
				row.Repair++
			}
			row.TotalValue += a.PurchasePrice
		}
		stats.StockByBranch = append(stats.StockByBranch, row)
	}

	return stats, nil
}
