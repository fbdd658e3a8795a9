// Package metrics rapor ve panoda kullanılan türetilmiş değerleri hesaplar.
// Buradaki fonksiyonlar saf hesaplamadır: veritabanına dokunmaz, handler'ların
// çektiği kayıt dilimleri üzerinde çalışır.
package metrics

import (
	"math"
	"time"

	"zimmet-backend/internal/models"
)

// UtilizationRow - tek demirbaşın kullanım özeti
type UtilizationRow struct {
	AssetID         uint               `json:"asset_id"`
	Code            string             `json:"code"`
	Name            string             `json:"name"`
	Category        string             `json:"category"`
	Branch          string             `json:"branch"`
	Status          models.AssetStatus `json:"status"`
	TotalDays       int                `json:"total_days"`
	AssignedDays    int                `json:"assigned_days"`
	UtilizationRate int                `json:"utilization_rate"`
}

type UtilizationSummary struct {
	AssetCount  int     `json:"asset_count"`
	AverageRate float64 `json:"average_rate"`
	HighCount   int     `json:"high_count"` // oran >= 70
	LowCount    int     `json:"low_count"`  // oran < 30
}

// Utilization - satın alma tarihinden bugüne kaba kullanım tahmini.
// Zimmet geçmişinden gün gün hesap yapılmaz; mevcut duruma göre sabit
// katsayılar uygulanır: zimmetli %80, hurda %60, diğerleri %30.
func Utilization(asset models.Asset, now time.Time) (totalDays, assignedDays, rate int) {
	totalDays = int(math.Floor(now.Sub(asset.PurchaseDate).Hours() / 24))
	if totalDays <= 0 {
		return 0, 0, 0
	}

	factor := 0.3
	switch asset.Status {
	case models.AssetAssigned:
		factor = 0.8
	case models.AssetScrapped:
		factor = 0.6
	}

	assignedDays = int(math.Floor(float64(totalDays) * factor))
	rate = int(math.Round(100 * float64(assignedDays) / float64(totalDays)))
	return totalDays, assignedDays, rate
}

// BuildUtilizationRows - demirbaş listesinden rapor satırları üretir.
// Category ve Branch preload edilmiş olmalı.
func BuildUtilizationRows(assets []models.Asset, now time.Time) []UtilizationRow {
	rows := make([]UtilizationRow, 0, len(assets))
	for _, a := range assets {
		total, assigned, rate := Utilization(a, now)
		row := UtilizationRow{
			AssetID:         a.ID,
			Code:            a.Code,
			Name:            a.Name,
			Status:          a.Status,
			TotalDays:       total,
			AssignedDays:    assigned,
			UtilizationRate: rate,
		}
		if a.Category != nil {
			row.Category = a.Category.Name
		}
		if a.Branch != nil {
			row.Branch = a.Branch.Name
		}
		rows = append(rows, row)
	}
	return rows
}

func SummarizeUtilization(rows []UtilizationRow) UtilizationSummary {
	s := UtilizationSummary{AssetCount: len(rows)}
	if len(rows) == 0 {
		return s
	}
	sum := 0
	for _, r := range rows {
		sum += r.UtilizationRate
		if r.UtilizationRate >= 70 {
			s.HighCount++
		}
		if r.UtilizationRate < 30 {
			s.LowCount++
		}
	}
	s.AverageRate = math.Round(float64(sum)/float64(len(rows))*100) / 100
	return s
}

// StockRow - (şube, kategori) bazında stok özeti. Hurda demirbaşlar
// sayımlara ve toplam değere dahil edilmez.
type StockRow struct {
	Branch     string  `json:"branch"`
	Category   string  `json:"category"`
	Available  int     `json:"available"`
	Assigned   int     `json:"assigned"`
	Repair     int     `json:"repair"`
	Total      int     `json:"total"`
	TotalValue float64 `json:"total_value"`
}

type StockTotals struct {
	Available  int     `json:"available"`
	Assigned   int     `json:"assigned"`
	Repair     int     `json:"repair"`
	Total      int     `json:"total"`
	TotalValue float64 `json:"total_value"`
}

// BuildStockSummary - şube+kategori kırılımında sayım. Tüm sayımları sıfır
// olan satırlar rapora yazılmaz.
func BuildStockSummary(assets []models.Asset) ([]StockRow, StockTotals) {
	type key struct{ branch, category string }

	index := map[key]*StockRow{}
	order := []key{}

	for _, a := range assets {
		if a.Status == models.AssetScrapped {
			continue
		}
		k := key{}
		if a.Branch != nil {
			k.branch = a.Branch.Name
		}
		if a.Category != nil {
			k.category = a.Category.Name
		}
		row, ok := index[k]
		if !ok {
			row = &StockRow{Branch: k.branch, Category: k.category}
			index[k] = row
			order = append(order, k)
		}
		switch a.Status {
		case models.AssetAvailable:
			row.Available++
		case models.AssetAssigned:
			row.Assigned++
		case models.AssetRepair:
			row.Repair++
		}
		row.Total++
		row.TotalValue += a.PurchasePrice
	}

	rows := make([]StockRow, 0, len(order))
	var totals StockTotals
	for _, k := range order {
		row := index[k]
		if row.Total == 0 {
			continue
		}
		rows = append(rows, *row)
		totals.Available += row.Available
		totals.Assigned += row.Assigned
		totals.Repair += row.Repair
		totals.Total += row.Total
		totals.TotalValue += row.TotalValue
	}
	return rows, totals
}
