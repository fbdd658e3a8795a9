package reports

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

// newReportFile - başlık satırı yazılmış boş çalışma kitabı
func newReportFile(sheet string, headers []string, colWidths []float64) (*excelize.File, error) {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", sheet)

	boldStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, err
	}

	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	return f, nil
}

func summaryStyle(f *excelize.File) int {
	style, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	return style
}

func sendWorkbook(c *fiber.Ctx, f *excelize.File, baseName string) error {
	filename := fmt.Sprintf("%s_%s.xlsx", baseName, time.Now().Format("2006-01-02"))
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))

	buf, err := f.WriteToBuffer()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Rapor dosyası oluşturulamadı")
	}
	return c.Send(buf.Bytes())
}

// GET /api/reports/scrapped/export
func ExportScrappedReportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		report, err := buildScrappedReport()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Hurda raporu hesaplanamadı")
		}

		sheet := "Hurda"
		headers := []string{"Kod", "Ad", "Kategori", "Şube", "Satın Alma", "Fiyat", "Hurda Tarihi", "Not"}
		widths := []float64{12, 28, 16, 16, 12, 12, 12, 32}
		f, err := newReportFile(sheet, headers, widths)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Rapor dosyası oluşturulamadı")
		}

		for i, r := range report.Rows {
			row := i + 2
			f.SetCellValue(sheet, fmt.Sprintf("A%d", row), r.Code)
			f.SetCellValue(sheet, fmt.Sprintf("B%d", row), r.Name)
			f.SetCellValue(sheet, fmt.Sprintf("C%d", row), r.CategoryName)
			f.SetCellValue(sheet, fmt.Sprintf("D%d", row), r.BranchName)
			f.SetCellValue(sheet, fmt.Sprintf("E%d", row), r.PurchaseDate)
			f.SetCellValue(sheet, fmt.Sprintf("F%d", row), r.PurchasePrice)
			f.SetCellValue(sheet, fmt.Sprintf("G%d", row), r.ScrappedDate)
			f.SetCellValue(sheet, fmt.Sprintf("H%d", row), r.ScrapNotes)
		}

		sumRow := len(report.Rows) + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", sumRow), "Toplam")
		f.SetCellValue(sheet, fmt.Sprintf("B%d", sumRow), fmt.Sprintf("%d demirbaş", report.TotalCount))
		f.SetCellValue(sheet, fmt.Sprintf("F%d", sumRow), report.TotalValue)
		f.SetCellStyle(sheet, fmt.Sprintf("A%d", sumRow), fmt.Sprintf("H%d", sumRow), summaryStyle(f))

		return sendWorkbook(c, f, "hurda_raporu")
	}
}

// GET /api/reports/utilization/export
func ExportUtilizationReportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		report, err := buildUtilizationReport()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanım raporu hesaplanamadı")
		}

		sheet := "Kullanım"
		headers := []string{"Kod", "Ad", "Kategori", "Şube", "Durum", "Toplam Gün", "Zimmetli Gün", "Kullanım %"}
		widths := []float64{12, 28, 16, 16, 12, 12, 12, 12}
		f, err := newReportFile(sheet, headers, widths)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Rapor dosyası oluşturulamadı")
		}

		for i, r := range report.Rows {
			row := i + 2
			f.SetCellValue(sheet, fmt.Sprintf("A%d", row), r.Code)
			f.SetCellValue(sheet, fmt.Sprintf("B%d", row), r.Name)
			f.SetCellValue(sheet, fmt.Sprintf("C%d", row), r.Category)
			f.SetCellValue(sheet, fmt.Sprintf("D%d", row), r.Branch)
			f.SetCellValue(sheet, fmt.Sprintf("E%d", row), string(r.Status))
			f.SetCellValue(sheet, fmt.Sprintf("F%d", row), r.TotalDays)
			f.SetCellValue(sheet, fmt.Sprintf("G%d", row), r.AssignedDays)
			f.SetCellValue(sheet, fmt.Sprintf("H%d", row), r.UtilizationRate)
		}

		sumRow := len(report.Rows) + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", sumRow), "Özet")
		f.SetCellValue(sheet, fmt.Sprintf("B%d", sumRow),
			fmt.Sprintf("%d demirbaş, ortalama %%%.2f", report.Summary.AssetCount, report.Summary.AverageRate))
		f.SetCellValue(sheet, fmt.Sprintf("F%d", sumRow),
			fmt.Sprintf("Yüksek: %d / Düşük: %d", report.Summary.HighCount, report.Summary.LowCount))
		f.SetCellStyle(sheet, fmt.Sprintf("A%d", sumRow), fmt.Sprintf("H%d", sumRow), summaryStyle(f))

		return sendWorkbook(c, f, "kullanim_raporu")
	}
}

// GET /api/reports/stock-summary/export
func ExportStockSummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		report, err := buildStockReport(queryUint(c, "branch_id"), queryUint(c, "category_id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stok özeti hesaplanamadı")
		}

		sheet := "Stok"
		headers := []string{"Şube", "Kategori", "Müsait", "Zimmetli", "Serviste", "Toplam", "Toplam Değer"}
		widths := []float64{18, 18, 10, 10, 10, 10, 14}
		f, err := newReportFile(sheet, headers, widths)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Rapor dosyası oluşturulamadı")
		}

		for i, r := range report.Rows {
			row := i + 2
			f.SetCellValue(sheet, fmt.Sprintf("A%d", row), r.Branch)
			f.SetCellValue(sheet, fmt.Sprintf("B%d", row), r.Category)
			f.SetCellValue(sheet, fmt.Sprintf("C%d", row), r.Available)
			f.SetCellValue(sheet, fmt.Sprintf("D%d", row), r.Assigned)
			f.SetCellValue(sheet, fmt.Sprintf("E%d", row), r.Repair)
			f.SetCellValue(sheet, fmt.Sprintf("F%d", row), r.Total)
			f.SetCellValue(sheet, fmt.Sprintf("G%d", row), r.TotalValue)
		}

		sumRow := len(report.Rows) + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", sumRow), "Toplam")
		f.SetCellValue(sheet, fmt.Sprintf("C%d", sumRow), report.Totals.Available)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", sumRow), report.Totals.Assigned)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", sumRow), report.Totals.Repair)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", sumRow), report.Totals.Total)
		f.SetCellValue(sheet, fmt.Sprintf("G%d", sumRow), report.Totals.TotalValue)
		f.SetCellStyle(sheet, fmt.Sprintf("A%d", sumRow), fmt.Sprintf("G%d", sumRow), summaryStyle(f))

		return sendWorkbook(c, f, "stok_ozeti")
	}
}
