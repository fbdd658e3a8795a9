package assets

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"zimmet-backend/internal/audit"
	"zimmet-backend/internal/cache"
	"zimmet-backend/internal/database"
	"zimmet-backend/internal/lifecycle"
	"zimmet-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

type BulkImportResponse struct {
	Imported int      `json:"imported"` // İçe aktarılan demirbaş sayısı
	Skipped  int      `json:"skipped"`  // Atlanan satır sayısı
	Errors   []string `json:"errors"`   // Satır bazlı hata mesajları
}

// Beklenen kolonlar (sırayla):
// Seri No | Ad | Marka | Model | Kategori | Şube | Satın Alma Tarihi | Fiyat | Garanti Bitişi
const bulkImportColumns = 9

// POST /api/assets/bulk-import
// XLSX dosyasından toplu demirbaş girişi. Her satır ayrı bir satın alma
// işlemidir: hatalı satır atlanır, kalanlar işlenmeye devam eder.
func BulkImportAssetsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorFromCtx(c)
		if err != nil {
			return err
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Dosya yüklenemedi: "+err.Error())
		}

		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
			return fiber.NewError(fiber.StatusBadRequest, "Sadece .xlsx dosyaları yüklenebilir")
		}

		file, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Dosya açılamadı: "+err.Error())
		}
		defer file.Close()

		excelFile, err := excelize.OpenReader(file)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Excel dosyası okunamadı: "+err.Error())
		}
		defer excelFile.Close()

		sheetList := excelFile.GetSheetList()
		if len(sheetList) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Excel dosyasında sheet bulunamadı")
		}

		rows, err := excelFile.GetRows(sheetList[0])
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Sheet okunamadı: "+err.Error())
		}
		if len(rows) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Excel dosyası boş")
		}

		// Kategori ve şubeler isimle eşleştirilir; tek seferde çek
		categoryIDs := map[string]uint{}
		var categories []models.Category
		if err := database.DB.Find(&categories).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategoriler okunamadı")
		}
		for _, cat := range categories {
			categoryIDs[strings.ToLower(strings.TrimSpace(cat.Name))] = cat.ID
		}

		branchIDs := map[string]uint{}
		var branches []models.Branch
		if err := database.DB.Find(&branches).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şubeler okunamadı")
		}
		for _, b := range branches {
			branchIDs[strings.ToLower(strings.TrimSpace(b.Name))] = b.ID
		}

		// İlk satır başlık mı?
		startIndex := 0
		if len(rows[0]) > 0 {
			firstCell := strings.ToUpper(strings.TrimSpace(rows[0][0]))
			if strings.Contains(firstCell, "SERİ") || strings.Contains(firstCell, "SERI") ||
				strings.Contains(firstCell, "SERIAL") {
				startIndex = 1
			}
		}

		resp := BulkImportResponse{Errors: []string{}}

		for i := startIndex; i < len(rows); i++ {
			row := rows[i]
			rowNo := i + 1

			if len(row) == 0 || strings.TrimSpace(strings.Join(row, "")) == "" {
				continue
			}
			if len(row) < bulkImportColumns {
				// Eksik son kolonları boş say
				padded := make([]string, bulkImportColumns)
				copy(padded, row)
				row = padded
			}

			in, err := parseBulkRow(row, categoryIDs, branchIDs)
			if err != nil {
				resp.Skipped++
				resp.Errors = append(resp.Errors, fmt.Sprintf("Satır %d: %v", rowNo, err))
				continue
			}

			asset, err := lifecycle.Purchase(database.DB, *in, actor)
			if err != nil {
				resp.Skipped++
				resp.Errors = append(resp.Errors, fmt.Sprintf("Satır %d: %v", rowNo, err))
				continue
			}

			_ = audit.WriteLog(audit.LogOptions{
				UserID:      actor.UserID,
				UserName:    actor.UserName,
				EntityType:  "asset",
				EntityID:    asset.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Toplu içe aktarma: %s (%s)", asset.Name, asset.Code),
				After:       asset,
			})
			resp.Imported++
		}

		log.Printf("Toplu demirbaş içe aktarma tamamlandı: %d imported, %d skipped", resp.Imported, resp.Skipped)
		if resp.Imported > 0 {
			cache.Invalidate(c.Context(), "dashboard", "reports")
		}

		return c.JSON(resp)
	}
}

func parseBulkRow(row []string, categoryIDs, branchIDs map[string]uint) (*lifecycle.PurchaseInput, error) {
	name := strings.TrimSpace(row[1])
	if name == "" {
		return nil, fmt.Errorf("demirbaş adı boş")
	}

	categoryName := strings.ToLower(strings.TrimSpace(row[4]))
	categoryID, ok := categoryIDs[categoryName]
	if !ok {
		return nil, fmt.Errorf("kategori bulunamadı: %s", row[4])
	}

	branchName := strings.ToLower(strings.TrimSpace(row[5]))
	branchID, ok := branchIDs[branchName]
	if !ok {
		return nil, fmt.Errorf("şube bulunamadı: %s", row[5])
	}

	purchaseDate, err := parseFlexibleDate(row[6])
	if err != nil {
		return nil, fmt.Errorf("satın alma tarihi geçersiz: %s", row[6])
	}

	priceStr := strings.ReplaceAll(strings.TrimSpace(row[7]), ",", ".")
	price, err := strconv.ParseFloat(priceStr, 64)
	if err != nil || price < 0 {
		return nil, fmt.Errorf("fiyat geçersiz: %s", row[7])
	}

	var warranty *time.Time
	if w := strings.TrimSpace(row[8]); w != "" {
		d, err := parseFlexibleDate(w)
		if err != nil {
			return nil, fmt.Errorf("garanti tarihi geçersiz: %s", row[8])
		}
		warranty = &d
	}

	return &lifecycle.PurchaseInput{
		SerialNumber:   strings.TrimSpace(row[0]),
		Name:           name,
		Make:           strings.TrimSpace(row[2]),
		Model:          strings.TrimSpace(row[3]),
		CategoryID:     categoryID,
		BranchID:       branchID,
		PurchaseDate:   purchaseDate,
		PurchasePrice:  price,
		WarrantyExpiry: warranty,
	}, nil
}

// Excel hücrelerinde tarih hem "2024-01-15" hem "15.01.2024" hem de
// "01-15-24" (excelize varsayılan gösterimi) formatında gelebilir.
func parseFlexibleDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", "02.01.2006", "01-02-06", "2.1.2006"} {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("tanınmayan tarih formatı")
}
