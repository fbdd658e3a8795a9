package assets

import (
	"fmt"
	"strings"
	"time"

	"zimmet-backend/internal/audit"
	"zimmet-backend/internal/auth"
	"zimmet-backend/internal/cache"
	"zimmet-backend/internal/database"
	"zimmet-backend/internal/lifecycle"
	"zimmet-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type AssetResponse struct {
	ID             uint               `json:"id"`
	Code           string             `json:"code"`
	SerialNumber   string             `json:"serial_number"`
	Name           string             `json:"name"`
	Make           string             `json:"make"`
	Model          string             `json:"model"`
	CategoryID     uint               `json:"category_id"`
	CategoryName   string             `json:"category_name"`
	BranchID       uint               `json:"branch_id"`
	BranchName     string             `json:"branch_name"`
	PurchaseDate   string             `json:"purchase_date"`
	PurchasePrice  float64            `json:"purchase_price"`
	WarrantyExpiry *string            `json:"warranty_expiry"`
	Status         models.AssetStatus `json:"status"`
	HolderID       *uint              `json:"holder_id"`
	HolderName     string             `json:"holder_name"`
	CreatedAt      string             `json:"created_at"`
}

type CreateAssetRequest struct {
	SerialNumber   string  `json:"serial_number"`
	Name           string  `json:"name"`
	Make           string  `json:"make"`
	Model          string  `json:"model"`
	CategoryID     uint    `json:"category_id"`
	BranchID       uint    `json:"branch_id"`
	PurchaseDate   string  `json:"purchase_date"` // YYYY-MM-DD
	PurchasePrice  float64 `json:"purchase_price"`
	WarrantyExpiry *string `json:"warranty_expiry"`
	Notes          string  `json:"notes"`
}

type UpdateAssetRequest struct {
	SerialNumber   *string             `json:"serial_number"`
	Name           *string             `json:"name"`
	Make           *string             `json:"make"`
	Model          *string             `json:"model"`
	CategoryID     *uint               `json:"category_id"`
	BranchID       *uint               `json:"branch_id"`
	PurchaseDate   *string             `json:"purchase_date"`
	PurchasePrice  *float64            `json:"purchase_price"`
	WarrantyExpiry *string             `json:"warranty_expiry"`
	Status         *models.AssetStatus `json:"status"` // sadece available <-> repair
	StatusNotes    string              `json:"status_notes"`
}

func toAssetResponse(a models.Asset) AssetResponse {
	resp := AssetResponse{
		ID:            a.ID,
		Code:          a.Code,
		SerialNumber:  a.SerialNumber,
		Name:          a.Name,
		Make:          a.Make,
		Model:         a.Model,
		CategoryID:    a.CategoryID,
		BranchID:      a.BranchID,
		PurchaseDate:  a.PurchaseDate.Format("2006-01-02"),
		PurchasePrice: a.PurchasePrice,
		Status:        a.Status,
		HolderID:      a.CurrentHolderID,
		CreatedAt:     a.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if a.Category != nil {
		resp.CategoryName = a.Category.Name
	}
	if a.Branch != nil {
		resp.BranchName = a.Branch.Name
	}
	if a.CurrentHolder != nil {
		resp.HolderName = a.CurrentHolder.FullName()
	}
	if a.WarrantyExpiry != nil {
		s := a.WarrantyExpiry.Format("2006-01-02")
		resp.WarrantyExpiry = &s
	}
	return resp
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// GET /api/assets?status=available&branch_id=1&category_id=2&q=thinkpad
func ListAssetsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Asset{}).
			Preload("Category").Preload("Branch").Preload("CurrentHolder")

		if status := c.Query("status"); status != "" {
			dbq = dbq.Where("status = ?", status)
		}
		if bidStr := c.Query("branch_id"); bidStr != "" {
			var bid uint
			if _, err := fmt.Sscan(bidStr, &bid); err == nil && bid > 0 {
				dbq = dbq.Where("branch_id = ?", bid)
			}
		}
		if cidStr := c.Query("category_id"); cidStr != "" {
			var cid uint
			if _, err := fmt.Sscan(cidStr, &cid); err == nil && cid > 0 {
				dbq = dbq.Where("category_id = ?", cid)
			}
		}
		if q := strings.TrimSpace(c.Query("q")); q != "" {
			like := "%" + strings.ToLower(q) + "%"
			dbq = dbq.Where(
				"LOWER(name) LIKE ? OR LOWER(code) LIKE ? OR LOWER(serial_number) LIKE ?",
				like, like, like,
			)
		}

		var assets []models.Asset
		if err := dbq.Order("created_at DESC").Find(&assets).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Demirbaşlar listelenemedi")
		}

		res := make([]AssetResponse, 0, len(assets))
		for _, a := range assets {
			res = append(res, toAssetResponse(a))
		}
		return c.JSON(res)
	}
}

// GET /api/assets/:id
func GetAssetHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var asset models.Asset
		if err := database.DB.
			Preload("Category").Preload("Branch").Preload("CurrentHolder").
			First(&asset, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Demirbaş bulunamadı")
		}
		return c.JSON(toAssetResponse(asset))
	}
}

type HistoryResponse struct {
	ID           uint                 `json:"id"`
	Action       models.HistoryAction `json:"action"`
	ActionDate   string               `json:"action_date"`
	EmployeeName string               `json:"employee_name"`
	Notes        string               `json:"notes"`
	PerformedBy  string               `json:"performed_by"`
}

// GET /api/assets/:id/history
func AssetHistoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var asset models.Asset
		if err := database.DB.First(&asset, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Demirbaş bulunamadı")
		}

		var recs []models.HistoryRecord
		if err := database.DB.
			Preload("Employee").Preload("PerformedBy").
			Where("asset_id = ?", asset.ID).
			Order("id DESC").Find(&recs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Geçmiş listelenemedi")
		}

		res := make([]HistoryResponse, 0, len(recs))
		for _, rec := range recs {
			h := HistoryResponse{
				ID:         rec.ID,
				Action:     rec.Action,
				ActionDate: rec.ActionDate.Format("2006-01-02 15:04:05"),
				Notes:      rec.Notes,
			}
			if rec.Employee != nil {
				h.EmployeeName = rec.Employee.FullName()
			}
			if rec.PerformedBy != nil {
				h.PerformedBy = rec.PerformedBy.Name
			}
			res = append(res, h)
		}
		return c.JSON(res)
	}
}

type GlobalHistoryResponse struct {
	HistoryResponse
	AssetID   uint   `json:"asset_id"`
	AssetName string `json:"asset_name"`
	AssetCode string `json:"asset_code"`
}

// GET /api/history?asset_id=&action=
func ListHistoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.HistoryRecord{}).
			Preload("Asset").Preload("Employee").Preload("PerformedBy")

		if v := c.Query("asset_id"); v != "" {
			var assetID uint
			if _, err := fmt.Sscan(v, &assetID); err == nil {
				dbq = dbq.Where("asset_id = ?", assetID)
			}
		}
		if action := strings.TrimSpace(c.Query("action")); action != "" {
			dbq = dbq.Where("action = ?", action)
		}

		var recs []models.HistoryRecord
		if err := dbq.Order("action_date DESC, id DESC").Limit(500).Find(&recs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Geçmiş listelenemedi")
		}

		res := make([]GlobalHistoryResponse, 0, len(recs))
		for _, rec := range recs {
			h := GlobalHistoryResponse{
				HistoryResponse: HistoryResponse{
					ID:         rec.ID,
					Action:     rec.Action,
					ActionDate: rec.ActionDate.Format("2006-01-02 15:04:05"),
					Notes:      rec.Notes,
				},
				AssetID: rec.AssetID,
			}
			if rec.Asset != nil {
				h.AssetName = rec.Asset.Name
				h.AssetCode = rec.Asset.Code
			}
			if rec.Employee != nil {
				h.EmployeeName = rec.Employee.FullName()
			}
			if rec.PerformedBy != nil {
				h.PerformedBy = rec.PerformedBy.Name
			}
			res = append(res, h)
		}
		return c.JSON(res)
	}
}

// POST /api/assets
func CreateAssetHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateAssetRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Demirbaş adı zorunlu")
		}
		if body.CategoryID == 0 || body.BranchID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Kategori ve şube zorunlu")
		}
		if body.PurchasePrice < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Satın alma fiyatı negatif olamaz")
		}

		purchaseDate, err := parseDate(body.PurchaseDate)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Satın alma tarihi geçersiz (YYYY-AA-GG)")
		}

		var warranty *time.Time
		if body.WarrantyExpiry != nil && *body.WarrantyExpiry != "" {
			w, err := parseDate(*body.WarrantyExpiry)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Garanti tarihi geçersiz (YYYY-AA-GG)")
			}
			warranty = &w
		}

		actor, err := actorFromCtx(c)
		if err != nil {
			return err
		}

		asset, err := lifecycle.Purchase(database.DB, lifecycle.PurchaseInput{
			SerialNumber:   strings.TrimSpace(body.SerialNumber),
			Name:           body.Name,
			Make:           strings.TrimSpace(body.Make),
			Model:          strings.TrimSpace(body.Model),
			CategoryID:     body.CategoryID,
			BranchID:       body.BranchID,
			PurchaseDate:   purchaseDate,
			PurchasePrice:  body.PurchasePrice,
			WarrantyExpiry: warranty,
			Notes:          body.Notes,
		}, actor)
		if err != nil {
			return lifecycle.StatusError(err)
		}

		_ = audit.WriteLog(audit.LogOptions{
			UserID:      actor.UserID,
			UserName:    actor.UserName,
			EntityType:  "asset",
			EntityID:    asset.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Demirbaş girişi: %s (%s)", asset.Name, asset.Code),
			After:       asset,
		})
		cache.Invalidate(c.Context(), "dashboard", "reports")

		full, err := reloadAsset(asset.ID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Demirbaş okunamadı")
		}
		return c.Status(fiber.StatusCreated).JSON(toAssetResponse(*full))
	}
}

// PUT /api/assets/:id
// Veri girişi düzeltmeleri ve available <-> repair geçişi. Zimmetleme, iade
// ve hurdaya ayırma buradan yapılamaz; onların kendi endpoint'leri var.
func UpdateAssetHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var asset models.Asset
		if err := database.DB.First(&asset, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Demirbaş bulunamadı")
		}

		var body UpdateAssetRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		actor, err := actorFromCtx(c)
		if err != nil {
			return err
		}

		before := asset

		if body.SerialNumber != nil {
			asset.SerialNumber = strings.TrimSpace(*body.SerialNumber)
		}
		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Demirbaş adı boş olamaz")
			}
			asset.Name = name
		}
		if body.Make != nil {
			asset.Make = strings.TrimSpace(*body.Make)
		}
		if body.Model != nil {
			asset.Model = strings.TrimSpace(*body.Model)
		}
		if body.CategoryID != nil {
			var cat models.Category
			if err := database.DB.First(&cat, *body.CategoryID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Kategori bulunamadı")
			}
			asset.CategoryID = *body.CategoryID
		}
		if body.BranchID != nil {
			var branch models.Branch
			if err := database.DB.First(&branch, *body.BranchID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Şube bulunamadı")
			}
			asset.BranchID = *body.BranchID
		}
		if body.PurchaseDate != nil {
			d, err := parseDate(*body.PurchaseDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Satın alma tarihi geçersiz (YYYY-AA-GG)")
			}
			asset.PurchaseDate = d
		}
		if body.PurchasePrice != nil {
			if *body.PurchasePrice < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Satın alma fiyatı negatif olamaz")
			}
			asset.PurchasePrice = *body.PurchasePrice
		}
		if body.WarrantyExpiry != nil {
			if *body.WarrantyExpiry == "" {
				asset.WarrantyExpiry = nil
			} else {
				w, err := parseDate(*body.WarrantyExpiry)
				if err != nil {
					return fiber.NewError(fiber.StatusBadRequest, "Garanti tarihi geçersiz (YYYY-AA-GG)")
				}
				asset.WarrantyExpiry = &w
			}
		}

		if err := database.DB.Model(&models.Asset{}).
			Where("id = ?", asset.ID).
			Updates(map[string]interface{}{
				"serial_number":   asset.SerialNumber,
				"name":            asset.Name,
				"make":            asset.Make,
				"model":           asset.Model,
				"category_id":     asset.CategoryID,
				"branch_id":       asset.BranchID,
				"purchase_date":   asset.PurchaseDate,
				"purchase_price":  asset.PurchasePrice,
				"warranty_expiry": asset.WarrantyExpiry,
			}).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Demirbaş güncellenemedi")
		}

		// Durum alanı ayrıca ele alınır: buradan sadece servis giriş/çıkışı
		// yapılabilir, zimmet ve hurda geçişleri reddedilir.
		if body.Status != nil && *body.Status != asset.Status {
			if _, err := lifecycle.MarkRepair(database.DB, asset.ID, *body.Status, body.StatusNotes, actor); err != nil {
				return lifecycle.StatusError(err)
			}
		}

		_ = audit.WriteLog(audit.LogOptions{
			UserID:      actor.UserID,
			UserName:    actor.UserName,
			EntityType:  "asset",
			EntityID:    asset.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Demirbaş güncellendi: %s (%s)", asset.Name, asset.Code),
			Before:      before,
			After:       asset,
		})
		cache.Invalidate(c.Context(), "dashboard", "reports")

		full, err := reloadAsset(asset.ID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Demirbaş okunamadı")
		}
		return c.JSON(toAssetResponse(*full))
	}
}

func reloadAsset(id uint) (*models.Asset, error) {
	var asset models.Asset
	if err := database.DB.
		Preload("Category").Preload("Branch").Preload("CurrentHolder").
		First(&asset, id).Error; err != nil {
		return nil, err
	}
	return &asset, nil
}

func actorFromCtx(c *fiber.Ctx) (lifecycle.Actor, error) {
	uidVal := c.Locals(auth.CtxUserIDKey)
	uid, ok := uidVal.(uint)
	if !ok {
		return lifecycle.Actor{}, fiber.NewError(fiber.StatusForbidden, "Kullanıcı bilgisi alınamadı")
	}
	name, _ := c.Locals(auth.CtxUserNameKey).(string)
	return lifecycle.Actor{UserID: uid, UserName: name}, nil
}
