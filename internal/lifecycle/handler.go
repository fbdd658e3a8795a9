package lifecycle

import (
	"errors"
	"fmt"
	"log"

	"zimmet-backend/internal/audit"
	"zimmet-backend/internal/auth"
	"zimmet-backend/internal/cache"
	"zimmet-backend/internal/database"
	"zimmet-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type IssueRequest struct {
	EmployeeID uint   `json:"employee_id"`
	Notes      string `json:"notes"`
}

type ReturnRequest struct {
	Reason models.ReturnReason `json:"reason"`
	Notes  string              `json:"notes"`
}

type ScrapRequest struct {
	Notes string `json:"notes"`
}

// actorFromCtx - JWT middleware'in koyduğu locals'tan işlemi yapan kullanıcıyı çıkar
func actorFromCtx(c *fiber.Ctx) (Actor, error) {
	uidVal := c.Locals(auth.CtxUserIDKey)
	uid, ok := uidVal.(uint)
	if !ok {
		return Actor{}, fiber.NewError(fiber.StatusForbidden, "Kullanıcı bilgisi alınamadı")
	}
	name, _ := c.Locals(auth.CtxUserNameKey).(string)
	return Actor{UserID: uid, UserName: name}, nil
}

// StatusError - servis hatalarını HTTP durum kodlarına çevir
func StatusError(err error) error {
	switch {
	case errors.Is(err, ErrAssetNotFound),
		errors.Is(err, ErrEmployeeNotFound),
		errors.Is(err, ErrCategoryNotFound),
		errors.Is(err, ErrBranchNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrStatusConflict),
		errors.Is(err, ErrNoOpenAssignment):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, ErrEmployeeInactive):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		log.Printf("[ERROR] Zimmet işlemi başarısız: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "İşlem gerçekleştirilemedi")
	}
}

func parseAssetID(c *fiber.Ctx) (uint, error) {
	var id uint
	if _, err := fmt.Sscan(c.Params("id"), &id); err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Geçersiz demirbaş ID")
	}
	return id, nil
}

type AssignmentResponse struct {
	ID           uint    `json:"id"`
	AssetID      uint    `json:"asset_id"`
	AssetCode    string  `json:"asset_code"`
	AssetName    string  `json:"asset_name"`
	EmployeeID   uint    `json:"employee_id"`
	EmployeeName string  `json:"employee_name"`
	IssuedDate   string  `json:"issued_date"`
	IssuedBy     string  `json:"issued_by"`
	Notes        string  `json:"notes"`
	ReturnedDate *string `json:"returned_date"`
	ReturnReason *string `json:"return_reason"`
	ReturnedBy   string  `json:"returned_by"`
}

// GET /api/assignments?open=true&employee_id=1&asset_id=2
func ListAssignmentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Assignment{}).
			Preload("Asset").Preload("Employee").
			Preload("IssuedBy").Preload("ReturnedBy")

		if c.Query("open") == "true" {
			dbq = dbq.Where("returned_date IS NULL")
		}
		if eidStr := c.Query("employee_id"); eidStr != "" {
			var eid uint
			if _, err := fmt.Sscan(eidStr, &eid); err == nil && eid > 0 {
				dbq = dbq.Where("employee_id = ?", eid)
			}
		}
		if aidStr := c.Query("asset_id"); aidStr != "" {
			var aid uint
			if _, err := fmt.Sscan(aidStr, &aid); err == nil && aid > 0 {
				dbq = dbq.Where("asset_id = ?", aid)
			}
		}

		var assignments []models.Assignment
		if err := dbq.Order("issued_date DESC").Find(&assignments).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Zimmetler listelenemedi")
		}

		res := make([]AssignmentResponse, 0, len(assignments))
		for _, a := range assignments {
			r := AssignmentResponse{
				ID:         a.ID,
				AssetID:    a.AssetID,
				EmployeeID: a.EmployeeID,
				IssuedDate: a.IssuedDate.Format("2006-01-02 15:04:05"),
				Notes:      a.Notes,
			}
			if a.Asset != nil {
				r.AssetCode = a.Asset.Code
				r.AssetName = a.Asset.Name
			}
			if a.Employee != nil {
				r.EmployeeName = a.Employee.FullName()
			}
			if a.IssuedBy != nil {
				r.IssuedBy = a.IssuedBy.Name
			}
			if a.ReturnedDate != nil {
				s := a.ReturnedDate.Format("2006-01-02 15:04:05")
				r.ReturnedDate = &s
			}
			if a.ReturnReason != nil {
				s := string(*a.ReturnReason)
				r.ReturnReason = &s
			}
			if a.ReturnedBy != nil {
				r.ReturnedBy = a.ReturnedBy.Name
			}
			res = append(res, r)
		}
		return c.JSON(res)
	}
}

// POST /api/assets/:id/issue
func IssueAssetHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		assetID, err := parseAssetID(c)
		if err != nil {
			return err
		}

		var req IssueRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if req.EmployeeID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Personel seçilmedi")
		}

		actor, err := actorFromCtx(c)
		if err != nil {
			return err
		}

		asset, err := Issue(database.DB, assetID, req.EmployeeID, req.Notes, actor)
		if err != nil {
			return StatusError(err)
		}

		_ = audit.WriteLog(audit.LogOptions{
			UserID:      actor.UserID,
			UserName:    actor.UserName,
			EntityType:  "asset",
			EntityID:    asset.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Demirbaş zimmetlendi: %s (%s)", asset.Name, asset.Code),
			After:       asset,
		})
		cache.Invalidate(c.Context(), "dashboard", "reports")

		return c.JSON(asset)
	}
}

// POST /api/assets/:id/return
func ReturnAssetHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		assetID, err := parseAssetID(c)
		if err != nil {
			return err
		}

		var req ReturnRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if !models.ValidReturnReason(req.Reason) {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz iade nedeni")
		}

		actor, err := actorFromCtx(c)
		if err != nil {
			return err
		}

		asset, err := Return(database.DB, assetID, req.Reason, req.Notes, actor)
		if err != nil {
			return StatusError(err)
		}

		_ = audit.WriteLog(audit.LogOptions{
			UserID:      actor.UserID,
			UserName:    actor.UserName,
			EntityType:  "asset",
			EntityID:    asset.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Demirbaş iade alındı: %s (%s)", asset.Name, asset.Code),
			After:       asset,
		})
		cache.Invalidate(c.Context(), "dashboard", "reports")

		return c.JSON(asset)
	}
}

// POST /api/assets/:id/scrap
func ScrapAssetHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		assetID, err := parseAssetID(c)
		if err != nil {
			return err
		}

		var req ScrapRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		actor, err := actorFromCtx(c)
		if err != nil {
			return err
		}

		asset, err := Scrap(database.DB, assetID, req.Notes, actor)
		if err != nil {
			return StatusError(err)
		}

		_ = audit.WriteLog(audit.LogOptions{
			UserID:      actor.UserID,
			UserName:    actor.UserName,
			EntityType:  "asset",
			EntityID:    asset.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Demirbaş hurdaya ayrıldı: %s (%s)", asset.Name, asset.Code),
			After:       asset,
		})
		cache.Invalidate(c.Context(), "dashboard", "reports")

		return c.JSON(asset)
	}
}
