package employees

import (
	"fmt"
	"strings"

	"zimmet-backend/internal/audit"
	"zimmet-backend/internal/auth"
	"zimmet-backend/internal/cache"
	"zimmet-backend/internal/codegen"
	"zimmet-backend/internal/database"
	"zimmet-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type EmployeeResponse struct {
	ID          uint   `json:"id"`
	Code        string `json:"code"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Department  string `json:"department"`
	Designation string `json:"designation"`
	BranchID    uint   `json:"branch_id"`
	BranchName  string `json:"branch_name"`
	IsActive    bool   `json:"is_active"`
	AssetCount  int64  `json:"asset_count"` // üzerindeki açık zimmet sayısı
	CreatedAt   string `json:"created_at"`
}

type CreateEmployeeRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Department  string `json:"department"`
	Designation string `json:"designation"`
	BranchID    uint   `json:"branch_id"`
}

type UpdateEmployeeRequest struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	Email       *string `json:"email"`
	Department  *string `json:"department"`
	Designation *string `json:"designation"`
	BranchID    *uint   `json:"branch_id"`
	IsActive    *bool   `json:"is_active"`
}

func toEmployeeResponse(e models.Employee, assetCount int64) EmployeeResponse {
	resp := EmployeeResponse{
		ID:          e.ID,
		Code:        e.Code,
		FirstName:   e.FirstName,
		LastName:    e.LastName,
		Email:       e.Email,
		Department:  e.Department,
		Designation: e.Designation,
		BranchID:    e.BranchID,
		IsActive:    e.IsActive,
		AssetCount:  assetCount,
		CreatedAt:   e.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if e.Branch != nil {
		resp.BranchName = e.Branch.Name
	}
	return resp
}

func openAssignmentCount(employeeID uint) int64 {
	var count int64
	database.DB.Model(&models.Assignment{}).
		Where("employee_id = ? AND returned_date IS NULL", employeeID).
		Count(&count)
	return count
}

// GET /api/employees?branch_id=1&active=true&q=ayşe
func ListEmployeesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Employee{}).Preload("Branch")

		if bidStr := c.Query("branch_id"); bidStr != "" {
			var bid uint
			if _, err := fmt.Sscan(bidStr, &bid); err == nil && bid > 0 {
				dbq = dbq.Where("branch_id = ?", bid)
			}
		}
		if active := c.Query("active"); active != "" {
			dbq = dbq.Where("is_active = ?", active == "true")
		}
		if q := strings.TrimSpace(c.Query("q")); q != "" {
			like := "%" + strings.ToLower(q) + "%"
			dbq = dbq.Where(
				"LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(code) LIKE ? OR LOWER(email) LIKE ?",
				like, like, like, like,
			)
		}

		var employees []models.Employee
		if err := dbq.Order("first_name asc, last_name asc").Find(&employees).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Personel listelenemedi")
		}

		res := make([]EmployeeResponse, 0, len(employees))
		for _, e := range employees {
			res = append(res, toEmployeeResponse(e, openAssignmentCount(e.ID)))
		}
		return c.JSON(res)
	}
}

// GET /api/employees/:id
func GetEmployeeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var employee models.Employee
		if err := database.DB.Preload("Branch").
			First(&employee, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Personel bulunamadı")
		}
		return c.JSON(toEmployeeResponse(employee, openAssignmentCount(employee.ID)))
	}
}

// POST /api/employees
func CreateEmployeeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateEmployeeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		body.FirstName = strings.TrimSpace(body.FirstName)
		body.LastName = strings.TrimSpace(body.LastName)
		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		if body.FirstName == "" || body.LastName == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Ad ve soyad zorunlu")
		}
		if body.Email == "" {
			return fiber.NewError(fiber.StatusBadRequest, "E-posta zorunlu")
		}
		if body.BranchID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Şube zorunlu")
		}

		var branch models.Branch
		if err := database.DB.First(&branch, body.BranchID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Şube bulunamadı")
		}

		var existing models.Employee
		if err := database.DB.Where("email = ?", body.Email).First(&existing).Error; err == nil {
			return fiber.NewError(fiber.StatusBadRequest, "Bu e-posta ile kayıtlı personel zaten var")
		}

		tx := database.DB.Begin()
		if tx.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İşlem başlatılamadı")
		}

		code, err := codegen.NextEmployeeCode(tx)
		if err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Personel kodu üretilemedi")
		}

		employee := models.Employee{
			Code:        code,
			FirstName:   body.FirstName,
			LastName:    body.LastName,
			Email:       body.Email,
			Department:  strings.TrimSpace(body.Department),
			Designation: strings.TrimSpace(body.Designation),
			BranchID:    body.BranchID,
			IsActive:    true,
		}
		if err := tx.Create(&employee).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Personel oluşturulamadı")
		}

		if err := tx.Commit().Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İşlem tamamlanamadı")
		}

		writeEmployeeAudit(c, models.AuditActionCreate, employee,
			fmt.Sprintf("Personel eklendi: %s (%s)", employee.FullName(), employee.Code))

		employee.Branch = &branch
		return c.Status(fiber.StatusCreated).JSON(toEmployeeResponse(employee, 0))
	}
}

// PUT /api/employees/:id
// Personel silinmez; işten ayrılma is_active=false ile işaretlenir. Üzerinde
// açık zimmet varken pasife çekilemez.
func UpdateEmployeeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var employee models.Employee
		if err := database.DB.First(&employee, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Personel bulunamadı")
		}

		var body UpdateEmployeeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		before := employee

		if body.FirstName != nil {
			name := strings.TrimSpace(*body.FirstName)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Ad boş olamaz")
			}
			employee.FirstName = name
		}
		if body.LastName != nil {
			name := strings.TrimSpace(*body.LastName)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Soyad boş olamaz")
			}
			employee.LastName = name
		}
		if body.Email != nil {
			email := strings.TrimSpace(strings.ToLower(*body.Email))
			if email == "" {
				return fiber.NewError(fiber.StatusBadRequest, "E-posta boş olamaz")
			}
			var existing models.Employee
			if err := database.DB.Where("email = ? AND id != ?", email, employee.ID).
				First(&existing).Error; err == nil {
				return fiber.NewError(fiber.StatusBadRequest, "Bu e-posta ile kayıtlı başka personel var")
			}
			employee.Email = email
		}
		if body.Department != nil {
			employee.Department = strings.TrimSpace(*body.Department)
		}
		if body.Designation != nil {
			employee.Designation = strings.TrimSpace(*body.Designation)
		}
		if body.BranchID != nil {
			var branch models.Branch
			if err := database.DB.First(&branch, *body.BranchID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Şube bulunamadı")
			}
			employee.BranchID = *body.BranchID
		}
		if body.IsActive != nil {
			if !*body.IsActive && openAssignmentCount(employee.ID) > 0 {
				return fiber.NewError(fiber.StatusConflict, "Üzerinde zimmetli demirbaş olan personel pasife çekilemez, önce iadeleri alın")
			}
			employee.IsActive = *body.IsActive
		}

		if err := database.DB.Model(&models.Employee{}).
			Where("id = ?", employee.ID).
			Updates(map[string]interface{}{
				"first_name":  employee.FirstName,
				"last_name":   employee.LastName,
				"email":       employee.Email,
				"department":  employee.Department,
				"designation": employee.Designation,
				"branch_id":   employee.BranchID,
				"is_active":   employee.IsActive,
			}).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Personel güncellenemedi")
		}

		writeEmployeeAuditWithBefore(c, employee, before,
			fmt.Sprintf("Personel güncellendi: %s (%s)", employee.FullName(), employee.Code))

		var reloaded models.Employee
		if err := database.DB.Preload("Branch").First(&reloaded, employee.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Personel okunamadı")
		}
		return c.JSON(toEmployeeResponse(reloaded, openAssignmentCount(reloaded.ID)))
	}
}

// GET /api/employees/:id/assignments - personelin zimmet geçmişi
func EmployeeAssignmentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var employee models.Employee
		if err := database.DB.First(&employee, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Personel bulunamadı")
		}

		var assignments []models.Assignment
		if err := database.DB.Preload("Asset").
			Where("employee_id = ?", employee.ID).
			Order("issued_date DESC").Find(&assignments).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Zimmetler listelenemedi")
		}

		type row struct {
			ID           uint    `json:"id"`
			AssetID      uint    `json:"asset_id"`
			AssetCode    string  `json:"asset_code"`
			AssetName    string  `json:"asset_name"`
			IssuedDate   string  `json:"issued_date"`
			ReturnedDate *string `json:"returned_date"`
			ReturnReason *string `json:"return_reason"`
			Notes        string  `json:"notes"`
		}

		res := make([]row, 0, len(assignments))
		for _, a := range assignments {
			r := row{
				ID:         a.ID,
				AssetID:    a.AssetID,
				IssuedDate: a.IssuedDate.Format("2006-01-02 15:04:05"),
				Notes:      a.Notes,
			}
			if a.Asset != nil {
				r.AssetCode = a.Asset.Code
				r.AssetName = a.Asset.Name
			}
			if a.ReturnedDate != nil {
				s := a.ReturnedDate.Format("2006-01-02 15:04:05")
				r.ReturnedDate = &s
			}
			if a.ReturnReason != nil {
				s := string(*a.ReturnReason)
				r.ReturnReason = &s
			}
			res = append(res, r)
		}
		return c.JSON(res)
	}
}

func writeEmployeeAudit(c *fiber.Ctx, action models.AuditAction, employee models.Employee, desc string) {
	uid, _ := c.Locals(auth.CtxUserIDKey).(uint)
	uname, _ := c.Locals(auth.CtxUserNameKey).(string)
	_ = audit.WriteLog(audit.LogOptions{
		UserID:      uid,
		UserName:    uname,
		EntityType:  "employee",
		EntityID:    employee.ID,
		Action:      action,
		Description: desc,
		After:       employee,
	})
	cache.Invalidate(c.Context(), "dashboard")
}

func writeEmployeeAuditWithBefore(c *fiber.Ctx, employee, before models.Employee, desc string) {
	uid, _ := c.Locals(auth.CtxUserIDKey).(uint)
	uname, _ := c.Locals(auth.CtxUserNameKey).(string)
	_ = audit.WriteLog(audit.LogOptions{
		UserID:      uid,
		UserName:    uname,
		EntityType:  "employee",
		EntityID:    employee.ID,
		Action:      models.AuditActionUpdate,
		Description: desc,
		Before:      before,
		After:       employee,
	})
	cache.Invalidate(c.Context(), "dashboard")
}
