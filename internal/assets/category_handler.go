package assets

import (
	"strings"

	"zimmet-backend/internal/cache"
	"zimmet-backend/internal/database"
	"zimmet-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CategoryResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	AssetCount  int64  `json:"asset_count"` // hurdalar hariç
	CreatedAt   string `json:"created_at"`
}

type CreateCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type UpdateCategoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func categoryResponse(cat models.Category, assetCount int64) CategoryResponse {
	return CategoryResponse{
		ID:          cat.ID,
		Name:        cat.Name,
		Description: cat.Description,
		AssetCount:  assetCount,
		CreatedAt:   cat.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// GET /api/categories
func ListCategoriesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var categories []models.Category
		if err := database.DB.Order("name asc").Find(&categories).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategoriler listelenemedi")
		}

		res := make([]CategoryResponse, 0, len(categories))
		for _, cat := range categories {
			var count int64
			database.DB.Model(&models.Asset{}).
				Where("category_id = ? AND status != ?", cat.ID, models.AssetScrapped).
				Count(&count)
			res = append(res, categoryResponse(cat, count))
		}
		return c.JSON(res)
	}
}

// POST /api/categories
func CreateCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateCategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Kategori adı zorunlu")
		}

		var existing models.Category
		if err := database.DB.Where("name = ?", body.Name).First(&existing).Error; err == nil {
			return fiber.NewError(fiber.StatusBadRequest, "Bu isimde bir kategori zaten var")
		}

		cat := models.Category{
			Name:        body.Name,
			Description: strings.TrimSpace(body.Description),
		}

		if err := database.DB.Create(&cat).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategori oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(categoryResponse(cat, 0))
	}
}

// PUT /api/categories/:id
func UpdateCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var cat models.Category
		if err := database.DB.First(&cat, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Kategori bulunamadı")
		}

		var body UpdateCategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Kategori adı boş olamaz")
			}
			var existing models.Category
			if err := database.DB.Where("name = ? AND id != ?", name, id).First(&existing).Error; err == nil {
				return fiber.NewError(fiber.StatusBadRequest, "Bu isimde bir kategori zaten var")
			}
			cat.Name = name
		}
		if body.Description != nil {
			cat.Description = strings.TrimSpace(*body.Description)
		}

		if err := database.DB.Save(&cat).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategori güncellenemedi")
		}

		// Rapor ve panodaki kategori adları önbellekte kalmasın
		cache.Invalidate(c.Context(), "dashboard", "reports")

		var count int64
		database.DB.Model(&models.Asset{}).
			Where("category_id = ? AND status != ?", cat.ID, models.AssetScrapped).
			Count(&count)

		return c.JSON(categoryResponse(cat, count))
	}
}

// DELETE /api/categories/:id
func DeleteCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var cat models.Category
		if err := database.DB.First(&cat, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Kategori bulunamadı")
		}

		// Hurdaya ayrılmamış demirbaşı olan kategori silinemez. Sadece hurda
		// kayıtları kalan kategori silinebilir; hurda listesi kategori adını
		// zorunlu tutmaz.
		var count int64
		database.DB.Model(&models.Asset{}).
			Where("category_id = ? AND status != ?", id, models.AssetScrapped).
			Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Bu kategoriye ait demirbaşlar var, kategori silinemez")
		}

		if err := database.DB.Delete(&cat).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategori silinemedi")
		}

		cache.Invalidate(c.Context(), "dashboard", "reports")

		return c.SendStatus(fiber.StatusNoContent)
	}
}
