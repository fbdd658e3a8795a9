package assets

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"zimmet-backend/internal/auth"
	"zimmet-backend/internal/database"
	"zimmet-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// stubAuth - JWT middleware yerine test kullanıcısını locals'a koyar
func stubAuth(userID uint, name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(auth.CtxUserIDKey, userID)
		c.Locals(auth.CtxUserNameKey, name)
		c.Locals(auth.CtxUserRoleKey, models.RoleSuperAdmin)
		return c.Next()
	}
}

func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Branch{},
		&models.User{},
		&models.Category{},
		&models.Employee{},
		&models.Asset{},
		&models.Assignment{},
		&models.HistoryRecord{},
		&models.AuditLog{},
		&models.CodeSequence{},
	))
	require.NoError(t, database.SeedCodeSequences(db))

	prev := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = prev })

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{"error": e.Message})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})
	app.Use(stubAuth(1, "Test Admin"))

	app.Get("/api/categories", ListCategoriesHandler())
	app.Post("/api/categories", CreateCategoryHandler())
	app.Put("/api/categories/:id", UpdateCategoryHandler())
	app.Delete("/api/categories/:id", DeleteCategoryHandler())
	app.Post("/api/assets", CreateAssetHandler())
	app.Get("/api/assets", ListAssetsHandler())
	app.Get("/api/history", ListHistoryHandler())

	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestCategoryCRUD(t *testing.T) {
	app := setupApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/categories", CreateCategoryRequest{
		Name: "Laptop", Description: "Taşınabilir bilgisayarlar",
	})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	created := decode[CategoryResponse](t, resp)
	assert.Equal(t, "Laptop", created.Name)

	// Aynı isim ikinci kez reddedilir
	resp = doJSON(t, app, http.MethodPost, "/api/categories", CreateCategoryRequest{Name: "Laptop"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/categories", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	list := decode[[]CategoryResponse](t, resp)
	assert.Len(t, list, 1)

	newName := "Dizüstü"
	resp = doJSON(t, app, http.MethodPut, fmt.Sprintf("/api/categories/%d", created.ID),
		UpdateCategoryRequest{Name: &newName})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	updated := decode[CategoryResponse](t, resp)
	assert.Equal(t, "Dizüstü", updated.Name)
}

func TestDeleteCategoryBlockedWhileAssetsExist(t *testing.T) {
	app := setupApp(t)

	branch := models.Branch{Name: "Merkez"}
	require.NoError(t, database.DB.Create(&branch).Error)

	resp := doJSON(t, app, http.MethodPost, "/api/categories", CreateCategoryRequest{Name: "Laptop"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	cat := decode[CategoryResponse](t, resp)

	resp = doJSON(t, app, http.MethodPost, "/api/assets", CreateAssetRequest{
		SerialNumber:  "SN-42",
		Name:          "ThinkPad T14",
		CategoryID:    cat.ID,
		BranchID:      branch.ID,
		PurchaseDate:  time.Now().AddDate(0, -1, 0).Format("2006-01-02"),
		PurchasePrice: 45000,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	asset := decode[AssetResponse](t, resp)
	assert.Equal(t, "DMB-0001", asset.Code)

	// Kategoriye bağlı demirbaş varken silme reddedilir
	resp = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/api/categories/%d", cat.ID), nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// Sadece hurda kayıtları kalan kategori silinebilir
	require.NoError(t, database.DB.Model(&models.Asset{}).
		Where("id = ?", asset.ID).Update("status", models.AssetScrapped).Error)
	resp = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/api/categories/%d", cat.ID), nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestDeleteEmptyCategory(t *testing.T) {
	app := setupApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/categories", CreateCategoryRequest{Name: "Monitör"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	cat := decode[CategoryResponse](t, resp)

	resp = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/api/categories/%d", cat.ID), nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestGlobalHistoryLedger(t *testing.T) {
	app := setupApp(t)

	branch := models.Branch{Name: "Merkez"}
	require.NoError(t, database.DB.Create(&branch).Error)

	resp := doJSON(t, app, http.MethodPost, "/api/categories", CreateCategoryRequest{Name: "Laptop"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	cat := decode[CategoryResponse](t, resp)

	var created []AssetResponse
	for _, name := range []string{"ThinkPad T14", "Latitude 5440"} {
		resp = doJSON(t, app, http.MethodPost, "/api/assets", CreateAssetRequest{
			Name:          name,
			CategoryID:    cat.ID,
			BranchID:      branch.ID,
			PurchaseDate:  "2024-01-15",
			PurchasePrice: 40000,
		})
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
		created = append(created, decode[AssetResponse](t, resp))
	}

	// Eski tarihli bir zimmet kaydı eklenir; defter yine tarihe göre sıralamalı
	require.NoError(t, database.DB.Create(&models.HistoryRecord{
		AssetID:    created[0].ID,
		Action:     models.ActionIssued,
		ActionDate: time.Now().AddDate(0, 0, -7),
	}).Error)

	resp = doJSON(t, app, http.MethodGet, "/api/history", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	ledger := decode[[]GlobalHistoryResponse](t, resp)
	require.Len(t, ledger, 3)

	// En yeni kayıt başta, eski zimmet kaydı sonda
	assert.Equal(t, "Latitude 5440", ledger[0].AssetName)
	assert.Equal(t, "DMB-0002", ledger[0].AssetCode)
	assert.Equal(t, models.ActionIssued, ledger[2].Action)

	resp = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/history?asset_id=%d", created[1].ID), nil)
	ledger = decode[[]GlobalHistoryResponse](t, resp)
	require.Len(t, ledger, 1)
	assert.Equal(t, models.ActionPurchased, ledger[0].Action)

	resp = doJSON(t, app, http.MethodGet, "/api/history?action=issued", nil)
	ledger = decode[[]GlobalHistoryResponse](t, resp)
	require.Len(t, ledger, 1)
	assert.Equal(t, created[0].ID, ledger[0].AssetID)
}

func TestListAssetsStatusFilter(t *testing.T) {
	app := setupApp(t)

	branch := models.Branch{Name: "Merkez"}
	require.NoError(t, database.DB.Create(&branch).Error)

	resp := doJSON(t, app, http.MethodPost, "/api/categories", CreateCategoryRequest{Name: "Laptop"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	cat := decode[CategoryResponse](t, resp)

	for _, name := range []string{"ThinkPad T14", "Latitude 5440"} {
		resp = doJSON(t, app, http.MethodPost, "/api/assets", CreateAssetRequest{
			Name:          name,
			CategoryID:    cat.ID,
			BranchID:      branch.ID,
			PurchaseDate:  "2024-01-15",
			PurchasePrice: 40000,
		})
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	}

	resp = doJSON(t, app, http.MethodGet, "/api/assets?status=available", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	list := decode[[]AssetResponse](t, resp)
	assert.Len(t, list, 2)

	resp = doJSON(t, app, http.MethodGet, "/api/assets?status=assigned", nil)
	list = decode[[]AssetResponse](t, resp)
	assert.Empty(t, list)

	resp = doJSON(t, app, http.MethodGet, "/api/assets?q=latitude", nil)
	list = decode[[]AssetResponse](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, "Latitude 5440", list[0].Name)
}
