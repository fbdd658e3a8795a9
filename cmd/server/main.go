package main

import (
	"log"
	"strings"

	"zimmet-backend/internal/admin"
	"zimmet-backend/internal/assets"
	"zimmet-backend/internal/audit"
	"zimmet-backend/internal/auth"
	"zimmet-backend/internal/cache"
	"zimmet-backend/internal/config"
	"zimmet-backend/internal/dashboard"
	"zimmet-backend/internal/database"
	"zimmet-backend/internal/employees"
	"zimmet-backend/internal/lifecycle"
	"zimmet-backend/internal/models"
	"zimmet-backend/internal/reports"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
)

func main() {
	// .env varsa yükle, yoksa ortam değişkenleriyle devam
	if err := godotenv.Load(); err != nil {
		log.Println(".env dosyası bulunamadı, ortam değişkenleri kullanılacak")
	}

	cfg := config.Load()
	database.Init(cfg)
	cache.Init(cfg.RedisAddr)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Beklenmeyen sunucu hatası",
			})
		},
	})

	// CORS origins'i virgülle ayrılmış string'den array'e çevir
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-super-admin", auth.RegisterSuperAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Super admin routes
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleSuperAdmin))

	// Şube yönetimi
	adminRoutes.Post("/branches", admin.CreateBranchHandler())
	adminRoutes.Get("/branches", admin.ListBranchesHandler())
	adminRoutes.Get("/branches/:id", admin.GetBranchHandler())
	adminRoutes.Put("/branches/:id", admin.UpdateBranchHandler())
	adminRoutes.Delete("/branches/:id", admin.DeleteBranchHandler())
	adminRoutes.Post("/branches/:id/admin", admin.CreateBranchAdminHandler())
	adminRoutes.Get("/branches/:id/admins", admin.ListBranchAdminsHandler())

	// Kategori yönetimi (silme sadece super admin)
	adminRoutes.Delete("/categories/:id", assets.DeleteCategoryHandler())

	// Ortak (auth gerektiren) route'lar

	// Kategoriler
	protected.Get("/categories", assets.ListCategoriesHandler())
	protected.Post("/categories", assets.CreateCategoryHandler())
	protected.Put("/categories/:id", assets.UpdateCategoryHandler())

	// Demirbaşlar
	protected.Get("/assets", assets.ListAssetsHandler())
	protected.Post("/assets", assets.CreateAssetHandler())
	protected.Post("/assets/bulk-import", assets.BulkImportAssetsHandler())
	protected.Get("/assets/:id", assets.GetAssetHandler())
	protected.Put("/assets/:id", assets.UpdateAssetHandler())
	protected.Get("/assets/:id/history", assets.AssetHistoryHandler())
	protected.Get("/history", assets.ListHistoryHandler())

	// Zimmet yaşam döngüsü
	protected.Post("/assets/:id/issue", lifecycle.IssueAssetHandler())
	protected.Post("/assets/:id/return", lifecycle.ReturnAssetHandler())
	protected.Post("/assets/:id/scrap", lifecycle.ScrapAssetHandler())
	protected.Get("/assignments", lifecycle.ListAssignmentsHandler())

	// Personel
	protected.Get("/employees", employees.ListEmployeesHandler())
	protected.Post("/employees", employees.CreateEmployeeHandler())
	protected.Get("/employees/:id", employees.GetEmployeeHandler())
	protected.Put("/employees/:id", employees.UpdateEmployeeHandler())
	protected.Get("/employees/:id/assignments", employees.EmployeeAssignmentsHandler())

	// Dashboard
	protected.Get("/dashboard/stats", dashboard.StatsHandler())

	// Raporlar
	protected.Get("/stock-summary", reports.StockSummaryHandler())
	protected.Get("/reports/scrapped", reports.ScrappedReportHandler())
	protected.Get("/reports/scrapped/export", reports.ExportScrappedReportHandler())
	protected.Get("/reports/utilization", reports.UtilizationReportHandler())
	protected.Get("/reports/utilization/export", reports.ExportUtilizationReportHandler())
	protected.Get("/reports/stock-summary", reports.StockSummaryHandler())
	protected.Get("/reports/stock-summary/export", reports.ExportStockSummaryHandler())

	// Audit logs
	protected.Get("/audit-logs", audit.ListAuditLogsHandler())

	log.Println("Server çalışıyor port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
