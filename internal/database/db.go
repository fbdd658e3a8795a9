package database

import (
	"log"

	"zimmet-backend/internal/config"
	"zimmet-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Veritabanına bağlanılamadı: %v", err)
	}

	err = DB.AutoMigrate(
		&models.Branch{},
		&models.User{},
		&models.Category{},
		&models.Employee{},
		&models.Asset{},
		&models.Assignment{},
		&models.HistoryRecord{},
		&models.AuditLog{},
		&models.CodeSequence{},
	)
	if err != nil {
		log.Fatalf("AutoMigrate hatası: %v", err)
	}

	if err := SeedCodeSequences(DB); err != nil {
		log.Fatalf("Kod sayaçları oluşturulamadı: %v", err)
	}

	// Bir demirbaşın aynı anda en fazla bir açık zimmeti olabilir.
	// GORM tag'leriyle ifade edilemiyor, partial unique index manuel eklenir.
	if err := DB.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_assignments_open_asset
		ON assignments(asset_id) WHERE returned_date IS NULL
	`).Error; err != nil {
		log.Printf("Açık zimmet index'i eklenirken hata (zaten var olabilir): %v", err)
	}

	log.Println("Veritabanı bağlantısı başarılı. Migration tamamlandı.")
}

// SeedCodeSequences - codegen sayaç satırlarını oluşturur (varsa dokunmaz).
// Testlerdeki sqlite veritabanı için de çağrılır.
func SeedCodeSequences(db *gorm.DB) error {
	for _, kind := range []string{"asset", "employee"} {
		var count int64
		if err := db.Model(&models.CodeSequence{}).Where("kind = ?", kind).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if err := db.Create(&models.CodeSequence{Kind: kind, Value: 0}).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
