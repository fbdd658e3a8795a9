package models

// CodeSequence - Demirbaş/personel kodu üretimi için sayaç tablosu.
// Satırlar database.Init içinde seed edilir, artırma codegen paketinde ve
// her zaman çağıranın transaction'ı içinde yapılır.
type CodeSequence struct {
	Kind  string `gorm:"primaryKey;size:20"` // "asset" | "employee"
	Value int64  `gorm:"not null"`
}
