// Package cache dashboard ve rapor sorguları için opsiyonel bir redis
// katmanıdır. Anahtarlar entity türüyle öneklenir ("assets:...") ve her yazma
// yolu ilgili türleri invalidate eder; kaynak doğruluk her zaman Postgres'tir.
// REDIS_ADDR boşsa tüm fonksiyonlar no-op çalışır.
package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

var rdb *redis.Client

const defaultTTL = 5 * time.Minute

func Init(addr string) {
	if addr == "" {
		log.Println("REDIS_ADDR tanımlı değil, sorgu cache'i devre dışı")
		return
	}

	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("[WARN] Redis'e bağlanılamadı (%s), cache devre dışı: %v", addr, err)
		return
	}

	rdb = client
	log.Println("Redis cache aktif:", addr)
}

func Enabled() bool {
	return rdb != nil
}

// GetJSON - anahtar varsa dest'e unmarshal eder, true döner.
func GetJSON(ctx context.Context, key string, dest any) bool {
	if rdb == nil {
		return false
	}
	raw, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		// Bozuk cache girdisi, sil ve yokmuş gibi davran
		rdb.Del(ctx, key)
		return false
	}
	return true
}

func SetJSON(ctx context.Context, key string, v any) {
	if rdb == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := rdb.Set(ctx, key, raw, defaultTTL).Err(); err != nil {
		log.Printf("Cache yazılamadı (%s): %v", key, err)
	}
}

// Invalidate - verilen entity türlerine ait tüm anahtarları siler.
// KEYS taraması düşük hacimli dahili araç için yeterli.
func Invalidate(ctx context.Context, kinds ...string) {
	if rdb == nil {
		return
	}
	for _, kind := range kinds {
		keys, err := rdb.Keys(ctx, kind+":*").Result()
		if err != nil || len(keys) == 0 {
			continue
		}
		if err := rdb.Del(ctx, keys...).Err(); err != nil {
			log.Printf("Cache invalidate hatası (%s): %v", kind, err)
		}
	}
}
