package ports

import "time"

// Cache puerto mínimo de caché con TTL para lecturas calientes (configuración
// de cobranza, estadísticas). Las escrituras invalidan con Delete.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
	Delete(key string)
}
