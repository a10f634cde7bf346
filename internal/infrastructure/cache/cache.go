// Package cache adapta go-cache al puerto Cache del núcleo.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/jhoicas/billing-core/internal/application/ports"
)

var _ ports.Cache = (*Memory)(nil)

// Memory caché en memoria con TTL por entrada y limpieza periódica.
type Memory struct {
	c *gocache.Cache
}

// NewMemory construye la caché. defaultTTL aplica cuando la entrada no fija
// uno propio; la limpieza corre al doble del TTL.
func NewMemory(defaultTTL time.Duration) *Memory {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	return &Memory{c: gocache.New(defaultTTL, 2*defaultTTL)}
}

// Get obtiene una entrada vigente.
func (m *Memory) Get(key string) (any, bool) {
	return m.c.Get(key)
}

// Set guarda una entrada con el TTL dado (0 = TTL por defecto).
func (m *Memory) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	m.c.Set(key, value, ttl)
}

// Delete invalida una entrada.
func (m *Memory) Delete(key string) {
	m.c.Delete(key)
}
