package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jhoicas/billing-core/internal/application/ports"
	"github.com/jhoicas/billing-core/internal/domain"
	"github.com/jhoicas/billing-core/internal/domain/entity"
)

// FixedClock reloj congelado en un instante. Advance lo mueve manualmente
// para simular el paso de los días entre barridos.
type FixedClock struct {
	now time.Time
}

// NewClock fija el reloj en la fecha dada (formato 2006-01-02).
func NewClock(date string) *FixedClock {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return &FixedClock{now: t}
}

func (c *FixedClock) Now() time.Time { return c.now }

// Advance mueve el reloj hacia adelante.
func (c *FixedClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// AdvanceDays mueve el reloj n días de calendario.
func (c *FixedClock) AdvanceDays(n int) { c.now = c.now.AddDate(0, 0, n) }

// Set coloca el reloj en una fecha exacta.
func (c *FixedClock) Set(date string) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	c.now = t
}

// FakeNotifier captura correos y notificaciones en memoria. FailEmails hace
// que SendEmail reporte fallo de transporte sin dejar de registrar el intento.
type FakeNotifier struct {
	mu          sync.Mutex
	Emails      []ports.EmailRequest
	Notes       []ports.NotificationRequest
	FailEmails  bool
	FailCreates bool
}

func NewNotifier() *FakeNotifier { return &FakeNotifier{} }

func (n *FakeNotifier) SendEmail(_ context.Context, req ports.EmailRequest) ports.EmailResult {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Emails = append(n.Emails, req)
	if n.FailEmails {
		return ports.EmailResult{Success: false, Error: "smtp no disponible"}
	}
	return ports.EmailResult{Success: true, MessageID: fmt.Sprintf("msg-%d", len(n.Emails))}
}

func (n *FakeNotifier) CreateNotification(_ context.Context, req ports.NotificationRequest) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.FailCreates {
		return domain.NewError("notificaciones fuera de servicio").Mark(domain.ErrExternalService)
	}
	n.Notes = append(n.Notes, req)
	return nil
}

// LastEmail devuelve el último correo enviado o nil si no hubo ninguno.
func (n *FakeNotifier) LastEmail() *ports.EmailRequest {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.Emails) == 0 {
		return nil
	}
	return &n.Emails[len(n.Emails)-1]
}

// FakeDirectory directorio de clientes con tabla fija.
type FakeDirectory struct {
	Clients map[string]*entity.Client
}

// NewDirectory crea un directorio con los clientes dados indexados por ID.
func NewDirectory(clients ...*entity.Client) *FakeDirectory {
	d := &FakeDirectory{Clients: make(map[string]*entity.Client)}
	for _, c := range clients {
		d.Clients[c.ID] = c
	}
	return d
}

func (d *FakeDirectory) FindByID(_ context.Context, id string) (*entity.Client, error) {
	c, ok := d.Clients[id]
	if !ok {
		return nil, domain.NewError("cliente %s no encontrado", id).Mark(domain.ErrNotFound)
	}
	return c, nil
}

func (d *FakeDirectory) Search(_ context.Context, query string) ([]*entity.Client, error) {
	var out []*entity.Client
	q := strings.ToLower(query)
	for _, c := range d.Clients {
		if strings.Contains(strings.ToLower(c.Name), q) || strings.Contains(strings.ToLower(c.Email), q) {
			out = append(out, c)
		}
	}
	return out, nil
}

// FakeCache caché en memoria sin expiración (los tests controlan el contenido
// a mano; el TTL real lo ejercita el adaptador de go-cache).
type FakeCache struct {
	mu      sync.Mutex
	entries map[string]any
	Sets    int
	Hits    int
}

func NewCache() *FakeCache { return &FakeCache{entries: make(map[string]any)} }

func (c *FakeCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	if ok {
		c.Hits++
	}
	return v, ok
}

func (c *FakeCache) Set(key string, value any, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	c.Sets++
}

func (c *FakeCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

var (
	_ ports.Clock           = (*FixedClock)(nil)
	_ ports.Notifier        = (*FakeNotifier)(nil)
	_ ports.ClientDirectory = (*FakeDirectory)(nil)
	_ ports.Cache           = (*FakeCache)(nil)
)
