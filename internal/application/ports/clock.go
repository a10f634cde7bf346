package ports

import "time"

// Clock abstrae la hora actual para poder fijarla en pruebas y en los
// barridos programados (todas las reglas de fechas dependen de "hoy").
type Clock interface {
	Now() time.Time
}

// SystemClock implementación real sobre time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
