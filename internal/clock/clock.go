// Package clock — внедряемый источник времени. Движок никогда не читает
// time.Now напрямую: в тестах запросы ставятся до/после границы слота
// детерминированно.
package clock

import (
	"sync"
	"time"
)

// Clock отдаёт текущий момент времени.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// System возвращает часы на основе системного времени.
func System() Clock {
	return systemClock{}
}

// Mock — управляемые часы для тестов.
type Mock struct {
	mu      sync.Mutex
	current time.Time
}

// NewMock создаёт часы, установленные на указанный момент.
func NewMock(start time.Time) *Mock {
	return &Mock{current: start}
}

func (m *Mock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Set переводит часы на указанный момент.
func (m *Mock) Set(t time.Time) {
	m.mu.Lock()
	m.current = t
	m.mu.Unlock()
}

// Advance сдвигает часы вперёд и возвращает новое время.
func (m *Mock) Advance(d time.Duration) time.Time {
	m.mu.Lock()
	m.current = m.current.Add(d)
	updated := m.current
	m.mu.Unlock()
	return updated
}
