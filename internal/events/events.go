// Package events — доменные события движка. Сам движок уведомлений не шлёт:
// события публикуются после коммита, их слушает внешняя подсистема
// (почта, инвойсы). Публикация не блокирует запрос.
package events

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Type string

const (
	TypeLessonBooked           Type = "lesson.booked"
	TypeLessonCancelled        Type = "lesson.cancelled"
	TypeRecurringSlotBooked    Type = "recurring_slot.booked"
	TypeRecurringSlotCancelled Type = "recurring_slot.cancelled"
)

type Event struct {
	Type            Type      `json:"type"`
	TeacherID       int64     `json:"teacher_id"`
	StudentID       int64     `json:"student_id"`
	LessonID        int64     `json:"lesson_id,omitempty"`
	RecurringSlotID int64     `json:"recurring_slot_id,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// Publisher доставляет события внешним подписчикам.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// LogPublisher пишет события в лог. Используется, пока внешняя шина
// не подключена.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, event Event) {
	p.logger.Info("Domain event",
		zap.String("type", string(event.Type)),
		zap.Int64("teacher_id", event.TeacherID),
		zap.Int64("student_id", event.StudentID),
		zap.Int64("lesson_id", event.LessonID),
		zap.Int64("recurring_slot_id", event.RecurringSlotID),
		zap.Time("occurred_at", event.OccurredAt),
	)
}

// NopPublisher отбрасывает события. Удобен в тестах.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) {}
