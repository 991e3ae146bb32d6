package model

import (
	"time"

	"github.com/google/uuid"
)

type LessonStatus string

const (
	LessonStatusScheduled LessonStatus = "scheduled" // Запланирован
	LessonStatusCompleted LessonStatus = "completed" // Проведён
	LessonStatusCancelled LessonStatus = "cancelled" // Отменён
	LessonStatusMissed    LessonStatus = "missed"    // Пропущен студентом
)

// Поддерживаемые длительности уроков в минутах.
const (
	Duration30Min = 30
	Duration60Min = 60
)

// Lesson — конкретный забронированный урок. Дата всегда нормализована до
// целой минуты. Поле Version — счётчик оптимистичной блокировки, начинается с 1.
type Lesson struct {
	ID              int64        `json:"id"`
	TeacherID       int64        `json:"teacher_id"`
	StudentID       int64        `json:"student_id"`
	Date            time.Time    `json:"date"`
	Duration        int          `json:"duration"` // 30 или 60 минут
	Timezone        string       `json:"timezone"`
	Price           int          `json:"price"` // в копейках/центах
	Status          LessonStatus `json:"status"`
	IsRecurring     bool         `json:"is_recurring"`
	RecurringID     *uuid.UUID   `json:"recurring_id"`      // идентификатор серии, nil для разовых
	RecurringSlotID *int64       `json:"recurring_slot_id"` // указатель - может быть nil
	Version         int          `json:"version"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// End возвращает момент окончания урока.
func (l *Lesson) End() time.Time {
	return l.Date.Add(time.Duration(l.Duration) * time.Minute)
}
