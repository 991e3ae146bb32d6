package model

import "time"

type RecurringSlotStatus string

const (
	RecurringSlotStatusActive    RecurringSlotStatus = "active"
	RecurringSlotStatusCancelled RecurringSlotStatus = "cancelled"
	RecurringSlotStatusSuspended RecurringSlotStatus = "suspended"
)

// RecurringSlot — постоянная еженедельная бронь: день недели + время.
// Хранит цену за урок, а не за месяц: месячная ставка пересчитывается
// по фактическому количеству дней недели в месяце.
type RecurringSlot struct {
	ID             int64               `json:"id"`
	TeacherID      int64               `json:"teacher_id"`
	StudentID      int64               `json:"student_id"`
	DayOfWeek      int                 `json:"day_of_week"` // 0 = Sunday, 6 = Saturday
	StartTime      string              `json:"start_time"`  // "HH:MM"
	Duration       int                 `json:"duration"`    // 30 или 60 минут
	PerLessonPrice int                 `json:"per_lesson_price"` // в копейках/центах
	Status         RecurringSlotStatus `json:"status"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}
