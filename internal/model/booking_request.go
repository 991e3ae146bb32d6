package model

import "time"

// BookingRequest — входной DTO бронирования от API-слоя.
type BookingRequest struct {
	TeacherID      int64     `json:"teacher_id"`
	StudentID      int64     `json:"student_id"`
	Date           time.Time `json:"date"`
	Duration       int       `json:"duration"` // 30 или 60 минут
	Timezone       string    `json:"timezone"`
	IsRecurring    bool      `json:"is_recurring"`
	RecurringWeeks int       `json:"recurring_weeks"` // 0 = значение по умолчанию
}
