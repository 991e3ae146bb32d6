package model

import "time"

// LessonSettings — настройки уроков учителя: какие длительности доступны
// и сколько они стоят. Одна запись на учителя.
type LessonSettings struct {
	ID                 int64     `json:"id"`
	TeacherID          int64     `json:"teacher_id"`
	Allows30Min        bool      `json:"allows_30_min"`
	Allows60Min        bool      `json:"allows_60_min"`
	Price30Min         int       `json:"price_30_min"` // в копейках/центах
	Price60Min         int       `json:"price_60_min"` // в копейках/центах
	AdvanceBookingDays int       `json:"advance_booking_days"` // 1..90
	UpdatedAt          time.Time `json:"updated_at"`
}

// PriceFor возвращает цену за урок указанной длительности.
func (s *LessonSettings) PriceFor(duration int) int {
	if duration == Duration60Min {
		return s.Price60Min
	}
	return s.Price30Min
}

// AllowsDuration проверяет, включена ли длительность в настройках.
func (s *LessonSettings) AllowsDuration(duration int) bool {
	switch duration {
	case Duration30Min:
		return s.Allows30Min
	case Duration60Min:
		return s.Allows60Min
	default:
		return false
	}
}
