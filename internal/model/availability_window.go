package model

import "time"

// AvailabilityWindow — еженедельное окно доступности учителя.
// Окна никогда не удаляются, только деактивируются.
type AvailabilityWindow struct {
	ID        int64     `json:"id"`
	TeacherID int64     `json:"teacher_id"`
	DayOfWeek int       `json:"day_of_week"` // 0 = Sunday, 6 = Saturday
	StartTime string    `json:"start_time"`  // "HH:MM", 24-часовой формат
	EndTime   string    `json:"end_time"`    // "HH:MM", строго позже start_time
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
