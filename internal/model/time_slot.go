package model

import "time"

// TimeSlot — эфемерная ячейка сетки доступности. Не хранится в базе:
// пересчитывается на каждый запрос из окон доступности и занятых уроков.
// Сетка всегда состоит из 30-минутных ячеек; часовой урок занимает две соседние.
type TimeSlot struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Duration  int       `json:"duration"` // всегда 30
	Price     int       `json:"price"`
	Available bool      `json:"available"`
}
