// Package timegrid содержит чистую арифметику сетки расписания:
// подсчёт дней недели в месяце, разбиение окна на 30-минутные ячейки,
// проверки пересечений. Без I/O.
package timegrid

import (
	"fmt"
	"regexp"
	"time"
)

// SlotMinutes — шаг сетки. Сетка всегда 30-минутная: часовой урок
// выражается как две соседние свободные ячейки.
const SlotMinutes = 30

var hhmmRe = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

// ParseHHMM разбирает строку времени "HH:MM" (24-часовой формат, строго).
func ParseHHMM(s string) (hour, minute int, err error) {
	m := hhmmRe.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, fmt.Errorf("invalid time format %q, expected HH:MM", s)
	}
	// регулярка гарантирует две цифры в каждой группе
	hour = int(m[1][0]-'0')*10 + int(m[1][1]-'0')
	minute = int(m[2][0]-'0')*10 + int(m[2][1]-'0')
	return hour, minute, nil
}

// HHMM форматирует время момента t как "HH:MM".
func HHMM(t time.Time) string {
	return t.Format("15:04")
}

// WeekdayOccurrences считает, сколько раз день недели встречается
// в указанном календарном месяце.
func WeekdayOccurrences(weekday time.Weekday, year int, month time.Month) int {
	count := 0
	for d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC); d.Month() == month; d = d.AddDate(0, 0, 1) {
		if d.Weekday() == weekday {
			count++
		}
	}
	return count
}

// SlotStarts перечисляет начала 30-минутных ячеек внутри окна "HH:MM".."HH:MM"
// на заданный день. Последняя ячейка попадает в сетку только если её конец
// не выходит за границу окна.
func SlotStarts(day time.Time, startHHMM, endHHMM string, loc *time.Location) ([]time.Time, error) {
	sh, sm, err := ParseHHMM(startHHMM)
	if err != nil {
		return nil, fmt.Errorf("window start: %w", err)
	}
	eh, em, err := ParseHHMM(endHHMM)
	if err != nil {
		return nil, fmt.Errorf("window end: %w", err)
	}

	windowStart := time.Date(day.Year(), day.Month(), day.Day(), sh, sm, 0, 0, loc)
	windowEnd := time.Date(day.Year(), day.Month(), day.Day(), eh, em, 0, 0, loc)

	var starts []time.Time
	step := SlotMinutes * time.Minute
	for cur := windowStart; !cur.Add(step).After(windowEnd); cur = cur.Add(step) {
		starts = append(starts, cur)
	}
	return starts, nil
}

// Overlaps проверяет пересечение полуоткрытых интервалов [aStart, aEnd) и [bStart, bEnd).
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// TruncateToMinute отбрасывает секунды и наносекунды: сетка строится
// на целых минутах, и сравнение дат должно совпадать с её границами.
func TruncateToMinute(t time.Time) time.Time {
	return t.Truncate(time.Minute)
}

// DayStart возвращает полночь того же дня в указанной локации.
func DayStart(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
