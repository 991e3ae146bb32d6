package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rosswilliamsdev/guitar-strategies-app-sub000/internal/clock"
	"github.com/rosswilliamsdev/guitar-strategies-app-sub000/internal/model"
	"github.com/rosswilliamsdev/guitar-strategies-app-sub000/internal/repository"
	"github.com/rosswilliamsdev/guitar-strategies-app-sub000/internal/timegrid"
)

// GracePeriod — окно после номинального начала слота, в течение которого его
// ещё можно забронировать. Слот недоступен строго после start + GracePeriod.
const GracePeriod = time.Hour

// AvailabilityService строит сетку доступных слотов из еженедельных окон
// учителя и уже занятых уроков, и валидирует настройки доступности.
type AvailabilityService struct {
	availabilityRepo *repository.AvailabilityRepository
	settingsRepo     *repository.SettingsRepository
	lessonRepo       *repository.LessonRepository
	clock            clock.Clock
	logger           *zap.Logger
}

func NewAvailabilityService(
	availabilityRepo *repository.AvailabilityRepository,
	settingsRepo *repository.SettingsRepository,
	lessonRepo *repository.LessonRepository,
	clk clock.Clock,
	logger *zap.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		availabilityRepo: availabilityRepo,
		settingsRepo:     settingsRepo,
		lessonRepo:       lessonRepo,
		clock:            clk,
		logger:           logger,
	}
}

// GetAvailableSlots строит сетку 30-минутных слотов учителя на диапазон дат.
// Возвращает и доступные, и недоступные слоты: фильтрация — забота вызывающего.
// Если у учителя нет настроек или активных окон — пустой список, не ошибка.
func (s *AvailabilityService) GetAvailableSlots(ctx context.Context, teacherID int64, startDate, endDate time.Time, timezone string) ([]*model.TimeSlot, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, NewValidationError("unknown timezone %q", timezone)
	}

	settings, err := s.settingsRepo.GetByTeacherID(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("get lesson settings: %w", err)
	}
	if settings == nil {
		// учитель не настроил уроки — бронировать нечего
		return nil, nil
	}

	windows, err := s.availabilityRepo.GetActiveByTeacherID(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("get availability windows: %w", err)
	}
	if len(windows) == 0 {
		return nil, nil
	}

	lessons, err := s.lessonRepo.GetOverlapping(ctx, teacherID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("get overlapping lessons: %w", err)
	}

	now := s.clock.Now()

	var slots []*model.TimeSlot
	for day := timegrid.DayStart(startDate, loc); day.Before(endDate); day = day.AddDate(0, 0, 1) {
		daySlots, err := buildDaySlots(day, windows, settings, lessons, now, loc)
		if err != nil {
			return nil, fmt.Errorf("build slots for %s: %w", day.Format("2006-01-02"), err)
		}
		slots = append(slots, daySlots...)
	}

	return slots, nil
}

// buildDaySlots строит слоты одного календарного дня: находит окна нужного
// дня недели, режет их на 30-минутные ячейки и вычисляет доступность каждой.
func buildDaySlots(day time.Time, windows []*model.AvailabilityWindow, settings *model.LessonSettings, lessons []*model.Lesson, now time.Time, loc *time.Location) ([]*model.TimeSlot, error) {
	weekday := int(day.Weekday())
	price := slotPrice(settings)

	var slots []*model.TimeSlot
	for _, window := range windows {
		if window.DayOfWeek != weekday {
			continue
		}

		starts, err := timegrid.SlotStarts(day, window.StartTime, window.EndTime, loc)
		if err != nil {
			return nil, fmt.Errorf("window %d: %w", window.ID, err)
		}

		for _, start := range starts {
			end := start.Add(timegrid.SlotMinutes * time.Minute)
			slots = append(slots, &model.TimeSlot{
				Start:     start,
				End:       end,
				Duration:  timegrid.SlotMinutes,
				Price:     price,
				Available: slotAvailable(start, end, lessons, now),
			})
		}
	}

	return slots, nil
}

// slotAvailable: ячейка недоступна, если её задевает любой неотменённый урок
// (полуоткрытые интервалы: часовой урок гасит обе свои половины) или если
// льготный час после начала уже истёк.
func slotAvailable(start, end time.Time, lessons []*model.Lesson, now time.Time) bool {
	if now.After(start.Add(GracePeriod)) {
		return false
	}
	for _, lesson := range lessons {
		if timegrid.Overlaps(lesson.Date, lesson.End(), start, end) {
			return false
		}
	}
	return true
}

// slotPrice — цена ячейки сетки. Ячейки получасовые, поэтому показываем цену
// 30-минутного урока; если включены только часовые — цену часового.
func slotPrice(settings *model.LessonSettings) int {
	if settings.Allows30Min {
		return settings.Price30Min
	}
	return settings.Price60Min
}

// ValidateAvailabilityWindows проверяет набор окон учителя: формат "HH:MM",
// start < end, день недели 0..6 и отсутствие пересечений внутри одного дня.
func (s *AvailabilityService) ValidateAvailabilityWindows(teacherID int64, windows []*model.AvailabilityWindow) error {
	for _, w := range windows {
		if w.TeacherID != teacherID {
			return NewValidationError("availability window does not belong to this teacher")
		}
		if w.DayOfWeek < 0 || w.DayOfWeek > 6 {
			return NewValidationError("day of week must be between 0 and 6")
		}

		sh, sm, err := timegrid.ParseHHMM(w.StartTime)
		if err != nil {
			return NewValidationError("invalid start time %q, expected HH:MM", w.StartTime)
		}
		eh, em, err := timegrid.ParseHHMM(w.EndTime)
		if err != nil {
			return NewValidationError("invalid end time %q, expected HH:MM", w.EndTime)
		}
		if sh*60+sm >= eh*60+em {
			return NewValidationError("start time %s must be before end time %s", w.StartTime, w.EndTime)
		}
	}

	// попарная проверка пересечений в пределах одного дня недели,
	// включая полное вложение одного окна в другое
	for i := 0; i < len(windows); i++ {
		for j := i + 1; j < len(windows); j++ {
			a, b := windows[i], windows[j]
			if a.DayOfWeek != b.DayOfWeek {
				continue
			}
			if a.StartTime < b.EndTime && a.EndTime > b.StartTime {
				return NewValidationError("availability windows overlap on day %d: %s-%s and %s-%s",
					a.DayOfWeek, a.StartTime, a.EndTime, b.StartTime, b.EndTime)
			}
		}
	}

	return nil
}

// ValidateLessonSettings проверяет настройки уроков: хотя бы одна длительность
// включена, у включённых положительная цена, окно записи в пределах 1..90 дней.
func (s *AvailabilityService) ValidateLessonSettings(settings *model.LessonSettings) error {
	if !settings.Allows30Min && !settings.Allows60Min {
		return NewValidationError("at least one lesson duration must be enabled")
	}
	if settings.Allows30Min && settings.Price30Min <= 0 {
		return NewValidationError("30-minute lessons require a positive price")
	}
	if settings.Allows60Min && settings.Price60Min <= 0 {
		return NewValidationError("60-minute lessons require a positive price")
	}
	if settings.AdvanceBookingDays < 1 || settings.AdvanceBookingDays > 90 {
		return NewValidationError("advance booking window must be between 1 and 90 days")
	}
	return nil
}

// SaveLessonSettings валидирует и сохраняет настройки уроков учителя.
func (s *AvailabilityService) SaveLessonSettings(ctx context.Context, settings *model.LessonSettings) error {
	if err := s.ValidateLessonSettings(settings); err != nil {
		return err
	}

	if err := s.settingsRepo.Upsert(ctx, settings); err != nil {
		return fmt.Errorf("save lesson settings: %w", err)
	}

	s.logger.Info("Lesson settings saved",
		zap.Int64("teacher_id", settings.TeacherID),
		zap.Bool("allows_30_min", settings.Allows30Min),
		zap.Bool("allows_60_min", settings.Allows60Min),
	)

	return nil
}

// AddWindow добавляет окно доступности, проверив его вместе с уже активными.
func (s *AvailabilityService) AddWindow(ctx context.Context, window *model.AvailabilityWindow) error {
	existing, err := s.availabilityRepo.GetActiveByTeacherID(ctx, window.TeacherID)
	if err != nil {
		return fmt.Errorf("get availability windows: %w", err)
	}

	window.IsActive = true
	if err := s.ValidateAvailabilityWindows(window.TeacherID, append(existing, window)); err != nil {
		return err
	}

	if err := s.availabilityRepo.Create(ctx, window); err != nil {
		return fmt.Errorf("create availability window: %w", err)
	}

	s.logger.Info("Availability window added",
		zap.Int64("teacher_id", window.TeacherID),
		zap.Int("day_of_week", window.DayOfWeek),
		zap.String("start_time", window.StartTime),
		zap.String("end_time", window.EndTime),
	)

	return nil
}

// RemoveWindow деактивирует окно доступности.
func (s *AvailabilityService) RemoveWindow(ctx context.Context, windowID int64) error {
	if err := s.availabilityRepo.Deactivate(ctx, windowID); err != nil {
		return fmt.Errorf("deactivate availability window: %w", err)
	}
	return nil
}
