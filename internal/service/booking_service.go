package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/rosswilliamsdev/guitar-strategies-app-sub000/internal/clock"
	"github.com/rosswilliamsdev/guitar-strategies-app-sub000/internal/events"
	"github.com/rosswilliamsdev/guitar-strategies-app-sub000/internal/model"
	"github.com/rosswilliamsdev/guitar-strategies-app-sub000/internal/repository"
	"github.com/rosswilliamsdev/guitar-strategies-app-sub000/internal/retry"
	"github.com/rosswilliamsdev/guitar-strategies-app-sub000/internal/timegrid"
)

// BookingService валидирует запросы на бронирование и атомарно создаёт уроки.
// Конкурирующие запросы на одно и то же время сериализуются блокирующим
// чтением строки внутри транзакции; транзиентные сбои хранилища повторяются
// с бэкоффом.
type BookingService struct {
	pool         *pgxpool.Pool
	userRepo     *repository.UserRepository
	accessRepo   *repository.AccessRepository
	settingsRepo *repository.SettingsRepository
	lessonRepo   *repository.LessonRepository
	availability *AvailabilityService
	publisher    events.Publisher
	clock        clock.Clock
	retryPolicy  retry.Policy
	logger       *zap.Logger
}

func NewBookingService(
	pool *pgxpool.Pool,
	userRepo *repository.UserRepository,
	accessRepo *repository.AccessRepository,
	settingsRepo *repository.SettingsRepository,
	lessonRepo *repository.LessonRepository,
	availability *AvailabilityService,
	publisher events.Publisher,
	clk clock.Clock,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		pool:         pool,
		userRepo:     userRepo,
		accessRepo:   accessRepo,
		settingsRepo: settingsRepo,
		lessonRepo:   lessonRepo,
		availability: availability,
		publisher:    publisher,
		clock:        clk,
		retryPolicy:  retry.DefaultPolicy(),
		logger:       logger,
	}
}

// ValidateBooking прогоняет запрос через все проверки бронирования.
// Возвращает *ValidationError с сообщением для пользователя либо nil.
func (s *BookingService) ValidateBooking(ctx context.Context, req *model.BookingRequest) error {
	_, err := s.validateBooking(ctx, req)
	return err
}

// normalizeRequest возвращает копию запроса с датой, усечённой до минуты.
// Запрос вызывающего не меняется.
func normalizeRequest(req *model.BookingRequest) *model.BookingRequest {
	r := *req
	r.Date = timegrid.TruncateToMinute(r.Date)
	return &r
}

// validateBooking выполняет проверки по порядку, обрываясь на первой
// неудачной, и возвращает настройки учителя для расчёта цены.
func (s *BookingService) validateBooking(ctx context.Context, req *model.BookingRequest) (*model.LessonSettings, error) {
	req = normalizeRequest(req)

	// 1. Учитель существует и настроил уроки
	teacher, err := s.userRepo.GetByID(ctx, req.TeacherID)
	if err != nil {
		return nil, fmt.Errorf("get teacher: %w", err)
	}
	settings, err := s.settingsRepo.GetByTeacherID(ctx, req.TeacherID)
	if err != nil {
		return nil, fmt.Errorf("get lesson settings: %w", err)
	}
	if teacher == nil || !teacher.IsTeacher || settings == nil {
		return nil, NewValidationError("Teacher has not configured lesson settings")
	}

	// 2. Студент прикреплён к учителю
	hasAccess, err := s.accessRepo.HasAccess(ctx, req.StudentID, req.TeacherID)
	if err != nil {
		return nil, fmt.Errorf("check access: %w", err)
	}
	if !hasAccess {
		return nil, NewValidationError("Student is not assigned to this teacher")
	}

	now := s.clock.Now()

	// 3-5. Длительность, окно предварительной записи, дата в прошлом
	if err := checkDuration(settings, req.Duration); err != nil {
		return nil, err
	}
	if err := checkBookingWindow(req, settings, now); err != nil {
		return nil, err
	}

	// 6. Доступность слотов по актуальной сетке этого дня
	loc, err := time.LoadLocation(req.Timezone)
	if err != nil {
		return nil, NewValidationError("unknown timezone %q", req.Timezone)
	}
	dayStart := timegrid.DayStart(req.Date, loc)
	slots, err := s.availability.GetAvailableSlots(ctx, req.TeacherID, dayStart, dayStart.AddDate(0, 0, 1), req.Timezone)
	if err != nil {
		return nil, err
	}
	if err := checkSlotAvailability(slots, req.Date, req.Duration); err != nil {
		return nil, err
	}

	return settings, nil
}

// checkDuration: длительность должна быть 30 или 60 минут и включена в настройках.
func checkDuration(settings *model.LessonSettings, duration int) error {
	if duration != model.Duration30Min && duration != model.Duration60Min {
		return NewValidationError("Lesson duration must be 30 or 60 minutes")
	}
	if !settings.AllowsDuration(duration) {
		return NewValidationError("%d-minute lessons are not enabled for this teacher", duration)
	}
	return nil
}

// checkBookingWindow: дата не в прошлом и, для разовых уроков, в пределах окна
// предварительной записи. Для постоянной брони проверяется только первое
// занятие — серия бессрочная.
func checkBookingWindow(req *model.BookingRequest, settings *model.LessonSettings, now time.Time) error {
	if !req.IsRecurring {
		limit := now.AddDate(0, 0, settings.AdvanceBookingDays)
		if req.Date.After(limit) {
			return NewValidationError("Lessons can only be booked up to %d days in advance", settings.AdvanceBookingDays)
		}
	}
	if !req.Date.After(now) {
		return NewValidationError("Cannot book lessons in the past")
	}
	return nil
}

// checkSlotAvailability ищет в сетке дня слот с точным началом. Часовой урок
// требует двух подряд свободных получасовых ячеек.
func checkSlotAvailability(slots []*model.TimeSlot, date time.Time, duration int) error {
	first := findSlot(slots, date)
	if first == nil || !first.Available {
		return NewValidationError("Selected time slot is not available")
	}

	if duration == model.Duration60Min {
		second := findSlot(slots, date.Add(timegrid.SlotMinutes*time.Minute))
		if second == nil || !second.Available {
			return NewValidationError("Both consecutive time slots must be available for a 60-minute lesson")
		}
	}

	return nil
}

func findSlot(slots []*model.TimeSlot, start time.Time) *model.TimeSlot {
	for _, slot := range slots {
		if slot.Start.Equal(start) {
			return slot
		}
	}
	return nil
}

// BookSingleLesson бронирует разовый урок. Вся единица работы
// «валидация + блокировка + вставка» повторяется при транзиентных
// сбоях хранилища; бизнес-конфликт всплывает сразу.
func (s *BookingService) BookSingleLesson(ctx context.Context, req *model.BookingRequest) (*model.Lesson, error) {
	req = normalizeRequest(req)

	var lesson *model.Lesson
	err := retry.Do(ctx, s.retryPolicy, func(ctx context.Context) error {
		booked, err := s.bookLessonOnce(ctx, req)
		if err != nil {
			return err
		}
		lesson = booked
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Lesson booked",
		zap.Int64("lesson_id", lesson.ID),
		zap.Int64("teacher_id", lesson.TeacherID),
		zap.Int64("student_id", lesson.StudentID),
		zap.Time("date", lesson.Date),
		zap.Int("duration", lesson.Duration),
	)

	// события публикуются строго после коммита и не ждут внешних подписчиков
	s.publisher.Publish(ctx, events.Event{
		Type:       events.TypeLessonBooked,
		TeacherID:  lesson.TeacherID,
		StudentID:  lesson.StudentID,
		LessonID:   lesson.ID,
		OccurredAt: s.clock.Now(),
	})

	return lesson, nil
}

// bookLessonOnce — одна попытка: валидация, затем транзакция с блокирующим
// чтением целевого времени и вставкой.
func (s *BookingService) bookLessonOnce(ctx context.Context, req *model.BookingRequest) (*model.Lesson, error) {
	settings, err := s.validateBooking(ctx, req)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.lockBookingDates(ctx, tx, req); err != nil {
		return nil, err
	}

	lesson := &model.Lesson{
		TeacherID:   req.TeacherID,
		StudentID:   req.StudentID,
		Date:        req.Date,
		Duration:    req.Duration,
		Timezone:    req.Timezone,
		Price:       settings.PriceFor(req.Duration),
		Status:      model.LessonStatusScheduled,
		IsRecurring: false,
		Version:     1,
	}

	if err := s.lessonRepo.Create(ctx, tx, lesson); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return lesson, nil
}

// lockBookingDates берёт блокирующее чтение по целевому времени; для часового
// урока — по обеим получасовым половинам. Найденный неотменённый урок
// означает, что нас опередили.
func (s *BookingService) lockBookingDates(ctx context.Context, tx pgx.Tx, req *model.BookingRequest) error {
	dates := []time.Time{req.Date}
	if req.Duration == model.Duration60Min {
		dates = append(dates, req.Date.Add(timegrid.SlotMinutes*time.Minute))
	}

	for _, date := range dates {
		existing, err := s.lessonRepo.LockAtDate(ctx, tx, req.TeacherID, date)
		if err != nil {
			return err
		}
		if existing != nil {
			return &ConflictError{Message: "This time slot has been booked by another student"}
		}
	}

	return nil
}

// checkCancellable: отменять может только участник урока, урок ещё не
// отменён и ещё не начался. Урок, начинающийся ровно сейчас, считается
// начавшимся.
func checkCancellable(lesson *model.Lesson, userID int64, now time.Time) error {
	if lesson.StudentID != userID && lesson.TeacherID != userID {
		return NewValidationError("No permission to cancel this lesson")
	}
	if lesson.Status == model.LessonStatusCancelled {
		return NewValidationError("Lesson is already cancelled")
	}
	if !lesson.Date.After(now) {
		return NewValidationError("Cannot cancel lessons that have already started")
	}
	return nil
}

// CancelLesson отменяет урок. Урок, который уже начался, отменить нельзя:
// проверка времени и отмена защищены CAS по счётчику версии.
func (s *BookingService) CancelLesson(ctx context.Context, lessonID, userID int64) error {
	lesson, err := s.lessonRepo.GetByID(ctx, lessonID)
	if err != nil {
		return fmt.Errorf("get lesson: %w", err)
	}
	if lesson == nil {
		return fmt.Errorf("lesson %d: %w", lessonID, ErrNotFound)
	}

	if err := checkCancellable(lesson, userID, s.clock.Now()); err != nil {
		return err
	}

	cancelled, err := s.lessonRepo.CancelWithVersion(ctx, s.pool, lessonID, lesson.Version)
	if err != nil {
		return err
	}
	if !cancelled {
		return &ConflictError{Message: "Lesson was modified concurrently, please try again"}
	}

	s.logger.Info("Lesson cancelled",
		zap.Int64("lesson_id", lessonID),
		zap.Int64("user_id", userID),
	)

	s.publisher.Publish(ctx, events.Event{
		Type:       events.TypeLessonCancelled,
		TeacherID:  lesson.TeacherID,
		StudentID:  lesson.StudentID,
		LessonID:   lesson.ID,
		OccurredAt: s.clock.Now(),
	})

	return nil
}
