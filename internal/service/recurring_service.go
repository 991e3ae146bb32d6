package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
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

// RecurringHorizonWeeks — сколько еженедельных занятий материализуется при
// создании постоянной брони. Серия логически бессрочная: следующие занятия
// досоздаёт фоновая задача, а не транзакция бронирования.
const RecurringHorizonWeeks = 4

// RecurringService управляет постоянными еженедельными бронями: создание
// серии с проверкой конфликтов на горизонте, месячная ставка, отмена серии.
type RecurringService struct {
	pool          *pgxpool.Pool
	bookings      *BookingService
	lessonRepo    *repository.LessonRepository
	recurringRepo *repository.RecurringSlotRepository
	publisher     events.Publisher
	clock         clock.Clock
	retryPolicy   retry.Policy
	logger        *zap.Logger
}

func NewRecurringService(
	pool *pgxpool.Pool,
	bookings *BookingService,
	lessonRepo *repository.LessonRepository,
	recurringRepo *repository.RecurringSlotRepository,
	publisher events.Publisher,
	clk clock.Clock,
	logger *zap.Logger,
) *RecurringService {
	return &RecurringService{
		pool:          pool,
		bookings:      bookings,
		lessonRepo:    lessonRepo,
		recurringRepo: recurringRepo,
		publisher:     publisher,
		clock:         clk,
		retryPolicy:   retry.DefaultPolicy(),
		logger:        logger,
	}
}

// BookRecurringSlot создаёт постоянную бронь и её первые занятия в одной
// транзакции: либо бронь и все занятия закоммичены, либо ничего.
func (s *RecurringService) BookRecurringSlot(ctx context.Context, req *model.BookingRequest) (*model.RecurringSlot, []*model.Lesson, error) {
	req = normalizeRequest(req)
	req.IsRecurring = true

	weeks := req.RecurringWeeks
	if weeks <= 0 {
		weeks = RecurringHorizonWeeks
	}

	var (
		slot    *model.RecurringSlot
		lessons []*model.Lesson
	)
	err := retry.Do(ctx, s.retryPolicy, func(ctx context.Context) error {
		created, occurrences, err := s.bookRecurringOnce(ctx, req, weeks)
		if err != nil {
			return err
		}
		slot = created
		lessons = occurrences
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("Recurring slot booked",
		zap.Int64("recurring_slot_id", slot.ID),
		zap.Int64("teacher_id", slot.TeacherID),
		zap.Int64("student_id", slot.StudentID),
		zap.Int("day_of_week", slot.DayOfWeek),
		zap.String("start_time", slot.StartTime),
		zap.Int("lessons_created", len(lessons)),
	)

	s.publisher.Publish(ctx, events.Event{
		Type:            events.TypeRecurringSlotBooked,
		TeacherID:       slot.TeacherID,
		StudentID:       slot.StudentID,
		RecurringSlotID: slot.ID,
		OccurredAt:      s.clock.Now(),
	})

	return slot, lessons, nil
}

func (s *RecurringService) bookRecurringOnce(ctx context.Context, req *model.BookingRequest, weeks int) (*model.RecurringSlot, []*model.Lesson, error) {
	// для постоянной брони валидируется только первое занятие,
	// проверка окна предварительной записи пропускается
	settings, err := s.bookings.validateBooking(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	loc, err := time.LoadLocation(req.Timezone)
	if err != nil {
		return nil, nil, NewValidationError("unknown timezone %q", req.Timezone)
	}

	firstDate := req.Date.In(loc)
	dayOfWeek := int(firstDate.Weekday())
	startTime := timegrid.HHMM(firstDate)

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	existing, err := s.recurringRepo.LockActiveAt(ctx, tx, req.TeacherID, dayOfWeek, startTime)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return nil, nil, &ConflictError{Message: "Teacher already has a recurring lesson at this time"}
	}

	// проверяем каждое из будущих занятий под блокировкой строки: конфликты
	// перечисляются все разом, а не замалчиваются
	dates := occurrenceDates(req.Date, weeks)
	conflicts, err := collectConflicts(dates, func(date time.Time) (bool, error) {
		taken, err := s.lessonRepo.LockAtDate(ctx, tx, req.TeacherID, date)
		if err != nil {
			return false, err
		}
		return taken != nil, nil
	})
	if err != nil {
		return nil, nil, err
	}
	if len(conflicts) > 0 {
		return nil, nil, &ConflictError{
			Message: "Conflicting lessons already exist at the requested time",
			Dates:   conflicts,
		}
	}

	slot := &model.RecurringSlot{
		TeacherID:      req.TeacherID,
		StudentID:      req.StudentID,
		DayOfWeek:      dayOfWeek,
		StartTime:      startTime,
		Duration:       req.Duration,
		PerLessonPrice: settings.PriceFor(req.Duration), // цена за урок, не за месяц
		Status:         model.RecurringSlotStatusActive,
	}
	if err := s.recurringRepo.Create(ctx, tx, slot); err != nil {
		return nil, nil, err
	}

	recurringID := uuid.New()
	lessons := make([]*model.Lesson, 0, len(dates))
	for _, date := range dates {
		lesson := &model.Lesson{
			TeacherID:       req.TeacherID,
			StudentID:       req.StudentID,
			Date:            date,
			Duration:        req.Duration,
			Timezone:        req.Timezone,
			Price:           slot.PerLessonPrice,
			Status:          model.LessonStatusScheduled,
			IsRecurring:     true,
			RecurringID:     &recurringID,
			RecurringSlotID: &slot.ID,
			Version:         1,
		}
		if err := s.lessonRepo.Create(ctx, tx, lesson); err != nil {
			return nil, nil, err
		}
		lessons = append(lessons, lesson)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit transaction: %w", err)
	}

	return slot, lessons, nil
}

// occurrenceDates — даты еженедельных занятий начиная с первого.
func occurrenceDates(first time.Time, weeks int) []time.Time {
	dates := make([]time.Time, 0, weeks)
	for i := 0; i < weeks; i++ {
		dates = append(dates, first.AddDate(0, 0, 7*i))
	}
	return dates
}

// collectConflicts проверяет каждую дату предикатом taken и возвращает
// все занятые. Первый конфликт не обрывает обход: пользователю
// сообщаются все даты разом.
func collectConflicts(dates []time.Time, taken func(time.Time) (bool, error)) ([]time.Time, error) {
	var conflicts []time.Time
	for _, date := range dates {
		busy, err := taken(date)
		if err != nil {
			return nil, err
		}
		if busy {
			conflicts = append(conflicts, date)
		}
	}
	return conflicts, nil
}

// CalculateSlotMonthlyRate считает месячную ставку постоянной брони:
// цена за урок × фактическое число этого дня недели в месяце. Ставка
// никогда не хранится: в месяце бывает и 4, и 5 таких дней.
func (s *RecurringService) CalculateSlotMonthlyRate(ctx context.Context, slotID int64, year int, month time.Month) (int, error) {
	slot, err := s.recurringRepo.GetByID(ctx, slotID)
	if err != nil {
		return 0, fmt.Errorf("get recurring slot: %w", err)
	}
	if slot == nil {
		return 0, fmt.Errorf("recurring slot %d: %w", slotID, ErrNotFound)
	}

	return monthlyRate(slot, year, month), nil
}

func monthlyRate(slot *model.RecurringSlot, year int, month time.Month) int {
	occurrences := timegrid.WeekdayOccurrences(time.Weekday(slot.DayOfWeek), year, month)
	return slot.PerLessonPrice * occurrences
}

// CancelRecurringSlot отменяет постоянную бронь и все её будущие занятия
// в одной транзакции. Прошедшие занятия серии не трогаются.
func (s *RecurringService) CancelRecurringSlot(ctx context.Context, slotID, userID int64, reason string) error {
	slot, err := s.recurringRepo.GetByID(ctx, slotID)
	if err != nil {
		return fmt.Errorf("get recurring slot: %w", err)
	}
	if slot == nil {
		return fmt.Errorf("recurring slot %d: %w", slotID, ErrNotFound)
	}

	if slot.StudentID != userID && slot.TeacherID != userID {
		return NewValidationError("No permission to cancel this recurring slot")
	}
	if slot.Status == model.RecurringSlotStatusCancelled {
		return NewValidationError("Recurring slot is already cancelled")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.recurringRepo.UpdateStatus(ctx, tx, slotID, model.RecurringSlotStatusCancelled); err != nil {
		return err
	}

	cancelled, err := s.lessonRepo.CancelFutureByRecurringSlotID(ctx, tx, slotID, s.clock.Now())
	if err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	s.logger.Info("Recurring slot cancelled",
		zap.Int64("recurring_slot_id", slotID),
		zap.Int64("user_id", userID),
		zap.Int64("lessons_cancelled", cancelled),
		zap.String("reason", reason),
	)

	s.publisher.Publish(ctx, events.Event{
		Type:            events.TypeRecurringSlotCancelled,
		TeacherID:       slot.TeacherID,
		StudentID:       slot.StudentID,
		RecurringSlotID: slot.ID,
		OccurredAt:      s.clock.Now(),
	})

	return nil
}

// ExtendOccurrences досоздаёт будущие занятия всех активных постоянных
// бронь до горизонта weeksAhead недель. Вызывается фоновой задачей:
// серия бессрочная, но транзакция бронирования материализует лишь
// первые занятия.
func (s *RecurringService) ExtendOccurrences(ctx context.Context, weeksAhead int) error {
	slots, err := s.recurringRepo.GetAllActive(ctx)
	if err != nil {
		return fmt.Errorf("get active recurring slots: %w", err)
	}

	totalCreated := 0
	for _, slot := range slots {
		count, err := s.extendSlot(ctx, slot, weeksAhead)
		if err != nil {
			s.logger.Error("Failed to extend recurring slot",
				zap.Error(err),
				zap.Int64("recurring_slot_id", slot.ID),
			)
			continue
		}
		totalCreated += count
	}

	s.logger.Info("Extended recurring slots",
		zap.Int("total_slots", len(slots)),
		zap.Int("lessons_created", totalCreated),
	)

	return nil
}

// extendSlot продолжает серию от её последнего занятия: так сохраняются
// таймзона и идентификатор серии.
func (s *RecurringService) extendSlot(ctx context.Context, slot *model.RecurringSlot, weeksAhead int) (int, error) {
	lessons, err := s.lessonRepo.GetByRecurringSlotID(ctx, slot.ID)
	if err != nil {
		return 0, err
	}
	if len(lessons) == 0 {
		return 0, nil
	}
	last := lessons[len(lessons)-1]

	now := s.clock.Now()
	horizon := now.AddDate(0, 0, 7*weeksAhead)

	count := 0
	for date := last.Date.AddDate(0, 0, 7); date.Before(horizon); date = date.AddDate(0, 0, 7) {
		if !date.After(now) {
			continue
		}

		// дату могла успеть занять разовая бронь — такую неделю пропускаем
		exists, err := s.lessonRepo.ExistsNonCancelledAt(ctx, slot.TeacherID, date)
		if err != nil {
			return count, err
		}
		if exists {
			continue
		}

		lesson := &model.Lesson{
			TeacherID:       slot.TeacherID,
			StudentID:       slot.StudentID,
			Date:            date,
			Duration:        slot.Duration,
			Timezone:        last.Timezone,
			Price:           slot.PerLessonPrice,
			Status:          model.LessonStatusScheduled,
			IsRecurring:     true,
			RecurringID:     last.RecurringID,
			RecurringSlotID: &slot.ID,
			Version:         1,
		}
		if err := s.lessonRepo.Create(ctx, s.pool, lesson); err != nil {
			return count, err
		}
		count++
	}

	return count, nil
}
