package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rosswilliamsdev/guitar-strategies-app-sub000/internal/model"
	"github.com/rosswilliamsdev/guitar-strategies-app-sub000/internal/repository/base"
)

type LessonRepository struct {
	pool *pgxpool.Pool
}

func NewLessonRepository(pool *pgxpool.Pool) *LessonRepository {
	return &LessonRepository{pool: pool}
}

const lessonColumns = `id, teacher_id, student_id, date, duration, timezone, price, status, is_recurring, recurring_id, recurring_slot_id, version, created_at, updated_at`

func scanLesson(row pgx.Row) (*model.Lesson, error) {
	var lesson model.Lesson
	err := row.Scan(
		&lesson.ID,
		&lesson.TeacherID,
		&lesson.StudentID,
		&lesson.Date,
		&lesson.Duration,
		&lesson.Timezone,
		&lesson.Price,
		&lesson.Status,
		&lesson.IsRecurring,
		&lesson.RecurringID,
		&lesson.RecurringSlotID,
		&lesson.Version,
		&lesson.CreatedAt,
		&lesson.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

// Create создаёт урок. Принимает Querier, чтобы вставка попадала
// в транзакцию вызывающего.
func (r *LessonRepository) Create(ctx context.Context, db base.Querier, lesson *model.Lesson) error {
	query := `
		INSERT INTO lessons (teacher_id, student_id, date, duration, timezone, price, status, is_recurring, recurring_id, recurring_slot_id, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`

	err := db.QueryRow(
		ctx, query,
		lesson.TeacherID,
		lesson.StudentID,
		lesson.Date,
		lesson.Duration,
		lesson.Timezone,
		lesson.Price,
		lesson.Status,
		lesson.IsRecurring,
		lesson.RecurringID,
		lesson.RecurringSlotID,
		lesson.Version,
	).Scan(&lesson.ID, &lesson.CreatedAt, &lesson.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create lesson: %w", err)
	}

	return nil
}

// GetByID получает урок по ID
func (r *LessonRepository) GetByID(ctx context.Context, id int64) (*model.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons WHERE id = $1`

	lesson, err := scanLesson(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lesson by id: %w", err)
	}

	return lesson, nil
}

// GetOverlapping получает уроки учителя со статусом scheduled/completed,
// пересекающие диапазон [from, to). Условие пересечения учитывает
// длительность: урок, начавшийся до from, но ещё идущий, тоже попадает.
func (r *LessonRepository) GetOverlapping(ctx context.Context, teacherID int64, from, to time.Time) ([]*model.Lesson, error) {
	query := `
		SELECT ` + lessonColumns + `
		FROM lessons
		WHERE teacher_id = $1
		  AND status IN ('scheduled', 'completed')
		  AND date < $3
		  AND date + (duration * interval '1 minute') > $2
		ORDER BY date
	`

	rows, err := r.pool.Query(ctx, query, teacherID, from, to)
	if err != nil {
		return nil, fmt.Errorf("get overlapping lessons: %w", err)
	}
	defer rows.Close()

	var lessons []*model.Lesson
	for rows.Next() {
		lesson, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		lessons = append(lessons, lesson)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lessons: %w", err)
	}

	return lessons, nil
}

// LockAtDate выполняет блокирующее чтение (SELECT ... FOR UPDATE) неотменённого
// урока учителя на точный момент. Вызывается только внутри транзакции: блокировка
// строки сериализует конкурирующие бронирования одного и того же времени.
func (r *LessonRepository) LockAtDate(ctx context.Context, db base.Querier, teacherID int64, date time.Time) (*model.Lesson, error) {
	query := `
		SELECT ` + lessonColumns + `
		FROM lessons
		WHERE teacher_id = $1
		  AND date = $2
		  AND status != 'cancelled'
		FOR UPDATE
	`

	lesson, err := scanLesson(db.QueryRow(ctx, query, teacherID, date))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock lesson at date: %w", err)
	}

	return lesson, nil
}

// ExistsNonCancelledAt проверяет, есть ли неотменённый урок учителя
// на точный момент. Неблокирующий вариант для фоновых задач.
func (r *LessonRepository) ExistsNonCancelledAt(ctx context.Context, teacherID int64, date time.Time) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM lessons
			WHERE teacher_id = $1 AND date = $2 AND status != 'cancelled'
		)
	`

	var exists bool
	err := r.pool.QueryRow(ctx, query, teacherID, date).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check lesson exists: %w", err)
	}

	return exists, nil
}

// CancelWithVersion отменяет урок через compare-and-swap по счётчику версии.
// Возвращает false, если версия успела измениться параллельной мутацией.
func (r *LessonRepository) CancelWithVersion(ctx context.Context, db base.Querier, lessonID int64, version int) (bool, error) {
	query := `
		UPDATE lessons
		SET status = 'cancelled', version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2 AND status != 'cancelled'
	`

	result, err := db.Exec(ctx, query, lessonID, version)
	if err != nil {
		return false, fmt.Errorf("cancel lesson: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// CancelFutureByRecurringSlotID отменяет все будущие неотменённые уроки серии.
// Прошедшие уроки не трогаем: история неизменяема.
func (r *LessonRepository) CancelFutureByRecurringSlotID(ctx context.Context, db base.Querier, slotID int64, after time.Time) (int64, error) {
	query := `
		UPDATE lessons
		SET status = 'cancelled', version = version + 1, updated_at = now()
		WHERE recurring_slot_id = $1
		  AND date > $2
		  AND status != 'cancelled'
	`

	result, err := db.Exec(ctx, query, slotID, after)
	if err != nil {
		return 0, fmt.Errorf("cancel future lessons of recurring slot: %w", err)
	}

	return result.RowsAffected(), nil
}

// GetByRecurringSlotID получает все уроки серии
func (r *LessonRepository) GetByRecurringSlotID(ctx context.Context, slotID int64) ([]*model.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons WHERE recurring_slot_id = $1 ORDER BY date`

	rows, err := r.pool.Query(ctx, query, slotID)
	if err != nil {
		return nil, fmt.Errorf("get lessons by recurring slot: %w", err)
	}
	defer rows.Close()

	var lessons []*model.Lesson
	for rows.Next() {
		lesson, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		lessons = append(lessons, lesson)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lessons: %w", err)
	}

	return lessons, nil
}
