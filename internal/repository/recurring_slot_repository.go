package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rosswilliamsdev/guitar-strategies-app-sub000/internal/model"
	"github.com/rosswilliamsdev/guitar-strategies-app-sub000/internal/repository/base"
)

// RecurringSlotRepository управляет постоянными еженедельными бронями.
type RecurringSlotRepository struct {
	pool *pgxpool.Pool
}

func NewRecurringSlotRepository(pool *pgxpool.Pool) *RecurringSlotRepository {
	return &RecurringSlotRepository{pool: pool}
}

const recurringSlotColumns = `id, teacher_id, student_id, day_of_week, start_time, duration, per_lesson_price, status, created_at, updated_at`

func scanRecurringSlot(row pgx.Row) (*model.RecurringSlot, error) {
	var slot model.RecurringSlot
	err := row.Scan(
		&slot.ID,
		&slot.TeacherID,
		&slot.StudentID,
		&slot.DayOfWeek,
		&slot.StartTime,
		&slot.Duration,
		&slot.PerLessonPrice,
		&slot.Status,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

// Create создаёт постоянную бронь. Принимает Querier, чтобы вставка
// попадала в транзакцию вызывающего.
func (r *RecurringSlotRepository) Create(ctx context.Context, db base.Querier, slot *model.RecurringSlot) error {
	query := `
		INSERT INTO recurring_slots (teacher_id, student_id, day_of_week, start_time, duration, per_lesson_price, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := db.QueryRow(
		ctx, query,
		slot.TeacherID,
		slot.StudentID,
		slot.DayOfWeek,
		slot.StartTime,
		slot.Duration,
		slot.PerLessonPrice,
		slot.Status,
	).Scan(&slot.ID, &slot.CreatedAt, &slot.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create recurring slot: %w", err)
	}

	return nil
}

// GetByID получает постоянную бронь по ID
func (r *RecurringSlotRepository) GetByID(ctx context.Context, id int64) (*model.RecurringSlot, error) {
	query := `SELECT ` + recurringSlotColumns + ` FROM recurring_slots WHERE id = $1`

	slot, err := scanRecurringSlot(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get recurring slot by id: %w", err)
	}

	return slot, nil
}

// LockActiveAt выполняет блокирующее чтение активной брони учителя на
// день недели и время. Вызывается внутри транзакции бронирования:
// не даёт двум сериям одновременно занять одно и то же время.
func (r *RecurringSlotRepository) LockActiveAt(ctx context.Context, db base.Querier, teacherID int64, dayOfWeek int, startTime string) (*model.RecurringSlot, error) {
	query := `
		SELECT ` + recurringSlotColumns + `
		FROM recurring_slots
		WHERE teacher_id = $1
		  AND day_of_week = $2
		  AND start_time = $3
		  AND status = 'active'
		FOR UPDATE
	`

	slot, err := scanRecurringSlot(db.QueryRow(ctx, query, teacherID, dayOfWeek, startTime))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock active recurring slot: %w", err)
	}

	return slot, nil
}

// GetAllActive получает все активные постоянные брони
func (r *RecurringSlotRepository) GetAllActive(ctx context.Context) ([]*model.RecurringSlot, error) {
	query := `SELECT ` + recurringSlotColumns + ` FROM recurring_slots WHERE status = 'active' ORDER BY day_of_week, start_time`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all active recurring slots: %w", err)
	}
	defer rows.Close()

	var slots []*model.RecurringSlot
	for rows.Next() {
		slot, err := scanRecurringSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring slot: %w", err)
		}
		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recurring slots: %w", err)
	}

	return slots, nil
}

// UpdateStatus обновляет статус постоянной брони
func (r *RecurringSlotRepository) UpdateStatus(ctx context.Context, db base.Querier, slotID int64, status model.RecurringSlotStatus) error {
	query := `UPDATE recurring_slots SET status = $1, updated_at = now() WHERE id = $2`

	result, err := db.Exec(ctx, query, status, slotID)
	if err != nil {
		return fmt.Errorf("update recurring slot status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("recurring slot not found")
	}

	return nil
}
