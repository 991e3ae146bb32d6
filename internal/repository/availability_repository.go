package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rosswilliamsdev/guitar-strategies-app-sub000/internal/model"
)

// AvailabilityRepository управляет еженедельными окнами доступности учителя.
type AvailabilityRepository struct {
	pool *pgxpool.Pool
}

func NewAvailabilityRepository(pool *pgxpool.Pool) *AvailabilityRepository {
	return &AvailabilityRepository{pool: pool}
}

// GetActiveByTeacherID получает активные окна доступности учителя
func (r *AvailabilityRepository) GetActiveByTeacherID(ctx context.Context, teacherID int64) ([]*model.AvailabilityWindow, error) {
	query := `
		SELECT id, teacher_id, day_of_week, start_time, end_time, is_active, created_at
		FROM availability_windows
		WHERE teacher_id = $1 AND is_active = true
		ORDER BY day_of_week, start_time
	`

	rows, err := r.pool.Query(ctx, query, teacherID)
	if err != nil {
		return nil, fmt.Errorf("get availability windows: %w", err)
	}
	defer rows.Close()

	var windows []*model.AvailabilityWindow
	for rows.Next() {
		window := &model.AvailabilityWindow{}
		err := rows.Scan(
			&window.ID,
			&window.TeacherID,
			&window.DayOfWeek,
			&window.StartTime,
			&window.EndTime,
			&window.IsActive,
			&window.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan availability window: %w", err)
		}
		windows = append(windows, window)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate availability windows: %w", err)
	}

	return windows, nil
}

// Create создаёт новое окно доступности
func (r *AvailabilityRepository) Create(ctx context.Context, window *model.AvailabilityWindow) error {
	query := `
		INSERT INTO availability_windows (teacher_id, day_of_week, start_time, end_time, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		window.TeacherID,
		window.DayOfWeek,
		window.StartTime,
		window.EndTime,
		window.IsActive,
	).Scan(&window.ID, &window.CreatedAt)

	if err != nil {
		return fmt.Errorf("create availability window: %w", err)
	}

	return nil
}

// Deactivate деактивирует окно доступности. Окна не удаляются, чтобы не
// терять историю, по которой уже созданы уроки.
func (r *AvailabilityRepository) Deactivate(ctx context.Context, id int64) error {
	query := `UPDATE availability_windows SET is_active = false WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deactivate availability window: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("availability window not found")
	}

	return nil
}
