package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rosswilliamsdev/guitar-strategies-app-sub000/internal/model"
)

// SettingsRepository управляет настройками уроков учителя.
type SettingsRepository struct {
	pool *pgxpool.Pool
}

func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

// GetByTeacherID получает настройки уроков учителя
func (r *SettingsRepository) GetByTeacherID(ctx context.Context, teacherID int64) (*model.LessonSettings, error) {
	query := `
		SELECT id, teacher_id, allows_30_min, allows_60_min, price_30_min, price_60_min, advance_booking_days, updated_at
		FROM lesson_settings
		WHERE teacher_id = $1
	`

	var settings model.LessonSettings
	err := r.pool.QueryRow(ctx, query, teacherID).Scan(
		&settings.ID,
		&settings.TeacherID,
		&settings.Allows30Min,
		&settings.Allows60Min,
		&settings.Price30Min,
		&settings.Price60Min,
		&settings.AdvanceBookingDays,
		&settings.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lesson settings: %w", err)
	}

	return &settings, nil
}

// Upsert создаёт или обновляет настройки уроков учителя
func (r *SettingsRepository) Upsert(ctx context.Context, settings *model.LessonSettings) error {
	query := `
		INSERT INTO lesson_settings (teacher_id, allows_30_min, allows_60_min, price_30_min, price_60_min, advance_booking_days)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (teacher_id) DO UPDATE SET
			allows_30_min = EXCLUDED.allows_30_min,
			allows_60_min = EXCLUDED.allows_60_min,
			price_30_min = EXCLUDED.price_30_min,
			price_60_min = EXCLUDED.price_60_min,
			advance_booking_days = EXCLUDED.advance_booking_days,
			updated_at = now()
		RETURNING id, updated_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		settings.TeacherID,
		settings.Allows30Min,
		settings.Allows60Min,
		settings.Price30Min,
		settings.Price60Min,
		settings.AdvanceBookingDays,
	).Scan(&settings.ID, &settings.UpdatedAt)

	if err != nil {
		return fmt.Errorf("upsert lesson settings: %w", err)
	}

	return nil
}
