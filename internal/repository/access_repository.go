package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type AccessRepository struct {
	pool *pgxpool.Pool
}

func NewAccessRepository(pool *pgxpool.Pool) *AccessRepository {
	return &AccessRepository{pool: pool}
}

// HasAccess проверяет, прикреплён ли студент к учителю
func (r *AccessRepository) HasAccess(ctx context.Context, studentID, teacherID int64) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM student_teacher_access
			WHERE student_id = $1 AND teacher_id = $2
		)
	`

	var exists bool
	err := r.pool.QueryRow(ctx, query, studentID, teacherID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check access: %w", err)
	}

	return exists, nil
}

// GrantAccess прикрепляет студента к учителю
func (r *AccessRepository) GrantAccess(ctx context.Context, studentID, teacherID int64, accessType string) error {
	query := `
		INSERT INTO student_teacher_access (student_id, teacher_id, access_type)
		VALUES ($1, $2, $3)
		ON CONFLICT (student_id, teacher_id) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query, studentID, teacherID, accessType)
	if err != nil {
		return fmt.Errorf("grant access: %w", err)
	}

	return nil
}

// RevokeAccess открепляет студента от учителя
func (r *AccessRepository) RevokeAccess(ctx context.Context, studentID, teacherID int64) error {
	query := `
		DELETE FROM student_teacher_access
		WHERE student_id = $1 AND teacher_id = $2
	`

	result, err := r.pool.Exec(ctx, query, studentID, teacherID)
	if err != nil {
		return fmt.Errorf("revoke access: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("access record not found")
	}

	return nil
}
