package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/class_scheduler/internal/model"
	"github.com/Freeeeeet/class_scheduler/internal/repository/base"
	"github.com/Freeeeeet/class_scheduler/internal/storage"
)

// RescheduleRepository - журнал переносов занятий.
// Уникальность (student_id, month_key) обеспечивается индексом.
type RescheduleRepository struct {
	*base.Repository
}

func NewRescheduleRepository(db base.DBTX) *RescheduleRepository {
	return &RescheduleRepository{Repository: base.NewRepository(db)}
}

// CreateReschedule добавляет запись о переносе
func (r *RescheduleRepository) CreateReschedule(ctx context.Context, record *model.RescheduleRecord) error {
	query := `
		INSERT INTO reschedule_records (student_id, original_class_date, month_key, rescheduled_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.QueryRow(
		ctx, query,
		record.StudentID,
		record.OriginalClassDate,
		record.MonthKey,
		record.RescheduledAt,
	).Scan(&record.ID)

	if err != nil {
		if base.IsUniqueViolation(err) {
			return fmt.Errorf("create reschedule record for %s: %w", record.MonthKey, storage.ErrConflict)
		}
		return fmt.Errorf("create reschedule record: %w", err)
	}

	return nil
}

// ListReschedulesByStudent получает историю переносов ученика
func (r *RescheduleRepository) ListReschedulesByStudent(ctx context.Context, studentID int64) ([]*model.RescheduleRecord, error) {
	query := `
		SELECT id, student_id, original_class_date, month_key, rescheduled_at
		FROM reschedule_records
		WHERE student_id = $1
		ORDER BY rescheduled_at DESC, id DESC
	`

	rows, err := r.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("get reschedule records by student: %w", err)
	}
	defer rows.Close()

	var records []*model.RescheduleRecord
	for rows.Next() {
		var record model.RescheduleRecord
		err := rows.Scan(
			&record.ID,
			&record.StudentID,
			&record.OriginalClassDate,
			&record.MonthKey,
			&record.RescheduledAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan reschedule record: %w", err)
		}
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reschedule records: %w", err)
	}

	return records, nil
}
