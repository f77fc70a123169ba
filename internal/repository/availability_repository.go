package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/class_scheduler/internal/model"
	"github.com/Freeeeeet/class_scheduler/internal/repository/base"
	"github.com/Freeeeeet/class_scheduler/internal/storage"
	"github.com/jackc/pgx/v5"
)

type AvailabilityRepository struct {
	*base.Repository
}

func NewAvailabilityRepository(db base.DBTX) *AvailabilityRepository {
	return &AvailabilityRepository{Repository: base.NewRepository(db)}
}

func scanAvailability(row pgx.Row) (*model.AvailabilitySlot, error) {
	var slot model.AvailabilitySlot
	err := row.Scan(
		&slot.ID,
		&slot.TeacherID,
		&slot.Date,
		&slot.StartTime,
		&slot.EndTime,
		&slot.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

// CreateAvailability создаёт окно доступности
func (r *AvailabilityRepository) CreateAvailability(ctx context.Context, slot *model.AvailabilitySlot) error {
	query := `
		INSERT INTO availability_slots (teacher_id, date, start_time, end_time)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.QueryRow(
		ctx, query,
		slot.TeacherID,
		slot.Date,
		slot.StartTime,
		slot.EndTime,
	).Scan(&slot.ID, &slot.CreatedAt)

	if err != nil {
		return fmt.Errorf("create availability slot: %w", err)
	}

	return nil
}

// GetAvailability получает окно по ID
func (r *AvailabilityRepository) GetAvailability(ctx context.Context, id int64) (*model.AvailabilitySlot, error) {
	query := `
		SELECT id, teacher_id, date, start_time, end_time, created_at
		FROM availability_slots
		WHERE id = $1
	`

	slot, err := scanAvailability(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get availability slot by id: %w", err)
	}

	return slot, nil
}

// LockAvailability получает окно с блокировкой строки.
// Конкурент, ожидающий блокировку, после коммита удаления получит nil.
func (r *AvailabilityRepository) LockAvailability(ctx context.Context, id int64) (*model.AvailabilitySlot, error) {
	query := `
		SELECT id, teacher_id, date, start_time, end_time, created_at
		FROM availability_slots
		WHERE id = $1
		FOR UPDATE
	`

	slot, err := scanAvailability(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock availability slot: %w", err)
	}

	return slot, nil
}

// ListAvailabilityByTeacher получает окна учителя в периоде
func (r *AvailabilityRepository) ListAvailabilityByTeacher(ctx context.Context, teacherID int64, from, to time.Time) ([]*model.AvailabilitySlot, error) {
	query := `
		SELECT id, teacher_id, date, start_time, end_time, created_at
		FROM availability_slots
		WHERE teacher_id = $1
		  AND date >= $2
		  AND date <= $3
		ORDER BY date, start_time, id
	`

	rows, err := r.Query(ctx, query, teacherID, from, to)
	if err != nil {
		return nil, fmt.Errorf("get availability slots by teacher: %w", err)
	}
	defer rows.Close()

	var slots []*model.AvailabilitySlot
	for rows.Next() {
		slot, err := scanAvailability(rows)
		if err != nil {
			return nil, fmt.Errorf("scan availability slot: %w", err)
		}
		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate availability slots: %w", err)
	}

	return slots, nil
}

// DeleteAvailability удаляет окно (в том числе при бронировании)
func (r *AvailabilityRepository) DeleteAvailability(ctx context.Context, id int64) error {
	affected, err := r.ExecAffected(ctx, `DELETE FROM availability_slots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete availability slot: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("delete availability slot %d: %w", id, storage.ErrNotFound)
	}

	return nil
}

// DeleteAvailabilityBefore удаляет прошедшие окна
func (r *AvailabilityRepository) DeleteAvailabilityBefore(ctx context.Context, before time.Time) (int64, error) {
	affected, err := r.ExecAffected(ctx, `DELETE FROM availability_slots WHERE date < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("delete expired availability slots: %w", err)
	}

	return affected, nil
}
