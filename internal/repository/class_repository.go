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

const classColumns = `id, series_id, teacher_id, student_id, start_date, end_date, schedule_slots, is_recurring, created_at, updated_at`

// ClassRepository управляет определениями занятий в базе данных
type ClassRepository struct {
	*base.Repository
}

// NewClassRepository создаёт новый репозиторий
func NewClassRepository(db base.DBTX) *ClassRepository {
	return &ClassRepository{Repository: base.NewRepository(db)}
}

func scanClass(row pgx.Row) (*model.ClassDefinition, error) {
	class := &model.ClassDefinition{}
	err := row.Scan(
		&class.ID,
		&class.SeriesID,
		&class.TeacherID,
		&class.StudentID,
		&class.StartDate,
		&class.EndDate,
		&class.ScheduleSlots,
		&class.IsRecurring,
		&class.CreatedAt,
		&class.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return class, nil
}

func collectClasses(rows pgx.Rows) ([]*model.ClassDefinition, error) {
	defer rows.Close()

	var classes []*model.ClassDefinition
	for rows.Next() {
		class, err := scanClass(rows)
		if err != nil {
			return nil, fmt.Errorf("scan class: %w", err)
		}
		classes = append(classes, class)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate classes: %w", err)
	}

	return classes, nil
}

// CreateClass создаёт новое занятие
func (r *ClassRepository) CreateClass(ctx context.Context, class *model.ClassDefinition) error {
	query := `
		INSERT INTO class_definitions (series_id, teacher_id, student_id, start_date, end_date, schedule_slots, is_recurring)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		class.SeriesID,
		class.TeacherID,
		class.StudentID,
		class.StartDate,
		class.EndDate,
		class.ScheduleSlots,
		class.IsRecurring,
	).Scan(&class.ID, &class.CreatedAt, &class.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create class: %w", err)
	}

	return nil
}

// GetClass получает занятие по ID
func (r *ClassRepository) GetClass(ctx context.Context, id int64) (*model.ClassDefinition, error) {
	query := `SELECT ` + classColumns + ` FROM class_definitions WHERE id = $1`

	class, err := scanClass(r.QueryRow(ctx, query, id))
	if base.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get class by id: %w", err)
	}

	return class, nil
}

// LockClass получает занятие по ID с блокировкой строки до конца транзакции
func (r *ClassRepository) LockClass(ctx context.Context, id int64) (*model.ClassDefinition, error) {
	query := `SELECT ` + classColumns + ` FROM class_definitions WHERE id = $1 FOR UPDATE`

	class, err := scanClass(r.QueryRow(ctx, query, id))
	if base.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lock class: %w", err)
	}

	return class, nil
}

// ListClassesByStudent получает занятия ученика, пересекающиеся с периодом
func (r *ClassRepository) ListClassesByStudent(ctx context.Context, studentID int64, from, to time.Time) ([]*model.ClassDefinition, error) {
	query := `
		SELECT ` + classColumns + `
		FROM class_definitions
		WHERE student_id = $1 AND start_date <= $3 AND end_date >= $2
		ORDER BY start_date, id
	`

	rows, err := r.Query(ctx, query, studentID, from, to)
	if err != nil {
		return nil, fmt.Errorf("get classes by student: %w", err)
	}

	return collectClasses(rows)
}

// ListClassesByTeacher получает занятия учителя, пересекающиеся с периодом
func (r *ClassRepository) ListClassesByTeacher(ctx context.Context, teacherID int64, from, to time.Time) ([]*model.ClassDefinition, error) {
	query := `
		SELECT ` + classColumns + `
		FROM class_definitions
		WHERE teacher_id = $1 AND start_date <= $3 AND end_date >= $2
		ORDER BY start_date, id
	`

	rows, err := r.Query(ctx, query, teacherID, from, to)
	if err != nil {
		return nil, fmt.Errorf("get classes by teacher: %w", err)
	}

	return collectClasses(rows)
}

// UpdateClass обновляет диапазон дат и слоты занятия
func (r *ClassRepository) UpdateClass(ctx context.Context, class *model.ClassDefinition) error {
	query := `
		UPDATE class_definitions
		SET start_date = $2, end_date = $3, schedule_slots = $4, is_recurring = $5, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.QueryRow(
		ctx, query,
		class.ID,
		class.StartDate,
		class.EndDate,
		class.ScheduleSlots,
		class.IsRecurring,
	).Scan(&class.UpdatedAt)

	if base.IsNotFound(err) {
		return fmt.Errorf("update class %d: %w", class.ID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update class: %w", err)
	}

	return nil
}

// DeleteClass удаляет занятие
func (r *ClassRepository) DeleteClass(ctx context.Context, id int64) error {
	affected, err := r.ExecAffected(ctx, `DELETE FROM class_definitions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete class: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("delete class %d: %w", id, storage.ErrNotFound)
	}

	return nil
}
