package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/class_scheduler/internal/model"
	"github.com/Freeeeeet/class_scheduler/internal/schedule"
	"github.com/Freeeeeet/class_scheduler/internal/storage"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// conflictRetryDelay - пауза перед повтором переноса после конфликта
const conflictRetryDelay = 50 * time.Millisecond

// ClassService управляет занятиями, окнами доступности и переносами.
// Только этот сервис создаёт RescheduleRecord и превращает окно доступности в занятие.
type ClassService struct {
	store  storage.Store
	now    func() time.Time
	logger *zap.Logger
}

func NewClassService(store storage.Store, logger *zap.Logger) *ClassService {
	return &ClassService{
		store:  store,
		now:    time.Now,
		logger: logger,
	}
}

func (s *ClassService) today() time.Time {
	return schedule.Day(s.now())
}

// requireTeacher загружает пользователя и проверяет, что он учитель
func requireTeacher(ctx context.Context, store storage.UserStore, teacherID int64) (*model.User, error) {
	teacher, err := store.GetUser(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("get teacher: %w", err)
	}

	if teacher == nil {
		return nil, fmt.Errorf("teacher %d: %w", teacherID, ErrNotFound)
	}

	if !teacher.IsTeacher {
		return nil, fmt.Errorf("user %d is not a teacher: %w", teacherID, ErrForbidden)
	}

	return teacher, nil
}

// canManageClass - ученик управляет своими занятиями, учитель - занятиями, которые ведёт
func canManageClass(actor *model.User, class *model.ClassDefinition) bool {
	if actor.ID == class.StudentID {
		return true
	}
	return actor.IsTeacher && actor.ID == class.TeacherID
}

// CreateClass создаёт занятие ученика, закреплённого за учителем
func (s *ClassService) CreateClass(ctx context.Context, teacherID int64, in CreateClassInput) (*model.ClassDefinition, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	start, end, slots, err := buildSchedule(in.StartDate, in.EndDate, in.Slots, in.IsRecurring)
	if err != nil {
		return nil, err
	}

	if _, err := requireTeacher(ctx, s.store, teacherID); err != nil {
		return nil, err
	}

	student, err := s.store.GetUser(ctx, in.StudentID)
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}

	if student == nil {
		return nil, fmt.Errorf("student %d: %w", in.StudentID, ErrNotFound)
	}

	if student.TeacherID == nil || *student.TeacherID != teacherID {
		return nil, fmt.Errorf("student %d is not assigned to teacher %d: %w", in.StudentID, teacherID, ErrForbidden)
	}

	class := &model.ClassDefinition{
		SeriesID:      uuid.New(),
		TeacherID:     teacherID,
		StudentID:     in.StudentID,
		StartDate:     start,
		EndDate:       end,
		ScheduleSlots: slots,
		IsRecurring:   in.IsRecurring,
	}

	if err := s.store.CreateClass(ctx, class); err != nil {
		return nil, fmt.Errorf("create class: %w", err)
	}

	s.logger.Info("Class created",
		zap.Int64("class_id", class.ID),
		zap.String("series_id", class.SeriesID.String()),
		zap.Int64("teacher_id", teacherID),
		zap.Int64("student_id", in.StudentID),
		zap.Bool("is_recurring", in.IsRecurring),
		zap.Int("slots", len(slots)),
	)

	return class, nil
}

// EditClass меняет диапазон дат и слоты занятия
func (s *ClassService) EditClass(ctx context.Context, teacherID, classID int64, in EditClassInput) (*model.ClassDefinition, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	var updated *model.ClassDefinition
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		if _, err := requireTeacher(ctx, tx, teacherID); err != nil {
			return err
		}

		class, err := tx.LockClass(ctx, classID)
		if err != nil {
			return fmt.Errorf("get class: %w", err)
		}

		if class == nil {
			return fmt.Errorf("class %d: %w", classID, ErrNotFound)
		}

		if class.TeacherID != teacherID {
			return fmt.Errorf("class %d does not belong to teacher %d: %w", classID, teacherID, ErrForbidden)
		}

		start, end, slots, err := buildSchedule(in.StartDate, in.EndDate, in.Slots, class.IsRecurring)
		if err != nil {
			return err
		}

		class.StartDate = start
		class.EndDate = end
		class.ScheduleSlots = slots

		if err := tx.UpdateClass(ctx, class); err != nil {
			return fmt.Errorf("update class: %w", err)
		}

		updated = class
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Class updated",
		zap.Int64("class_id", classID),
		zap.Int64("teacher_id", teacherID),
	)

	return updated, nil
}

// ListClasses возвращает занятия пользователя, пересекающиеся с периодом
func (s *ClassService) ListClasses(ctx context.Context, userID int64, from, to time.Time) ([]*model.ClassDefinition, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if user == nil {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}

	if user.IsTeacher {
		return s.store.ListClassesByTeacher(ctx, userID, schedule.Day(from), schedule.Day(to))
	}
	return s.store.ListClassesByStudent(ctx, userID, schedule.Day(from), schedule.Day(to))
}

// CreateAvailability создаёт окно, на которое можно перенести занятие
func (s *ClassService) CreateAvailability(ctx context.Context, teacherID int64, in CreateAvailabilityInput) (*model.AvailabilitySlot, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	date, err := schedule.ParseDate(in.Date)
	if err != nil {
		return nil, invalid("date", err.Error())
	}

	if err := checkTimeRange(in.StartTime, in.EndTime); err != nil {
		return nil, invalid("start_time", err.Error())
	}

	if date.Before(s.today()) {
		return nil, invalid("date", "cannot create availability in the past")
	}

	if _, err := requireTeacher(ctx, s.store, teacherID); err != nil {
		return nil, err
	}

	slot := &model.AvailabilitySlot{
		TeacherID: teacherID,
		Date:      date,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
	}

	if err := s.store.CreateAvailability(ctx, slot); err != nil {
		return nil, fmt.Errorf("create availability slot: %w", err)
	}

	s.logger.Info("Availability slot created",
		zap.Int64("slot_id", slot.ID),
		zap.Int64("teacher_id", teacherID),
		zap.String("date", in.Date),
		zap.String("time", schedule.FormatTimeRange(in.StartTime, in.EndTime)),
	)

	return slot, nil
}

// DeleteAvailability удаляет окно учителя
func (s *ClassService) DeleteAvailability(ctx context.Context, teacherID, slotID int64) error {
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		slot, err := tx.LockAvailability(ctx, slotID)
		if err != nil {
			return fmt.Errorf("get availability slot: %w", err)
		}

		if slot == nil {
			return fmt.Errorf("availability slot %d: %w", slotID, ErrNotFound)
		}

		if slot.TeacherID != teacherID {
			return fmt.Errorf("availability slot %d does not belong to teacher %d: %w", slotID, teacherID, ErrForbidden)
		}

		return tx.DeleteAvailability(ctx, slotID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Availability slot deleted",
		zap.Int64("slot_id", slotID),
		zap.Int64("teacher_id", teacherID),
	)

	return nil
}

// PurgeExpiredAvailability удаляет окна доступности, дата которых уже прошла
func (s *ClassService) PurgeExpiredAvailability(ctx context.Context) (int64, error) {
	count, err := s.store.DeleteAvailabilityBefore(ctx, s.today())
	if err != nil {
		return 0, fmt.Errorf("purge expired availability: %w", err)
	}
	return count, nil
}

// loadOccurrence загружает занятие с блокировкой и проверяет права и наличие вхождения в день
func loadOccurrence(ctx context.Context, tx storage.Store, actorID, classID int64, day time.Time) (*model.User, *model.ClassDefinition, error) {
	actor, err := tx.GetUser(ctx, actorID)
	if err != nil {
		return nil, nil, fmt.Errorf("get user: %w", err)
	}

	if actor == nil {
		return nil, nil, fmt.Errorf("user %d: %w", actorID, ErrNotFound)
	}

	class, err := tx.LockClass(ctx, classID)
	if err != nil {
		return nil, nil, fmt.Errorf("get class: %w", err)
	}

	if class == nil {
		return nil, nil, fmt.Errorf("class %d: %w", classID, ErrNotFound)
	}

	if !canManageClass(actor, class) {
		return nil, nil, fmt.Errorf("user %d cannot manage class %d: %w", actorID, classID, ErrForbidden)
	}

	if !schedule.OccursOn(class, day) {
		return nil, nil, fmt.Errorf("class %d on %s: %w", classID, schedule.FormatDate(day), ErrOccurrenceNotFound)
	}

	return actor, class, nil
}

// cancelOccurrence убирает вхождение занятия в день day.
// Регулярное занятие разбивается: исходное укорачивается, продолжение создаётся отдельно.
func cancelOccurrence(ctx context.Context, tx storage.Store, class *model.ClassDefinition, day time.Time) error {
	head, tail := schedule.SplitAt(class, day)

	if head == nil {
		if err := tx.DeleteClass(ctx, class.ID); err != nil {
			return fmt.Errorf("delete class: %w", err)
		}
	} else {
		if err := tx.UpdateClass(ctx, head); err != nil {
			return fmt.Errorf("shorten class: %w", err)
		}
	}

	if tail != nil {
		if err := tx.CreateClass(ctx, tail); err != nil {
			return fmt.Errorf("create class continuation: %w", err)
		}
	}

	return nil
}

// CancelClass отменяет одно вхождение занятия
func (s *ClassService) CancelClass(ctx context.Context, actorID int64, ref OccurrenceRef) error {
	if err := validateStruct(ref); err != nil {
		return err
	}

	day, err := schedule.ParseDate(ref.Date)
	if err != nil {
		return invalid("date", err.Error())
	}

	err = s.store.InTx(ctx, func(tx storage.Store) error {
		_, class, err := loadOccurrence(ctx, tx, actorID, ref.ClassID, day)
		if err != nil {
			return err
		}
		return cancelOccurrence(ctx, tx, class, day)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Class occurrence canceled",
		zap.Int64("class_id", ref.ClassID),
		zap.String("date", ref.Date),
		zap.Int64("actor_id", actorID),
	)

	return nil
}

// RescheduleClass переносит вхождение занятия в окно доступности учителя.
// Проверка квоты, отмена исходного вхождения, создание разового занятия, удаление окна
// и запись в журнал выполняются в одной транзакции. При конфликте операция повторяется один раз.
func (s *ClassService) RescheduleClass(ctx context.Context, actorID int64, ref OccurrenceRef, availabilityID int64) (*model.ClassDefinition, error) {
	if err := validateStruct(ref); err != nil {
		return nil, err
	}

	if availabilityID <= 0 {
		return nil, invalid("availability_id", "availability_id must be positive")
	}

	day, err := schedule.ParseDate(ref.Date)
	if err != nil {
		return nil, invalid("date", err.Error())
	}

	var replacement *model.ClassDefinition
	backoff := retry.WithMaxRetries(1, retry.NewConstant(conflictRetryDelay))

	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		created, err := s.rescheduleOnce(ctx, actorID, ref.ClassID, day, availabilityID)
		if errors.Is(err, ErrConflict) {
			s.logger.Warn("Reschedule conflict, retrying",
				zap.Int64("class_id", ref.ClassID),
				zap.Int64("availability_id", availabilityID),
				zap.Error(err),
			)
			return retry.RetryableError(err)
		}
		if err != nil {
			return err
		}

		replacement = created
		return nil
	})

	if err != nil {
		var quotaErr *QuotaExceededError
		switch {
		case errors.As(err, &quotaErr):
			s.logger.Info("Reschedule rejected by monthly quota",
				zap.Int64("student_id", quotaErr.StudentID),
				zap.String("month_key", quotaErr.MonthKey),
			)
		case errors.Is(err, ErrConflict):
			return nil, fmt.Errorf("%w: %v", ErrTryAgain, err)
		}
		return nil, err
	}

	s.logger.Info("Class rescheduled",
		zap.Int64("class_id", ref.ClassID),
		zap.String("original_date", ref.Date),
		zap.Int64("new_class_id", replacement.ID),
		zap.String("new_date", schedule.FormatDate(replacement.StartDate)),
		zap.Int64("actor_id", actorID),
	)

	return replacement, nil
}

func (s *ClassService) rescheduleOnce(ctx context.Context, actorID, classID int64, day time.Time, availabilityID int64) (*model.ClassDefinition, error) {
	var replacement *model.ClassDefinition

	err := s.store.InTx(ctx, func(tx storage.Store) error {
		_, class, err := loadOccurrence(ctx, tx, actorID, classID, day)
		if err != nil {
			return err
		}

		// Квота проверяется внутри транзакции, а не перед ней
		history, err := tx.ListReschedulesByStudent(ctx, class.StudentID)
		if err != nil {
			return fmt.Errorf("get reschedule history: %w", err)
		}

		if !schedule.CanReschedule(class.StudentID, day, history) {
			return &QuotaExceededError{StudentID: class.StudentID, MonthKey: schedule.MonthKey(day)}
		}

		slot, err := tx.LockAvailability(ctx, availabilityID)
		if err != nil {
			return fmt.Errorf("get availability slot: %w", err)
		}

		if slot == nil {
			return fmt.Errorf("availability slot %d: %w", availabilityID, ErrAvailabilityUnavailable)
		}

		if slot.TeacherID != class.TeacherID {
			return fmt.Errorf("availability slot %d belongs to another teacher: %w", availabilityID, ErrForbidden)
		}

		if schedule.Day(slot.Date).Before(s.today()) {
			return fmt.Errorf("availability slot %d is in the past: %w", availabilityID, ErrAvailabilityUnavailable)
		}

		if err := cancelOccurrence(ctx, tx, class, day); err != nil {
			return err
		}

		date := schedule.Day(slot.Date)
		replacement = &model.ClassDefinition{
			SeriesID:  class.SeriesID,
			TeacherID: class.TeacherID,
			StudentID: class.StudentID,
			StartDate: date,
			EndDate:   date,
			ScheduleSlots: []model.ScheduleSlot{{
				DayOfWeek: int(date.Weekday()),
				StartTime: slot.StartTime,
				EndTime:   slot.EndTime,
			}},
			IsRecurring: false,
		}

		if err := tx.CreateClass(ctx, replacement); err != nil {
			return fmt.Errorf("create rescheduled class: %w", err)
		}

		if err := tx.DeleteAvailability(ctx, slot.ID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("consume availability slot %d: %w", slot.ID, ErrConflict)
			}
			return fmt.Errorf("consume availability slot: %w", err)
		}

		record := schedule.NewRescheduleRecord(class.StudentID, day, s.now())
		if err := tx.CreateReschedule(ctx, record); err != nil {
			return fmt.Errorf("record reschedule: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return replacement, nil
}
