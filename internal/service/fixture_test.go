package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Freeeeeet/class_scheduler/internal/model"
	"github.com/Freeeeeet/class_scheduler/internal/repository/memory"
	"github.com/Freeeeeet/class_scheduler/internal/storage"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var fixedNow = time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	store   storage.Store
	users   *UserService
	classes *ClassService
	agenda  *AgendaService

	teacher *model.User
	student *model.User
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithStore(t, memory.NewStore())
}

// newFixtureWithStore регистрирует учителя Anna и закреплённого за ней ученика Masha
func newFixtureWithStore(t *testing.T, store storage.Store) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	f := &fixture{
		store:   store,
		users:   NewUserService(store, logger),
		classes: NewClassService(store, logger),
		agenda:  NewAgendaService(store, 92, time.Minute, logger),
	}
	f.classes.now = func() time.Time { return fixedNow }

	teacher, err := f.users.RegisterUser(ctx, 1001, "anna", "Anna", "Petrova", "ru")
	require.NoError(t, err)
	require.NoError(t, f.users.MakeTeacher(ctx, teacher.TelegramID))

	student, err := f.users.RegisterUser(ctx, 2001, "masha", "Masha", "", "ru")
	require.NoError(t, err)

	_, err = f.users.AssignStudent(ctx, teacher.ID, "@masha")
	require.NoError(t, err)

	f.teacher, err = f.users.GetByID(ctx, teacher.ID)
	require.NoError(t, err)
	f.student, err = f.users.GetByID(ctx, student.ID)
	require.NoError(t, err)

	return f
}

// weeklyClass создаёт регулярное занятие ученика на весь апрель 2025
func (f *fixture) weeklyClass(t *testing.T, dayOfWeek int, start, end string) *model.ClassDefinition {
	t.Helper()
	class, err := f.classes.CreateClass(context.Background(), f.teacher.ID, CreateClassInput{
		StudentID:   f.student.ID,
		StartDate:   "2025-04-01",
		EndDate:     "2025-04-30",
		Slots:       []SlotInput{{DayOfWeek: dayOfWeek, StartTime: start, EndTime: end}},
		IsRecurring: true,
	})
	require.NoError(t, err)
	return class
}

func (f *fixture) availability(t *testing.T, date, start, end string) *model.AvailabilitySlot {
	t.Helper()
	slot, err := f.classes.CreateAvailability(context.Background(), f.teacher.ID, CreateAvailabilityInput{
		Date:      date,
		StartTime: start,
		EndTime:   end,
	})
	require.NoError(t, err)
	return slot
}

func keys(agenda model.Agenda) []string {
	out := make([]string, 0, len(agenda))
	for day := range agenda {
		out = append(out, day)
	}
	return out
}

// conflictingStore возвращает ErrConflict из CreateReschedule заданное число раз
type conflictingStore struct {
	storage.Store
	conflicts *atomic.Int32
}

func newConflictingStore(conflicts int32) *conflictingStore {
	s := &conflictingStore{Store: memory.NewStore(), conflicts: &atomic.Int32{}}
	s.conflicts.Store(conflicts)
	return s
}

func (s *conflictingStore) InTx(ctx context.Context, fn func(tx storage.Store) error) error {
	return s.Store.InTx(ctx, func(tx storage.Store) error {
		return fn(&conflictingStore{Store: tx, conflicts: s.conflicts})
	})
}

func (s *conflictingStore) CreateReschedule(ctx context.Context, record *model.RescheduleRecord) error {
	if s.conflicts.Add(-1) >= 0 {
		return fmt.Errorf("create reschedule record: %w", storage.ErrConflict)
	}
	return s.Store.CreateReschedule(ctx, record)
}
