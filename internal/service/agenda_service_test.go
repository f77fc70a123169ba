package service

import (
	"context"
	"testing"

	"github.com/Freeeeeet/class_scheduler/internal/model"
	"github.com/Freeeeeet/class_scheduler/internal/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAgendaWeeklyClass(t *testing.T) {
	f := newFixture(t)
	f.weeklyClass(t, 1, "09:00", "10:00")

	agenda, err := f.agenda.GetAgenda(context.Background(), schedule.RoleStudent, f.student.ID, "2025-04-01", "2025-04-30")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"2025-04-07", "2025-04-14", "2025-04-21", "2025-04-28"}, keys(agenda))
	for day, items := range agenda {
		require.Len(t, items, 1, day)
		assert.Equal(t, "09:00 - 10:00", items[0].Time)
		assert.Equal(t, model.ItemTypeClass, items[0].Type)
		assert.Equal(t, schedule.NameStudentClass, items[0].Name)
	}
}

func TestGetAgendaStudentSeesTeacherAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	slot := f.availability(t, "2025-04-22", "13:00", "14:00")

	other, err := f.users.RegisterUser(ctx, 4001, "oleg", "Oleg", "", "ru")
	require.NoError(t, err)
	require.NoError(t, f.users.MakeTeacher(ctx, other.TelegramID))
	_, err = f.classes.CreateAvailability(ctx, other.ID, CreateAvailabilityInput{
		Date: "2025-04-22", StartTime: "15:00", EndTime: "16:00",
	})
	require.NoError(t, err)

	agenda, err := f.agenda.GetAgenda(ctx, schedule.RoleStudent, f.student.ID, "2025-04-21", "2025-04-27")
	require.NoError(t, err)

	require.Len(t, agenda, 1)
	items := agenda["2025-04-22"]
	require.Len(t, items, 1)
	assert.Equal(t, slot.ID, items[0].ID)
	assert.Equal(t, model.ItemTypeAvailability, items[0].Type)
	assert.Equal(t, "Available Slot with Anna Petrova", items[0].Name)
	assert.Equal(t, "13:00 - 14:00", items[0].Time)
}

func TestGetAgendaTeacherView(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.weeklyClass(t, 2, "17:00", "18:00")
	f.availability(t, "2025-04-22", "09:00", "10:00")

	agenda, err := f.agenda.GetAgenda(ctx, schedule.RoleTeacher, f.teacher.ID, "2025-04-22", "2025-04-22")
	require.NoError(t, err)

	items := agenda["2025-04-22"]
	require.Len(t, items, 2)

	assert.Equal(t, model.ItemTypeAvailability, items[0].Type)
	assert.Equal(t, schedule.NameTeacherAvailability, items[0].Name)

	assert.Equal(t, model.ItemTypeClass, items[1].Type)
	assert.Equal(t, "Masha", items[1].Name)
	assert.Equal(t, "17:00 - 18:00", items[1].Time)
}

func TestGetAgendaUnassignedStudent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.availability(t, "2025-04-22", "09:00", "10:00")

	loner, err := f.users.RegisterUser(ctx, 5001, "", "Lena", "", "ru")
	require.NoError(t, err)

	agenda, err := f.agenda.GetAgenda(ctx, schedule.RoleStudent, loner.ID, "2025-04-01", "2025-04-30")
	require.NoError(t, err)
	assert.NotNil(t, agenda)
	assert.Empty(t, agenda)
}

func TestGetAgendaIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.weeklyClass(t, 1, "09:00", "10:00")
	f.weeklyClass(t, 1, "09:00", "10:00")
	f.availability(t, "2025-04-07", "09:00", "10:00")

	first, err := f.agenda.GetAgenda(ctx, schedule.RoleTeacher, f.teacher.ID, "2025-04-01", "2025-04-30")
	require.NoError(t, err)

	second, err := f.agenda.GetAgenda(ctx, schedule.RoleTeacher, f.teacher.ID, "2025-04-01", "2025-04-30")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first["2025-04-07"], 3)
}

func TestGetAgendaErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name     string
		role     schedule.Role
		viewerID int64
		from, to string
		wantErr  error
	}{
		{"unknown role", schedule.Role("parent"), f.student.ID, "2025-04-01", "2025-04-07", ErrValidation},
		{"bad date", schedule.RoleStudent, f.student.ID, "2025/04/01", "2025-04-07", ErrValidation},
		{"reversed range", schedule.RoleStudent, f.student.ID, "2025-04-07", "2025-04-01", ErrValidation},
		{"range too long", schedule.RoleStudent, f.student.ID, "2025-01-01", "2025-12-31", ErrValidation},
		{"unknown viewer", schedule.RoleStudent, 999, "2025-04-01", "2025-04-07", ErrNotFound},
		{"student as teacher", schedule.RoleTeacher, f.student.ID, "2025-04-01", "2025-04-07", ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.agenda.GetAgenda(context.Background(), tt.role, tt.viewerID, tt.from, tt.to)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGetAgendaCachesNames(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.weeklyClass(t, 2, "17:00", "18:00")

	name := func() string {
		agenda, err := f.agenda.GetAgenda(ctx, schedule.RoleTeacher, f.teacher.ID, "2025-04-22", "2025-04-22")
		require.NoError(t, err)
		require.Len(t, agenda["2025-04-22"], 1)
		return agenda["2025-04-22"][0].Name
	}

	assert.Equal(t, "Masha", name())

	_, err := f.users.RegisterUser(ctx, f.student.TelegramID, "masha", "Maria", "Ivanova", "ru")
	require.NoError(t, err)
	assert.Equal(t, "Masha", name())

	f.agenda.ForgetName(f.student.ID)
	assert.Equal(t, "Maria Ivanova", name())
}
