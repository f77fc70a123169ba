package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/class_scheduler/internal/schedule"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateClass(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	class := f.weeklyClass(t, 1, "09:00", "10:00")

	assert.NotZero(t, class.ID)
	assert.NotEqual(t, uuid.Nil, class.SeriesID)
	assert.Equal(t, f.teacher.ID, class.TeacherID)
	assert.Equal(t, f.student.ID, class.StudentID)
	assert.Equal(t, "2025-04-01", schedule.FormatDate(class.StartDate))
	assert.Equal(t, "2025-04-30", schedule.FormatDate(class.EndDate))

	stored, err := f.store.GetClass(ctx, class.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, class.ScheduleSlots, stored.ScheduleSlots)
}

func TestCreateClassPermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stranger, err := f.users.RegisterUser(ctx, 3001, "petya", "Petya", "", "ru")
	require.NoError(t, err)

	in := CreateClassInput{
		StudentID:   stranger.ID,
		StartDate:   "2025-04-01",
		EndDate:     "2025-04-30",
		Slots:       []SlotInput{{DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00"}},
		IsRecurring: true,
	}

	_, err = f.classes.CreateClass(ctx, f.teacher.ID, in)
	assert.ErrorIs(t, err, ErrForbidden, "student is not assigned to the teacher")

	in.StudentID = f.student.ID
	_, err = f.classes.CreateClass(ctx, stranger.ID, in)
	assert.ErrorIs(t, err, ErrForbidden, "only teachers create classes")

	in.StudentID = 999
	_, err = f.classes.CreateClass(ctx, f.teacher.ID, in)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateClassValidation(t *testing.T) {
	f := newFixture(t)

	valid := func() CreateClassInput {
		return CreateClassInput{
			StudentID:   f.student.ID,
			StartDate:   "2025-04-01",
			EndDate:     "2025-04-30",
			Slots:       []SlotInput{{DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00"}},
			IsRecurring: true,
		}
	}

	tests := []struct {
		name   string
		modify func(in *CreateClassInput)
		field  string
	}{
		{
			name:   "unpadded time",
			modify: func(in *CreateClassInput) { in.Slots[0].StartTime = "9:00" },
			field:  "schedule_slots[0].start_time",
		},
		{
			name:   "bad date",
			modify: func(in *CreateClassInput) { in.StartDate = "2025-04-31" },
			field:  "start_date",
		},
		{
			name:   "end before start",
			modify: func(in *CreateClassInput) { in.EndDate = "2025-03-01" },
			field:  "end_date",
		},
		{
			name:   "empty slot",
			modify: func(in *CreateClassInput) { in.Slots[0].EndTime = "09:00" },
			field:  "schedule_slots[0]",
		},
		{
			name:   "day of week out of range",
			modify: func(in *CreateClassInput) { in.Slots[0].DayOfWeek = 7 },
			field:  "schedule_slots[0].day_of_week",
		},
		{
			name:   "no slots",
			modify: func(in *CreateClassInput) { in.Slots = nil },
			field:  "schedule_slots",
		},
		{
			name: "one-off slot on another weekday",
			modify: func(in *CreateClassInput) {
				in.IsRecurring = false
				in.EndDate = in.StartDate
			},
			field: "schedule_slots",
		},
		{
			name: "one-off with two slots",
			modify: func(in *CreateClassInput) {
				in.IsRecurring = false
				in.Slots = []SlotInput{
					{DayOfWeek: 2, StartTime: "09:00", EndTime: "10:00"},
					{DayOfWeek: 2, StartTime: "11:00", EndTime: "12:00"},
				}
			},
			field: "schedule_slots",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.modify(&in)

			_, err := f.classes.CreateClass(context.Background(), f.teacher.ID, in)
			require.ErrorIs(t, err, ErrValidation)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Contains(t, ve.Fields, tt.field)
		})
	}
}

func TestCreateOneOffClass(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// 2025-04-02 - среда
	class, err := f.classes.CreateClass(ctx, f.teacher.ID, CreateClassInput{
		StudentID: f.student.ID,
		StartDate: "2025-04-02",
		EndDate:   "2025-04-02",
		Slots:     []SlotInput{{DayOfWeek: 3, StartTime: "15:00", EndTime: "16:00"}},
	})
	require.NoError(t, err)
	assert.False(t, class.IsRecurring)

	agenda, err := f.agenda.GetAgenda(ctx, schedule.RoleStudent, f.student.ID, "2025-04-01", "2025-04-30")
	require.NoError(t, err)
	require.Len(t, agenda, 1)
	assert.Equal(t, "15:00 - 16:00", agenda["2025-04-02"][0].Time)
}

func TestEditClass(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	class := f.weeklyClass(t, 1, "09:00", "10:00")

	updated, err := f.classes.EditClass(ctx, f.teacher.ID, class.ID, EditClassInput{
		StartDate: "2025-04-01",
		EndDate:   "2025-04-15",
		Slots:     []SlotInput{{DayOfWeek: 5, StartTime: "18:00", EndTime: "19:00"}},
	})
	require.NoError(t, err)
	assert.Equal(t, class.ID, updated.ID)
	assert.Equal(t, class.SeriesID, updated.SeriesID)
	assert.True(t, updated.IsRecurring)

	agenda, err := f.agenda.GetAgenda(ctx, schedule.RoleStudent, f.student.ID, "2025-04-01", "2025-04-30")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"2025-04-04", "2025-04-11"}, keys(agenda))

	_, err = f.classes.EditClass(ctx, f.student.ID, class.ID, EditClassInput{
		StartDate: "2025-04-01",
		EndDate:   "2025-04-15",
		Slots:     []SlotInput{{DayOfWeek: 5, StartTime: "18:00", EndTime: "19:00"}},
	})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.classes.EditClass(ctx, f.teacher.ID, 999, EditClassInput{
		StartDate: "2025-04-01",
		EndDate:   "2025-04-15",
		Slots:     []SlotInput{{DayOfWeek: 5, StartTime: "18:00", EndTime: "19:00"}},
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListClasses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	monday := f.weeklyClass(t, 1, "09:00", "10:00")
	friday := f.weeklyClass(t, 5, "09:00", "10:00")

	from, to := fixedNow, fixedNow.AddDate(0, 0, 7)

	forStudent, err := f.classes.ListClasses(ctx, f.student.ID, from, to)
	require.NoError(t, err)
	require.Len(t, forStudent, 2)
	assert.Equal(t, monday.ID, forStudent[0].ID)
	assert.Equal(t, friday.ID, forStudent[1].ID)

	forTeacher, err := f.classes.ListClasses(ctx, f.teacher.ID, from, to)
	require.NoError(t, err)
	assert.Len(t, forTeacher, 2)

	outside, err := f.classes.ListClasses(ctx, f.student.ID, fixedNow.AddDate(0, 2, 0), fixedNow.AddDate(0, 3, 0))
	require.NoError(t, err)
	assert.Empty(t, outside)
}

func TestCreateAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	slot := f.availability(t, "2025-04-22", "13:00", "14:00")
	assert.Equal(t, f.teacher.ID, slot.TeacherID)
	assert.Equal(t, "2025-04-22", schedule.FormatDate(slot.Date))

	_, err := f.classes.CreateAvailability(ctx, f.teacher.ID, CreateAvailabilityInput{
		Date: "2025-03-31", StartTime: "13:00", EndTime: "14:00",
	})
	assert.ErrorIs(t, err, ErrValidation, "date in the past")

	_, err = f.classes.CreateAvailability(ctx, f.teacher.ID, CreateAvailabilityInput{
		Date: "2025-04-22", StartTime: "14:00", EndTime: "13:00",
	})
	assert.ErrorIs(t, err, ErrValidation, "end before start")

	_, err = f.classes.CreateAvailability(ctx, f.student.ID, CreateAvailabilityInput{
		Date: "2025-04-22", StartTime: "13:00", EndTime: "14:00",
	})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestDeleteAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	slot := f.availability(t, "2025-04-22", "13:00", "14:00")

	err := f.classes.DeleteAvailability(ctx, f.student.ID, slot.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, f.classes.DeleteAvailability(ctx, f.teacher.ID, slot.ID))

	stored, err := f.store.GetAvailability(ctx, slot.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)

	err = f.classes.DeleteAvailability(ctx, f.teacher.ID, slot.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPurgeExpiredAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	expired := f.availability(t, "2025-04-05", "13:00", "14:00")
	today := f.availability(t, "2025-04-10", "13:00", "14:00")

	f.classes.now = func() time.Time { return time.Date(2025, 4, 10, 8, 0, 0, 0, time.UTC) }

	count, err := f.classes.PurgeExpiredAvailability(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	gone, err := f.store.GetAvailability(ctx, expired.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	kept, err := f.store.GetAvailability(ctx, today.ID)
	require.NoError(t, err)
	assert.NotNil(t, kept)
}

func TestCancelClassSplitsSeries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	class := f.weeklyClass(t, 1, "09:00", "10:00")

	err := f.classes.CancelClass(ctx, f.student.ID, OccurrenceRef{ClassID: class.ID, Date: "2025-04-14"})
	require.NoError(t, err)

	classes, err := f.store.ListClassesByStudent(ctx, f.student.ID, fixedNow, fixedNow.AddDate(0, 1, 0))
	require.NoError(t, err)
	require.Len(t, classes, 2)

	head, tail := classes[0], classes[1]
	assert.Equal(t, class.ID, head.ID)
	assert.Equal(t, "2025-04-01", schedule.FormatDate(head.StartDate))
	assert.Equal(t, "2025-04-13", schedule.FormatDate(head.EndDate))
	assert.Equal(t, "2025-04-15", schedule.FormatDate(tail.StartDate))
	assert.Equal(t, "2025-04-30", schedule.FormatDate(tail.EndDate))
	assert.Equal(t, class.SeriesID, tail.SeriesID)
	assert.Equal(t, class.ScheduleSlots, tail.ScheduleSlots)

	agenda, err := f.agenda.GetAgenda(ctx, schedule.RoleStudent, f.student.ID, "2025-04-01", "2025-04-30")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"2025-04-07", "2025-04-21", "2025-04-28"}, keys(agenda))
}

func TestCancelClassFirstOccurrence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	class := f.weeklyClass(t, 1, "09:00", "10:00")

	// До 2025-04-07 понедельников нет, исходное занятие удаляется целиком
	err := f.classes.CancelClass(ctx, f.teacher.ID, OccurrenceRef{ClassID: class.ID, Date: "2025-04-07"})
	require.NoError(t, err)

	original, err := f.store.GetClass(ctx, class.ID)
	require.NoError(t, err)
	assert.Nil(t, original)

	classes, err := f.store.ListClassesByStudent(ctx, f.student.ID, fixedNow, fixedNow.AddDate(0, 1, 0))
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "2025-04-08", schedule.FormatDate(classes[0].StartDate))
}

func TestCancelClassErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	class := f.weeklyClass(t, 1, "09:00", "10:00")

	stranger, err := f.users.RegisterUser(ctx, 3001, "petya", "Petya", "", "ru")
	require.NoError(t, err)

	tests := []struct {
		name    string
		actorID int64
		ref     OccurrenceRef
		wantErr error
	}{
		{"not an occurrence day", f.student.ID, OccurrenceRef{ClassID: class.ID, Date: "2025-04-08"}, ErrOccurrenceNotFound},
		{"outside date range", f.student.ID, OccurrenceRef{ClassID: class.ID, Date: "2025-05-05"}, ErrOccurrenceNotFound},
		{"foreign class", stranger.ID, OccurrenceRef{ClassID: class.ID, Date: "2025-04-07"}, ErrForbidden},
		{"unknown class", f.student.ID, OccurrenceRef{ClassID: 999, Date: "2025-04-07"}, ErrNotFound},
		{"bad date", f.student.ID, OccurrenceRef{ClassID: class.ID, Date: "07.04.2025"}, ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.classes.CancelClass(ctx, tt.actorID, tt.ref)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	stored, err := f.store.GetClass(ctx, class.ID)
	require.NoError(t, err)
	assert.Equal(t, class.EndDate, stored.EndDate)
}

func TestRescheduleClass(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	class := f.weeklyClass(t, 1, "09:00", "10:00")
	slot := f.availability(t, "2025-04-23", "14:00", "15:00")

	replacement, err := f.classes.RescheduleClass(ctx, f.student.ID, OccurrenceRef{ClassID: class.ID, Date: "2025-04-14"}, slot.ID)
	require.NoError(t, err)

	assert.False(t, replacement.IsRecurring)
	assert.Equal(t, class.SeriesID, replacement.SeriesID)
	assert.Equal(t, "2025-04-23", schedule.FormatDate(replacement.StartDate))
	assert.Equal(t, "2025-04-23", schedule.FormatDate(replacement.EndDate))
	require.Len(t, replacement.ScheduleSlots, 1)
	assert.Equal(t, 3, replacement.ScheduleSlots[0].DayOfWeek)
	assert.Equal(t, "14:00", replacement.ScheduleSlots[0].StartTime)

	consumed, err := f.store.GetAvailability(ctx, slot.ID)
	require.NoError(t, err)
	assert.Nil(t, consumed, "availability slot is consumed")

	records, err := f.store.ListReschedulesByStudent(ctx, f.student.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "2025-04", records[0].MonthKey)
	assert.Equal(t, "2025-04-14", schedule.FormatDate(records[0].OriginalClassDate))

	agenda, err := f.agenda.GetAgenda(ctx, schedule.RoleStudent, f.student.ID, "2025-04-14", "2025-04-23")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"2025-04-21", "2025-04-23"}, keys(agenda))
	require.Len(t, agenda["2025-04-23"], 1)
	assert.Equal(t, schedule.NameStudentClass, agenda["2025-04-23"][0].Name)
	assert.Equal(t, "14:00 - 15:00", agenda["2025-04-23"][0].Time)
}

func TestRescheduleClassMonthlyQuota(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	class := f.weeklyClass(t, 1, "09:00", "10:00")
	first := f.availability(t, "2025-04-23", "14:00", "15:00")
	second := f.availability(t, "2025-04-24", "14:00", "15:00")

	_, err := f.classes.RescheduleClass(ctx, f.student.ID, OccurrenceRef{ClassID: class.ID, Date: "2025-04-07"}, first.ID)
	require.NoError(t, err)

	classes, err := f.store.ListClassesByStudent(ctx, f.student.ID, fixedNow, fixedNow.AddDate(0, 1, 0))
	require.NoError(t, err)

	var series int64
	for _, c := range classes {
		if c.IsRecurring {
			series = c.ID
		}
	}
	require.NotZero(t, series)

	_, err = f.classes.RescheduleClass(ctx, f.student.ID, OccurrenceRef{ClassID: series, Date: "2025-04-21"}, second.ID)
	require.ErrorIs(t, err, ErrQuotaExceeded)

	var quotaErr *QuotaExceededError
	require.True(t, errors.As(err, &quotaErr))
	assert.Equal(t, f.student.ID, quotaErr.StudentID)
	assert.Equal(t, "2025-04", quotaErr.MonthKey)

	kept, err := f.store.GetAvailability(ctx, second.ID)
	require.NoError(t, err)
	assert.NotNil(t, kept, "rejected reschedule leaves the slot untouched")

	agenda, err := f.agenda.GetAgenda(ctx, schedule.RoleStudent, f.student.ID, "2025-04-21", "2025-04-21")
	require.NoError(t, err)
	assert.Len(t, agenda["2025-04-21"], 1)
}

func TestRescheduleClassUnavailableSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	class := f.weeklyClass(t, 1, "09:00", "10:00")

	_, err := f.classes.RescheduleClass(ctx, f.student.ID, OccurrenceRef{ClassID: class.ID, Date: "2025-04-14"}, 999)
	assert.ErrorIs(t, err, ErrAvailabilityUnavailable)

	other, err := f.users.RegisterUser(ctx, 4001, "oleg", "Oleg", "", "ru")
	require.NoError(t, err)
	require.NoError(t, f.users.MakeTeacher(ctx, other.TelegramID))

	foreign, err := f.classes.CreateAvailability(ctx, other.ID, CreateAvailabilityInput{
		Date: "2025-04-23", StartTime: "14:00", EndTime: "15:00",
	})
	require.NoError(t, err)

	_, err = f.classes.RescheduleClass(ctx, f.student.ID, OccurrenceRef{ClassID: class.ID, Date: "2025-04-14"}, foreign.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	records, err := f.store.ListReschedulesByStudent(ctx, f.student.ID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRescheduleClassConcurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	monday := f.weeklyClass(t, 1, "09:00", "10:00")
	wednesday := f.weeklyClass(t, 3, "09:00", "10:00")
	first := f.availability(t, "2025-04-24", "14:00", "15:00")
	second := f.availability(t, "2025-04-25", "14:00", "15:00")

	refs := []OccurrenceRef{
		{ClassID: monday.ID, Date: "2025-04-14"},
		{ClassID: wednesday.ID, Date: "2025-04-16"},
	}
	slots := []int64{first.ID, second.ID}

	errs := make([]error, len(refs))
	var wg sync.WaitGroup
	for i := range refs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.classes.RescheduleClass(ctx, f.student.ID, refs[i], slots[i])
		}(i)
	}
	wg.Wait()

	var succeeded, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrQuotaExceeded):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, rejected)

	records, err := f.store.ListReschedulesByStudent(ctx, f.student.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "2025-04", records[0].MonthKey)
}

func TestRescheduleClassRetriesConflict(t *testing.T) {
	store := newConflictingStore(0)
	f := newFixtureWithStore(t, store)
	ctx := context.Background()
	class := f.weeklyClass(t, 1, "09:00", "10:00")
	slot := f.availability(t, "2025-04-23", "14:00", "15:00")

	store.conflicts.Store(1)

	replacement, err := f.classes.RescheduleClass(ctx, f.student.ID, OccurrenceRef{ClassID: class.ID, Date: "2025-04-14"}, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-04-23", schedule.FormatDate(replacement.StartDate))

	records, err := f.store.ListReschedulesByStudent(ctx, f.student.ID)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	classes, err := f.store.ListClassesByStudent(ctx, f.student.ID, fixedNow, fixedNow.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Len(t, classes, 3, "head, continuation and one-off replacement")
}

func TestRescheduleClassConflictTwice(t *testing.T) {
	store := newConflictingStore(0)
	f := newFixtureWithStore(t, store)
	ctx := context.Background()
	class := f.weeklyClass(t, 1, "09:00", "10:00")
	slot := f.availability(t, "2025-04-23", "14:00", "15:00")

	store.conflicts.Store(2)

	_, err := f.classes.RescheduleClass(ctx, f.student.ID, OccurrenceRef{ClassID: class.ID, Date: "2025-04-14"}, slot.ID)
	require.ErrorIs(t, err, ErrTryAgain)

	// Ни одно изменение не применено
	stored, err := f.store.GetClass(ctx, class.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, class.EndDate, stored.EndDate)

	classes, err := f.store.ListClassesByStudent(ctx, f.student.ID, fixedNow, fixedNow.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Len(t, classes, 1)

	kept, err := f.store.GetAvailability(ctx, slot.ID)
	require.NoError(t, err)
	assert.NotNil(t, kept)

	records, err := f.store.ListReschedulesByStudent(ctx, f.student.ID)
	require.NoError(t, err)
	assert.Empty(t, records)
}
