package schedule

import (
	"time"

	"github.com/Freeeeeet/class_scheduler/internal/model"
)

// CanReschedule проверяет, не использовал ли ученик перенос в месяце исходного занятия
func CanReschedule(studentID int64, originalClassDate time.Time, history []*model.RescheduleRecord) bool {
	monthKey := MonthKey(originalClassDate)
	for _, record := range history {
		if record.StudentID == studentID && record.MonthKey == monthKey {
			return false
		}
	}
	return true
}

// NewRescheduleRecord создаёт запись об использовании квоты.
// Вызывается только после успешной CanReschedule в той же транзакции.
func NewRescheduleRecord(studentID int64, originalClassDate, now time.Time) *model.RescheduleRecord {
	date := Day(originalClassDate)
	return &model.RescheduleRecord{
		StudentID:         studentID,
		OriginalClassDate: date,
		MonthKey:          MonthKey(date),
		RescheduledAt:     now,
	}
}
