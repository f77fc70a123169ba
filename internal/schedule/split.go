package schedule

import (
	"time"

	"github.com/Freeeeeet/class_scheduler/internal/model"
)

// SplitAt исключает из занятия вхождение в день day.
// head - исходное занятие, укороченное до предыдущего дня; tail - продолжение серии
// со следующего дня с теми же слотами и SeriesID (ID = 0, ещё не сохранено).
// nil означает, что соответствующей части не остаётся и её нужно удалить / не создавать.
func SplitAt(class *model.ClassDefinition, day time.Time) (head, tail *model.ClassDefinition) {
	day = Day(day)
	if !class.IsRecurring {
		return nil, nil
	}

	start, end := Day(class.StartDate), Day(class.EndDate)

	if before := prevDay(day); !before.Before(start) {
		head = class.Clone()
		head.EndDate = before
		if !HasOccurrences(head) {
			head = nil
		}
	}

	if after := nextDay(day); !after.After(end) {
		tail = class.Clone()
		tail.ID = 0
		tail.StartDate = after
		if !HasOccurrences(tail) {
			tail = nil
		}
	}

	return head, tail
}
