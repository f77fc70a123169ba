package schedule

import (
	"time"

	"github.com/Freeeeeet/class_scheduler/internal/model"
)

// Expand разворачивает занятие в конкретные даты внутри интервала [from, to].
// Элементы идут по возрастанию даты, внутри даты - в порядке слотов занятия.
// Имя элемента не заполняется, его назначает Merge.
func Expand(class *model.ClassDefinition, from, to time.Time) []model.AgendaItem {
	if len(class.ScheduleSlots) == 0 {
		return nil
	}

	start := maxDay(Day(class.StartDate), Day(from))
	end := minDay(Day(class.EndDate), Day(to))

	if !class.IsRecurring {
		// Разовое занятие возможно только в StartDate
		only := Day(class.StartDate)
		if only.Before(start) || only.After(end) {
			return nil
		}
		start, end = only, only
	}

	var items []model.AgendaItem
	for d := start; !d.After(end); d = nextDay(d) {
		weekday := int(d.Weekday())
		for _, slot := range class.ScheduleSlots {
			if slot.DayOfWeek != weekday {
				continue
			}

			items = append(items, model.AgendaItem{
				ID:    class.ID,
				Time:  FormatTimeRange(slot.StartTime, slot.EndTime),
				Type:  model.ItemTypeClass,
				Day:   FormatDate(d),
				Class: class,
			})

			if !class.IsRecurring {
				return items
			}
		}
	}

	return items
}

// OccursOn проверяет, есть ли у занятия вхождение в указанный день
func OccursOn(class *model.ClassDefinition, day time.Time) bool {
	return len(Expand(class, day, day)) > 0
}

// HasOccurrences проверяет, что у занятия есть хотя бы одно вхождение
func HasOccurrences(class *model.ClassDefinition) bool {
	start := Day(class.StartDate)
	if !class.IsRecurring {
		return OccursOn(class, start)
	}

	// Достаточно проверить первую неделю диапазона
	end := minDay(Day(class.EndDate), start.AddDate(0, 0, 6))
	return len(Expand(class, start, end)) > 0
}
