package schedule

import (
	"time"

	"github.com/Freeeeeet/class_scheduler/internal/model"
)

// Project отбирает окна доступности учителя, попадающие в интервал [from, to].
// Каждое окно даёт ровно один элемент агенды.
func Project(slots []*model.AvailabilitySlot, teacherID int64, from, to time.Time) []model.AgendaItem {
	start, end := Day(from), Day(to)

	var items []model.AgendaItem
	for _, slot := range slots {
		if slot.TeacherID != teacherID {
			continue
		}

		date := Day(slot.Date)
		if date.Before(start) || date.After(end) {
			continue
		}

		items = append(items, model.AgendaItem{
			ID:           slot.ID,
			Time:         FormatTimeRange(slot.StartTime, slot.EndTime),
			Type:         model.ItemTypeAvailability,
			Day:          FormatDate(date),
			Availability: slot,
		})
	}

	return items
}
