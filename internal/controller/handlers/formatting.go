package handlers

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Freeeeeet/class_scheduler/internal/model"
	"github.com/Freeeeeet/class_scheduler/internal/schedule"
)

// GetWeekdayName возвращает краткое название дня недели на русском
func GetWeekdayName(weekday int) string {
	names := []string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}
	if weekday >= 0 && weekday < len(names) {
		return names[weekday]
	}
	return "?"
}

// FormatDay форматирует дату YYYY-MM-DD как "Пн 07.04.2025"
func FormatDay(day string) string {
	d, err := schedule.ParseDate(day)
	if err != nil {
		return day
	}
	return fmt.Sprintf("%s %s", GetWeekdayName(int(d.Weekday())), d.Format("02.01.2006"))
}

// FormatAgenda форматирует агенду по дням в хронологическом порядке
func FormatAgenda(agenda model.Agenda, from, to string) string {
	if len(agenda) == 0 {
		return fmt.Sprintf("📭 С %s по %s ничего не запланировано", FormatDay(from), FormatDay(to))
	}

	days := make([]string, 0, len(agenda))
	for day := range agenda {
		days = append(days, day)
	}
	sort.Strings(days)

	var sb strings.Builder
	fmt.Fprintf(&sb, "🗓 Расписание с %s по %s\n", FormatDay(from), FormatDay(to))

	for _, day := range days {
		fmt.Fprintf(&sb, "\n📅 %s\n", FormatDay(day))
		for _, item := range agenda[day] {
			switch item.Type {
			case model.ItemTypeAvailability:
				fmt.Fprintf(&sb, "  🟢 %s %s (окно #%d)\n", item.Time, item.Name, item.ID)
			default:
				fmt.Fprintf(&sb, "  📘 %s %s (занятие #%d)\n", item.Time, item.Name, item.ID)
			}
		}
	}

	return sb.String()
}

// FormatClass форматирует определение занятия
func FormatClass(class *model.ClassDefinition) string {
	var sb strings.Builder

	kind := "разовое"
	if class.IsRecurring {
		kind = "еженедельное"
	}

	fmt.Fprintf(&sb, "📘 Занятие #%d (%s)\n", class.ID, kind)
	if class.IsRecurring {
		fmt.Fprintf(&sb, "   📆 %s - %s\n", FormatDay(schedule.FormatDate(class.StartDate)), FormatDay(schedule.FormatDate(class.EndDate)))
	} else {
		fmt.Fprintf(&sb, "   📆 %s\n", FormatDay(schedule.FormatDate(class.StartDate)))
	}

	for _, slot := range class.ScheduleSlots {
		fmt.Fprintf(&sb, "   🕐 %s %s\n", GetWeekdayName(slot.DayOfWeek), schedule.FormatTimeRange(slot.StartTime, slot.EndTime))
	}

	return sb.String()
}
