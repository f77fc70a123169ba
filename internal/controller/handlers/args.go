package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Freeeeeet/class_scheduler/internal/schedule"
	"github.com/Freeeeeet/class_scheduler/internal/service"
)

var errUsage = errors.New("invalid command arguments")

// commandArgs возвращает аргументы команды без самой команды
func commandArgs(text string) []string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}
	return fields[1:]
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("bad id %q: %w", s, errUsage)
	}
	return id, nil
}

// weekdays - сокращения дней недели, индекс совпадает с time.Weekday
var weekdays = map[string]int{
	"вс": 0, "пн": 1, "вт": 2, "ср": 3, "чт": 4, "пт": 5, "сб": 6,
	"sun": 0, "mon": 1, "tue": 2, "wed": 3, "thu": 4, "fri": 5, "sat": 6,
}

func parseWeekday(s string) (int, error) {
	if day, ok := weekdays[strings.ToLower(s)]; ok {
		return day, nil
	}

	day, err := strconv.Atoi(s)
	if err != nil || day < 0 || day > 6 {
		return 0, fmt.Errorf("bad weekday %q: %w", s, errUsage)
	}
	return day, nil
}

// weekdayOf возвращает день недели даты YYYY-MM-DD
func weekdayOf(date string) (int, error) {
	day, err := schedule.ParseDate(date)
	if err != nil {
		return 0, fmt.Errorf("bad date %q: %w", date, errUsage)
	}
	return int(day.Weekday()), nil
}

// parseTimeRange разбирает "09:00-10:00"; формат времени проверяет сервис
func parseTimeRange(s string) (string, string, error) {
	start, end, ok := strings.Cut(s, "-")
	if !ok || start == "" || end == "" {
		return "", "", fmt.Errorf("bad time range %q: %w", s, errUsage)
	}
	return start, end, nil
}

// parseSlots разбирает пары "<день> <ЧЧ:ММ-ЧЧ:ММ>"
func parseSlots(args []string) ([]service.SlotInput, error) {
	if len(args) == 0 || len(args)%2 != 0 {
		return nil, fmt.Errorf("slots must be weekday and time pairs: %w", errUsage)
	}

	slots := make([]service.SlotInput, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		day, err := parseWeekday(args[i])
		if err != nil {
			return nil, err
		}

		start, end, err := parseTimeRange(args[i+1])
		if err != nil {
			return nil, err
		}

		slots = append(slots, service.SlotInput{DayOfWeek: day, StartTime: start, EndTime: end})
	}
	return slots, nil
}

// parseRecurringClass: <student_id> <с> <по> <день> <время> [<день> <время> ...]
func parseRecurringClass(args []string) (service.CreateClassInput, error) {
	if len(args) < 5 {
		return service.CreateClassInput{}, errUsage
	}

	studentID, err := parseID(args[0])
	if err != nil {
		return service.CreateClassInput{}, err
	}

	slots, err := parseSlots(args[3:])
	if err != nil {
		return service.CreateClassInput{}, err
	}

	return service.CreateClassInput{
		StudentID:   studentID,
		StartDate:   args[1],
		EndDate:     args[2],
		Slots:       slots,
		IsRecurring: true,
	}, nil
}

// parseOneOffClass: <student_id> <дата> <время>
func parseOneOffClass(args []string) (service.CreateClassInput, error) {
	if len(args) != 3 {
		return service.CreateClassInput{}, errUsage
	}

	studentID, err := parseID(args[0])
	if err != nil {
		return service.CreateClassInput{}, err
	}

	day, err := weekdayOf(args[1])
	if err != nil {
		return service.CreateClassInput{}, err
	}

	start, end, err := parseTimeRange(args[2])
	if err != nil {
		return service.CreateClassInput{}, err
	}

	return service.CreateClassInput{
		StudentID: studentID,
		StartDate: args[1],
		EndDate:   args[1],
		Slots:     []service.SlotInput{{DayOfWeek: day, StartTime: start, EndTime: end}},
	}, nil
}

// parseEditClass: <class_id> <с> <по> <день> <время> [...]
func parseEditClass(args []string) (int64, service.EditClassInput, error) {
	if len(args) < 5 {
		return 0, service.EditClassInput{}, errUsage
	}

	classID, err := parseID(args[0])
	if err != nil {
		return 0, service.EditClassInput{}, err
	}

	slots, err := parseSlots(args[3:])
	if err != nil {
		return 0, service.EditClassInput{}, err
	}

	return classID, service.EditClassInput{StartDate: args[1], EndDate: args[2], Slots: slots}, nil
}

// parseAvailability: <дата> <время>
func parseAvailability(args []string) (service.CreateAvailabilityInput, error) {
	if len(args) != 2 {
		return service.CreateAvailabilityInput{}, errUsage
	}

	start, end, err := parseTimeRange(args[1])
	if err != nil {
		return service.CreateAvailabilityInput{}, err
	}

	return service.CreateAvailabilityInput{Date: args[0], StartTime: start, EndTime: end}, nil
}

// parseOccurrence: <class_id> <дата>
func parseOccurrence(args []string) (service.OccurrenceRef, error) {
	if len(args) < 2 {
		return service.OccurrenceRef{}, errUsage
	}

	classID, err := parseID(args[0])
	if err != nil {
		return service.OccurrenceRef{}, err
	}

	return service.OccurrenceRef{ClassID: classID, Date: args[1]}, nil
}
