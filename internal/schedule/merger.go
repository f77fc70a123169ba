package schedule

import (
	"fmt"
	"sort"

	"github.com/Freeeeeet/class_scheduler/internal/model"
)

// Role точка зрения, с которой строится агенда
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// Названия элементов агенды
const (
	NameStudentClass        = "Your Class"
	NameStudentAvailability = "Available Slot with %s"
	NameTeacherAvailability = "Available for Rescheduling"
)

// Viewer описывает того, кто смотрит агенду
type Viewer struct {
	Role         Role
	ID           int64
	TeacherID    int64            // для ученика - закреплённый учитель, 0 - не назначен
	TeacherName  string           // для ученика - имя закреплённого учителя
	StudentNames map[int64]string // для учителя - имена учеников
}

// Merge объединяет занятия и окна доступности в агенду по дням.
// Элементы фильтруются по роли смотрящего, получают имена и сортируются по времени начала.
func Merge(classItems, availabilityItems []model.AgendaItem, viewer Viewer) model.Agenda {
	agenda := make(model.Agenda)

	for _, item := range classItems {
		if item.Class == nil || !viewer.seesClass(item.Class) {
			continue
		}
		item.Name = viewer.className(item.Class)
		agenda[item.Day] = append(agenda[item.Day], item)
	}

	for _, item := range availabilityItems {
		if item.Availability == nil || !viewer.seesAvailability(item.Availability) {
			continue
		}
		item.Name = viewer.availabilityName()
		agenda[item.Day] = append(agenda[item.Day], item)
	}

	for day := range agenda {
		sortDay(agenda[day])
	}

	return agenda
}

func (v Viewer) seesClass(class *model.ClassDefinition) bool {
	switch v.Role {
	case RoleStudent:
		return class.StudentID == v.ID
	case RoleTeacher:
		return class.TeacherID == v.ID
	default:
		return false
	}
}

func (v Viewer) seesAvailability(slot *model.AvailabilitySlot) bool {
	switch v.Role {
	case RoleStudent:
		return v.TeacherID != 0 && slot.TeacherID == v.TeacherID
	case RoleTeacher:
		return slot.TeacherID == v.ID
	default:
		return false
	}
}

func (v Viewer) className(class *model.ClassDefinition) string {
	if v.Role == RoleStudent {
		return NameStudentClass
	}
	if name, ok := v.StudentNames[class.StudentID]; ok && name != "" {
		return name
	}
	return fmt.Sprintf("Student #%d", class.StudentID)
}

func (v Viewer) availabilityName() string {
	if v.Role == RoleStudent {
		return fmt.Sprintf(NameStudentAvailability, v.TeacherName)
	}
	return NameTeacherAvailability
}

// sortDay сортирует элементы дня по времени начала.
// HH:mm фиксированной ширины, поэтому достаточно сравнения строк.
func sortDay(items []model.AgendaItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.StartTime() != b.StartTime() {
			return a.StartTime() < b.StartTime()
		}
		if a.Type != b.Type {
			return a.Type == model.ItemTypeClass
		}
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		return a.Time < b.Time
	})
}
