package model

import (
	"time"

	"github.com/google/uuid"
)

// ScheduleSlot описывает время занятия внутри недели
type ScheduleSlot struct {
	DayOfWeek int    `json:"day_of_week"` // 0 = Sunday, 6 = Saturday
	StartTime string `json:"start_time"`  // HH:mm
	EndTime   string `json:"end_time"`    // HH:mm
}

// ClassDefinition представляет регулярное или разовое занятие ученика с учителем
type ClassDefinition struct {
	ID            int64          `json:"id"`
	SeriesID      uuid.UUID      `json:"series_id"` // общая серия для исходного занятия, его продолжений и переносов
	TeacherID     int64          `json:"teacher_id"`
	StudentID     int64          `json:"student_id"`
	StartDate     time.Time      `json:"start_date"` // включительно
	EndDate       time.Time      `json:"end_date"`   // включительно
	ScheduleSlots []ScheduleSlot `json:"schedule_slots"`
	IsRecurring   bool           `json:"is_recurring"` // false - занятие только в StartDate
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Clone возвращает копию занятия с собственным набором слотов
func (c *ClassDefinition) Clone() *ClassDefinition {
	cp := *c
	cp.ScheduleSlots = append([]ScheduleSlot(nil), c.ScheduleSlots...)
	return &cp
}
