package model

import "time"

// AvailabilitySlot - конкретное окно учителя, доступное для переноса занятия.
// При бронировании слот удаляется из хранилища.
type AvailabilitySlot struct {
	ID        int64     `json:"id"`
	TeacherID int64     `json:"teacher_id"`
	Date      time.Time `json:"date"`
	StartTime string    `json:"start_time"` // HH:mm
	EndTime   string    `json:"end_time"`   // HH:mm
	CreatedAt time.Time `json:"created_at"`
}
