package model

import "time"

// RescheduleRecord фиксирует использование месячной квоты переносов.
// На пару (StudentID, MonthKey) допускается не более одной записи.
type RescheduleRecord struct {
	ID                int64     `json:"id"`
	StudentID         int64     `json:"student_id"`
	OriginalClassDate time.Time `json:"original_class_date"`
	MonthKey          string    `json:"month_key"` // YYYY-MM
	RescheduledAt     time.Time `json:"rescheduled_at"`
}
