package service

import (
	"errors"
	"fmt"

	"github.com/Freeeeeet/class_scheduler/internal/storage"
)

var (
	ErrValidation              = errors.New("validation failed")
	ErrNotFound                = errors.New("not found")
	ErrForbidden               = errors.New("forbidden")
	ErrOccurrenceNotFound      = errors.New("class has no occurrence on this date")
	ErrQuotaExceeded           = errors.New("reschedule quota exceeded")
	ErrAvailabilityUnavailable = errors.New("availability slot is not available")
	ErrTryAgain                = errors.New("schedule changed concurrently, please try again")

	// ErrConflict - конкурентная транзакция изменила те же данные
	ErrConflict = storage.ErrConflict
)

// QuotaExceededError - ученик уже переносил занятие в этом месяце.
// Ожидаемая ситуация, показывается пользователю и не считается сбоем.
type QuotaExceededError struct {
	StudentID int64
	MonthKey  string
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("student %d already rescheduled a class in %s", e.StudentID, e.MonthKey)
}

func (e *QuotaExceededError) Unwrap() error {
	return ErrQuotaExceeded
}
