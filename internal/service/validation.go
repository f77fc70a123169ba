package service

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/Freeeeeet/class_scheduler/internal/model"
	"github.com/Freeeeeet/class_scheduler/internal/schedule"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// SlotInput - время занятия в неделе
type SlotInput struct {
	DayOfWeek int    `json:"day_of_week" validate:"min=0,max=6"`
	StartTime string `json:"start_time" validate:"required,len=5,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"required,len=5,datetime=15:04"`
}

// CreateClassInput - параметры нового занятия
type CreateClassInput struct {
	StudentID   int64       `json:"student_id" validate:"required,gt=0"`
	StartDate   string      `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate     string      `json:"end_date" validate:"required,datetime=2006-01-02"`
	Slots       []SlotInput `json:"schedule_slots" validate:"required,min=1,dive"`
	IsRecurring bool        `json:"is_recurring"`
}

// EditClassInput - новые диапазон дат и слоты занятия
type EditClassInput struct {
	StartDate string      `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string      `json:"end_date" validate:"required,datetime=2006-01-02"`
	Slots     []SlotInput `json:"schedule_slots" validate:"required,min=1,dive"`
}

// CreateAvailabilityInput - параметры окна доступности
type CreateAvailabilityInput struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"required,len=5,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"required,len=5,datetime=15:04"`
}

// OccurrenceRef указывает конкретное вхождение занятия
type OccurrenceRef struct {
	ClassID int64  `json:"class_id" validate:"required,gt=0"`
	Date    string `json:"date" validate:"required,datetime=2006-01-02"`
}

type agendaQuery struct {
	Role       string `json:"role" validate:"required,oneof=student teacher"`
	ViewerID   int64  `json:"viewer_id" validate:"required,gt=0"`
	RangeStart string `json:"range_start" validate:"required,datetime=2006-01-02"`
	RangeEnd   string `json:"range_end" validate:"required,datetime=2006-01-02"`
}

// ValidationError содержит сообщения по полям
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Fields: map[string]string{field: message}}
}

var validate, trans = newValidator()

// newValidator настраивает validator с английскими сообщениями и json-именами полей
func newValidator() (*validator.Validate, ut.Translator) {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	translator, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(v, translator); err != nil {
		panic("register validator translations: " + err.Error())
	}

	return v, translator
}

func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("validate input: %w", err)
	}

	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		// Namespace вида "CreateClassInput.schedule_slots[0].start_time"
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		fields[field] = fe.Translate(trans)
	}

	return &ValidationError{Fields: fields}
}

// buildSchedule проверяет согласованность дат и слотов и переводит их в модель
func buildSchedule(startDate, endDate string, slots []SlotInput, recurring bool) (time.Time, time.Time, []model.ScheduleSlot, error) {
	start, err := schedule.ParseDate(startDate)
	if err != nil {
		return time.Time{}, time.Time{}, nil, invalid("start_date", err.Error())
	}

	end, err := schedule.ParseDate(endDate)
	if err != nil {
		return time.Time{}, time.Time{}, nil, invalid("end_date", err.Error())
	}

	if end.Before(start) {
		return time.Time{}, time.Time{}, nil, invalid("end_date", "end_date must not be before start_date")
	}

	result := make([]model.ScheduleSlot, 0, len(slots))
	for i, slot := range slots {
		if err := checkTimeRange(slot.StartTime, slot.EndTime); err != nil {
			return time.Time{}, time.Time{}, nil, invalid(fmt.Sprintf("schedule_slots[%d]", i), err.Error())
		}
		result = append(result, model.ScheduleSlot{
			DayOfWeek: slot.DayOfWeek,
			StartTime: slot.StartTime,
			EndTime:   slot.EndTime,
		})
	}

	if !recurring {
		// Разовое занятие - ровно один слот в день StartDate
		if len(result) != 1 {
			return time.Time{}, time.Time{}, nil, invalid("schedule_slots", "one-off class must have exactly one slot")
		}
		if result[0].DayOfWeek != int(start.Weekday()) {
			return time.Time{}, time.Time{}, nil, invalid("schedule_slots", "one-off class slot must fall on start_date")
		}
	}

	return start, end, result, nil
}

func checkTimeRange(startTime, endTime string) error {
	startMinutes, err := schedule.ParseClock(startTime)
	if err != nil {
		return err
	}
	endMinutes, err := schedule.ParseClock(endTime)
	if err != nil {
		return err
	}
	if startMinutes >= endMinutes {
		return fmt.Errorf("start_time %s must be before end_time %s", startTime, endTime)
	}
	return nil
}
