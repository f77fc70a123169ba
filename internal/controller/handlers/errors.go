package handlers

import (
	"errors"

	"github.com/Freeeeeet/class_scheduler/internal/service"
)

// ErrorMessage возвращает пользовательское сообщение для ошибки
func ErrorMessage(err error) string {
	var ve *service.ValidationError

	switch {
	case errors.As(err, &ve):
		return "❌ Неверные данные: " + ve.Error()
	case errors.Is(err, errUsage):
		return "❌ Неверный формат команды. Подробнее: /help"
	case errors.Is(err, service.ErrQuotaExceeded):
		return "⚠️ В этом месяце вы уже переносили занятие. Свяжитесь с учителем, чтобы договориться о переносе."
	case errors.Is(err, service.ErrTryAgain):
		return "🔄 Расписание только что изменилось. Пожалуйста, попробуйте ещё раз."
	case errors.Is(err, service.ErrAvailabilityUnavailable):
		return "❌ Это окно уже недоступно. Посмотрите свободные окна в /agenda"
	case errors.Is(err, service.ErrOccurrenceNotFound):
		return "❌ В этот день занятия нет"
	case errors.Is(err, service.ErrForbidden):
		return "❌ Недостаточно прав для этого действия"
	case errors.Is(err, service.ErrNotFound):
		return "❌ Не найдено"
	default:
		return "❌ Произошла ошибка. Попробуйте позже."
	}
}

// isExpected - ошибка вызвана вводом пользователя, а не сбоем
func isExpected(err error) bool {
	for _, target := range []error{
		errUsage,
		service.ErrValidation,
		service.ErrQuotaExceeded,
		service.ErrTryAgain,
		service.ErrAvailabilityUnavailable,
		service.ErrOccurrenceNotFound,
		service.ErrForbidden,
		service.ErrNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
