package handlers

import (
	"context"
	"time"

	"github.com/Freeeeeet/class_scheduler/internal/schedule"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// agendaRange определяет период по аргументам /agenda [с] [по].
// Без аргументов - agendaDefaultDays дней начиная с today.
func agendaRange(args []string, today string, defaultDays int) (string, string, error) {
	from := today
	if len(args) > 0 {
		from = args[0]
	}

	switch len(args) {
	case 0, 1:
		start, err := schedule.ParseDate(from)
		if err != nil {
			return "", "", errUsage
		}
		return from, schedule.FormatDate(start.AddDate(0, 0, defaultDays-1)), nil
	case 2:
		return args[0], args[1], nil
	default:
		return "", "", errUsage
	}
}

// HandleAgenda обрабатывает команду /agenda.
// Учитель видит расписание как учитель, остальные - как ученики.
func (h *Handlers) HandleAgenda(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	today := schedule.FormatDate(schedule.Day(time.Now()))
	from, to, err := agendaRange(commandArgs(update.Message.Text), today, h.agendaDefaultDays)
	if err != nil {
		h.replyError(ctx, b, update, "get agenda", err)
		return
	}

	role := schedule.RoleStudent
	if user.IsTeacher {
		role = schedule.RoleTeacher
	}

	agenda, err := h.agendaService.GetAgenda(ctx, role, user.ID, from, to)
	if err != nil {
		h.replyError(ctx, b, update, "get agenda", err)
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, FormatAgenda(agenda, from, to))
}
