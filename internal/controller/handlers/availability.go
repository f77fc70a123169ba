package handlers

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/class_scheduler/internal/schedule"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// HandleAvailable обрабатывает команду /available <дата> <ЧЧ:ММ-ЧЧ:ММ>
func (h *Handlers) HandleAvailable(ctx context.Context, b *bot.Bot, update *models.Update) {
	teacher, ok := h.requireTeacher(ctx, b, update)
	if !ok {
		return
	}

	in, err := parseAvailability(commandArgs(update.Message.Text))
	if err != nil {
		h.replyError(ctx, b, update, "create availability", err)
		return
	}

	slot, err := h.classService.CreateAvailability(ctx, teacher.ID, in)
	if err != nil {
		h.replyError(ctx, b, update, "create availability", err)
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, fmt.Sprintf(
		"🟢 Окно #%d открыто: %s %s",
		slot.ID,
		FormatDay(schedule.FormatDate(slot.Date)),
		schedule.FormatTimeRange(slot.StartTime, slot.EndTime),
	))
}

// HandleRemoveAvailable обрабатывает команду /removeavailable <окно>
func (h *Handlers) HandleRemoveAvailable(ctx context.Context, b *bot.Bot, update *models.Update) {
	teacher, ok := h.requireTeacher(ctx, b, update)
	if !ok {
		return
	}

	args := commandArgs(update.Message.Text)
	if len(args) != 1 {
		h.replyError(ctx, b, update, "delete availability", errUsage)
		return
	}

	slotID, err := parseID(args[0])
	if err != nil {
		h.replyError(ctx, b, update, "delete availability", err)
		return
	}

	if err := h.classService.DeleteAvailability(ctx, teacher.ID, slotID); err != nil {
		h.replyError(ctx, b, update, "delete availability", err)
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, fmt.Sprintf("✅ Окно #%d закрыто", slotID))
}
