package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/Freeeeeet/class_scheduler/internal/schedule"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// HandleNewClass обрабатывает команду /newclass
func (h *Handlers) HandleNewClass(ctx context.Context, b *bot.Bot, update *models.Update) {
	teacher, ok := h.requireTeacher(ctx, b, update)
	if !ok {
		return
	}

	in, err := parseRecurringClass(commandArgs(update.Message.Text))
	if err != nil {
		h.replyError(ctx, b, update, "create class", err)
		return
	}

	class, err := h.classService.CreateClass(ctx, teacher.ID, in)
	if err != nil {
		h.replyError(ctx, b, update, "create class", err)
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, "✅ Занятие создано\n\n"+FormatClass(class))
}

// HandleOnceClass обрабатывает команду /onceclass
func (h *Handlers) HandleOnceClass(ctx context.Context, b *bot.Bot, update *models.Update) {
	teacher, ok := h.requireTeacher(ctx, b, update)
	if !ok {
		return
	}

	in, err := parseOneOffClass(commandArgs(update.Message.Text))
	if err != nil {
		h.replyError(ctx, b, update, "create one-off class", err)
		return
	}

	class, err := h.classService.CreateClass(ctx, teacher.ID, in)
	if err != nil {
		h.replyError(ctx, b, update, "create one-off class", err)
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, "✅ Занятие создано\n\n"+FormatClass(class))
}

// HandleEditClass обрабатывает команду /editclass
func (h *Handlers) HandleEditClass(ctx context.Context, b *bot.Bot, update *models.Update) {
	teacher, ok := h.requireTeacher(ctx, b, update)
	if !ok {
		return
	}

	classID, in, err := parseEditClass(commandArgs(update.Message.Text))
	if err != nil {
		h.replyError(ctx, b, update, "edit class", err)
		return
	}

	class, err := h.classService.EditClass(ctx, teacher.ID, classID, in)
	if err != nil {
		h.replyError(ctx, b, update, "edit class", err)
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, "✅ Занятие изменено\n\n"+FormatClass(class))
}

// HandleClasses обрабатывает команду /classes - занятия, которые ещё не закончились
func (h *Handlers) HandleClasses(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	today := schedule.Day(time.Now())
	classes, err := h.classService.ListClasses(ctx, user.ID, today, today.AddDate(1, 0, 0))
	if err != nil {
		h.replyError(ctx, b, update, "list classes", err)
		return
	}

	if len(classes) == 0 {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "📭 Занятий пока нет")
		return
	}

	var sb strings.Builder
	sb.WriteString("📚 Ваши занятия:\n\n")
	for _, class := range classes {
		sb.WriteString(FormatClass(class))
		sb.WriteString("\n")
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, sb.String())
}

// HandleCancelClass обрабатывает команду /cancelclass <занятие> <дата>
func (h *Handlers) HandleCancelClass(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	args := commandArgs(update.Message.Text)
	if len(args) != 2 {
		h.replyError(ctx, b, update, "cancel class", errUsage)
		return
	}

	ref, err := parseOccurrence(args)
	if err != nil {
		h.replyError(ctx, b, update, "cancel class", err)
		return
	}

	if err := h.classService.CancelClass(ctx, user.ID, ref); err != nil {
		h.replyError(ctx, b, update, "cancel class", err)
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, "✅ Занятие "+FormatDay(ref.Date)+" отменено")
}

// HandleReschedule обрабатывает команду /reschedule <занятие> <дата> <окно>
func (h *Handlers) HandleReschedule(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	args := commandArgs(update.Message.Text)
	if len(args) != 3 {
		h.replyError(ctx, b, update, "reschedule class", errUsage)
		return
	}

	ref, err := parseOccurrence(args)
	if err != nil {
		h.replyError(ctx, b, update, "reschedule class", err)
		return
	}

	slotID, err := parseID(args[2])
	if err != nil {
		h.replyError(ctx, b, update, "reschedule class", err)
		return
	}

	class, err := h.classService.RescheduleClass(ctx, user.ID, ref, slotID)
	if err != nil {
		h.replyError(ctx, b, update, "reschedule class", err)
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID,
		"✅ Занятие "+FormatDay(ref.Date)+" перенесено\n\n"+FormatClass(class))
}
