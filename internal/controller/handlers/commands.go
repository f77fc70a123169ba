package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const helpText = "📚 Справка по командам:\n\n" +
	"Для всех:\n" +
	"/start - Начать работу с ботом\n" +
	"/agenda [с] [по] - Расписание (даты в формате ГГГГ-ММ-ДД)\n" +
	"/classes - Мои занятия\n" +
	"/cancelclass <занятие> <дата> - Отменить одно занятие\n" +
	"/reschedule <занятие> <дата> <окно> - Перенести занятие в свободное окно (раз в месяц)\n" +
	"/help - Показать эту справку\n\n" +
	"Для учителей:\n" +
	"/becometeacher - Стать учителем\n" +
	"/addstudent @username - Добавить ученика\n" +
	"/students - Мои ученики\n" +
	"/newclass <ученик> <с> <по> <день> <ЧЧ:ММ-ЧЧ:ММ> [...] - Еженедельное занятие\n" +
	"/onceclass <ученик> <дата> <ЧЧ:ММ-ЧЧ:ММ> - Разовое занятие\n" +
	"/editclass <занятие> <с> <по> <день> <ЧЧ:ММ-ЧЧ:ММ> [...] - Изменить занятие\n" +
	"/available <дата> <ЧЧ:ММ-ЧЧ:ММ> - Открыть окно для переноса\n" +
	"/removeavailable <окно> - Закрыть окно\n\n" +
	"Дни недели: пн вт ср чт пт сб вс или 0-6 (0 - воскресенье)\n" +
	"Пример: /newclass 12 2025-04-01 2025-04-30 пн 09:00-10:00 чт 17:00-18:00"

// HandleStart обрабатывает команду /start
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	user := update.Message.From

	// Регистрируем пользователя
	registeredUser, err := h.userService.RegisterUser(
		ctx,
		user.ID,
		user.Username,
		user.FirstName,
		user.LastName,
		user.LanguageCode,
	)

	if err != nil {
		h.logger.Error("Failed to register user", zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Произошла ошибка при регистрации. Попробуйте позже.")
		return
	}

	h.agendaService.ForgetName(registeredUser.ID)

	welcomeText := fmt.Sprintf(
		"👋 Привет, %s!\n\n"+
			"Это бот расписания занятий. Ваш номер: %d - сообщите его учителю.\n\n"+
			"/agenda - Расписание на неделю\n"+
			"/help - Справка",
		registeredUser.DisplayName(),
		registeredUser.ID,
	)

	h.sendMessage(ctx, b, update.Message.Chat.ID, welcomeText)
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, helpText)
}

// HandleBecomeTeacher обрабатывает команду /becometeacher
func (h *Handlers) HandleBecomeTeacher(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	if user.IsTeacher {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "✅ Вы уже учитель.")
		return
	}

	if err := h.userService.MakeTeacher(ctx, user.TelegramID); err != nil {
		h.replyError(ctx, b, update, "become teacher", err)
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID,
		"🎓 Теперь вы учитель!\n\nДобавьте учеников командой /addstudent @username")
}

// HandleAddStudent обрабатывает команду /addstudent @username
func (h *Handlers) HandleAddStudent(ctx context.Context, b *bot.Bot, update *models.Update) {
	teacher, ok := h.requireTeacher(ctx, b, update)
	if !ok {
		return
	}

	args := commandArgs(update.Message.Text)
	if len(args) != 1 {
		h.replyError(ctx, b, update, "add student", errUsage)
		return
	}

	student, err := h.userService.AssignStudent(ctx, teacher.ID, args[0])
	if err != nil {
		h.replyError(ctx, b, update, "add student", err)
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, fmt.Sprintf(
		"✅ %s (№%d) теперь ваш ученик.\n\nСоздайте занятие: /newclass %d ...",
		student.DisplayName(), student.ID, student.ID,
	))
}

// HandleStudents обрабатывает команду /students
func (h *Handlers) HandleStudents(ctx context.Context, b *bot.Bot, update *models.Update) {
	teacher, ok := h.requireTeacher(ctx, b, update)
	if !ok {
		return
	}

	students, err := h.userService.ListStudents(ctx, teacher.ID)
	if err != nil {
		h.replyError(ctx, b, update, "list students", err)
		return
	}

	if len(students) == 0 {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "👥 У вас пока нет учеников.\n\nДобавить: /addstudent @username")
		return
	}

	var sb strings.Builder
	sb.WriteString("👥 Ваши ученики:\n\n")
	for _, student := range students {
		fmt.Fprintf(&sb, "№%d %s\n", student.ID, student.DisplayName())
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, sb.String())
}
