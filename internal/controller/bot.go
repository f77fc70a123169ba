package controller

import (
	"context"

	"github.com/Freeeeeet/class_scheduler/internal/controller/handlers"
	"github.com/Freeeeeet/class_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

type BotController struct {
	bot      *bot.Bot
	handlers *handlers.Handlers
	logger   *zap.Logger
}

func NewBotController(
	botInstance *bot.Bot,
	userService *service.UserService,
	classService *service.ClassService,
	agendaService *service.AgendaService,
	agendaDefaultDays int,
	logger *zap.Logger,
) *BotController {
	// Создаём обработчики команд
	cmdHandlers := handlers.NewHandlers(
		userService,
		classService,
		agendaService,
		agendaDefaultDays,
		logger,
	)

	return &BotController{
		bot:      botInstance,
		handlers: cmdHandlers,
		logger:   logger,
	}
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	// Команды без аргументов
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, c.handlers.HandleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.handlers.HandleHelp)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/classes", bot.MatchTypeExact, c.handlers.HandleClasses)

	// Команды с аргументами
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/agenda", bot.MatchTypePrefix, c.handlers.HandleAgenda)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/cancelclass", bot.MatchTypePrefix, c.handlers.HandleCancelClass)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/reschedule", bot.MatchTypePrefix, c.handlers.HandleReschedule)

	// Команды для учителей
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/becometeacher", bot.MatchTypeExact, c.handlers.HandleBecomeTeacher)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/students", bot.MatchTypeExact, c.handlers.HandleStudents)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/addstudent", bot.MatchTypePrefix, c.handlers.HandleAddStudent)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/newclass", bot.MatchTypePrefix, c.handlers.HandleNewClass)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/onceclass", bot.MatchTypePrefix, c.handlers.HandleOnceClass)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/editclass", bot.MatchTypePrefix, c.handlers.HandleEditClass)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/available", bot.MatchTypePrefix, c.handlers.HandleAvailable)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/removeavailable", bot.MatchTypePrefix, c.handlers.HandleRemoveAvailable)

	// Устанавливаем меню команд
	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Начать работу с ботом"},
		{Command: "agenda", Description: "🗓 Расписание"},
		{Command: "classes", Description: "📚 Мои занятия"},
		{Command: "cancelclass", Description: "✖️ Отменить занятие"},
		{Command: "reschedule", Description: "🔁 Перенести занятие"},
		{Command: "help", Description: "❓ Справка по командам"},
		{Command: "becometeacher", Description: "🎓 Стать учителем"},
		{Command: "students", Description: "👥 Мои ученики (учитель)"},
		{Command: "addstudent", Description: "➕ Добавить ученика (учитель)"},
		{Command: "newclass", Description: "📘 Еженедельное занятие (учитель)"},
		{Command: "onceclass", Description: "📗 Разовое занятие (учитель)"},
		{Command: "editclass", Description: "✏️ Изменить занятие (учитель)"},
		{Command: "available", Description: "🟢 Открыть окно (учитель)"},
		{Command: "removeavailable", Description: "⛔ Закрыть окно (учитель)"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})

	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("✅ Bot commands menu set")
	return nil
}

// Start запускает бота и блокируется до отмены ctx
func (c *BotController) Start(ctx context.Context) error {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
	return nil
}
