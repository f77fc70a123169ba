package handlers

import (
	"github.com/Freeeeeet/class_scheduler/internal/service"
	"go.uber.org/zap"
)

// Handlers содержит все зависимости для обработки команд
type Handlers struct {
	userService       *service.UserService
	classService      *service.ClassService
	agendaService     *service.AgendaService
	agendaDefaultDays int
	logger            *zap.Logger
}

// NewHandlers создаёт новый обработчик команд
func NewHandlers(
	userService *service.UserService,
	classService *service.ClassService,
	agendaService *service.AgendaService,
	agendaDefaultDays int,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		userService:       userService,
		classService:      classService,
		agendaService:     agendaService,
		agendaDefaultDays: agendaDefaultDays,
		logger:            logger,
	}
}
