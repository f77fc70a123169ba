// Package storage описывает контракт хранилища сущностей расписания.
// Реализации: repository (PostgreSQL) и repository/memory.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Freeeeeet/class_scheduler/internal/model"
)

var (
	// ErrNotFound - изменяемая запись не найдена
	ErrNotFound = errors.New("record not found")
	// ErrConflict - конкурентное изменение: нарушение уникальности или сбой сериализации
	ErrConflict = errors.New("concurrent update conflict")
)

// ClassStore хранит определения занятий.
// Get*/Lock* возвращают nil, nil если запись не найдена.
type ClassStore interface {
	GetClass(ctx context.Context, id int64) (*model.ClassDefinition, error)
	// LockClass читает занятие с блокировкой до конца транзакции
	LockClass(ctx context.Context, id int64) (*model.ClassDefinition, error)
	// ListClassesByStudent возвращает занятия ученика, пересекающиеся с [from, to]
	ListClassesByStudent(ctx context.Context, studentID int64, from, to time.Time) ([]*model.ClassDefinition, error)
	// ListClassesByTeacher возвращает занятия учителя, пересекающиеся с [from, to]
	ListClassesByTeacher(ctx context.Context, teacherID int64, from, to time.Time) ([]*model.ClassDefinition, error)
	CreateClass(ctx context.Context, class *model.ClassDefinition) error
	UpdateClass(ctx context.Context, class *model.ClassDefinition) error
	DeleteClass(ctx context.Context, id int64) error
}

// AvailabilityStore хранит окна доступности учителей
type AvailabilityStore interface {
	GetAvailability(ctx context.Context, id int64) (*model.AvailabilitySlot, error)
	LockAvailability(ctx context.Context, id int64) (*model.AvailabilitySlot, error)
	ListAvailabilityByTeacher(ctx context.Context, teacherID int64, from, to time.Time) ([]*model.AvailabilitySlot, error)
	CreateAvailability(ctx context.Context, slot *model.AvailabilitySlot) error
	DeleteAvailability(ctx context.Context, id int64) error
	// DeleteAvailabilityBefore удаляет окна с датой раньше before и возвращает их количество
	DeleteAvailabilityBefore(ctx context.Context, before time.Time) (int64, error)
}

// RescheduleStore хранит журнал переносов. Записи никогда не меняются и не удаляются.
type RescheduleStore interface {
	ListReschedulesByStudent(ctx context.Context, studentID int64) ([]*model.RescheduleRecord, error)
	// CreateReschedule возвращает ErrConflict, если запись для (student_id, month_key) уже есть
	CreateReschedule(ctx context.Context, record *model.RescheduleRecord) error
}

// UserStore хранит пользователей
type UserStore interface {
	GetUser(ctx context.Context, id int64) (*model.User, error)
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUsersByIDs(ctx context.Context, ids []int64) ([]*model.User, error)
	// ListStudentsByTeacher возвращает учеников, закреплённых за учителем
	ListStudentsByTeacher(ctx context.Context, teacherID int64) ([]*model.User, error)
	CreateUser(ctx context.Context, user *model.User) error
	UpdateUser(ctx context.Context, user *model.User) error
}

// Store - хранилище целиком
type Store interface {
	ClassStore
	AvailabilityStore
	RescheduleStore
	UserStore

	// InTx выполняет fn в одной транзакции. Если fn вернула ошибку, ни одно изменение не применяется.
	// Внутри транзакции InTx выполняет fn в текущей транзакции.
	InTx(ctx context.Context, fn func(tx Store) error) error
}
