package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/class_scheduler/internal/model"
	"github.com/Freeeeeet/class_scheduler/internal/storage"
	"go.uber.org/zap"
)

type UserService struct {
	store  storage.Store
	logger *zap.Logger
}

func NewUserService(store storage.Store, logger *zap.Logger) *UserService {
	return &UserService{
		store:  store,
		logger: logger,
	}
}

// RegisterUser регистрирует или обновляет пользователя
func (s *UserService) RegisterUser(ctx context.Context, telegramID int64, username, firstName, lastName, languageCode string) (*model.User, error) {
	// Проверяем существует ли пользователь
	existingUser, err := s.store.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	// Если пользователь уже существует, обновляем данные
	if existingUser != nil {
		existingUser.Username = username
		existingUser.FirstName = firstName
		existingUser.LastName = lastName
		existingUser.LanguageCode = languageCode

		err = s.store.UpdateUser(ctx, existingUser)
		if err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}

		s.logger.Info("User updated",
			zap.Int64("telegram_id", telegramID),
			zap.String("username", username),
		)

		return existingUser, nil
	}

	// Создаём нового пользователя
	user := &model.User{
		TelegramID:   telegramID,
		Username:     username,
		FirstName:    firstName,
		LastName:     lastName,
		LanguageCode: languageCode,
		IsTeacher:    false, // По умолчанию ученик
	}

	err = s.store.CreateUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("New user registered",
		zap.Int64("user_id", user.ID),
		zap.Int64("telegram_id", telegramID),
		zap.String("username", username),
	)

	return user, nil
}

// GetByTelegramID получает пользователя по Telegram ID
func (s *UserService) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	return s.store.GetUserByTelegramID(ctx, telegramID)
}

// GetByID получает пользователя по ID
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return s.store.GetUser(ctx, id)
}

// MakeTeacher делает пользователя учителем
func (s *UserService) MakeTeacher(ctx context.Context, telegramID int64) error {
	user, err := s.store.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	if user == nil {
		return fmt.Errorf("user with telegram id %d: %w", telegramID, ErrNotFound)
	}

	if user.IsTeacher {
		return nil
	}

	user.IsTeacher = true
	err = s.store.UpdateUser(ctx, user)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	s.logger.Info("User became teacher",
		zap.Int64("user_id", user.ID),
		zap.String("username", user.Username),
	)

	return nil
}

// AssignStudent закрепляет ученика за учителем по username
func (s *UserService) AssignStudent(ctx context.Context, teacherID int64, username string) (*model.User, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if username == "" {
		return nil, invalid("username", "username is required")
	}

	var student *model.User
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		teacher, err := requireTeacher(ctx, tx, teacherID)
		if err != nil {
			return err
		}

		found, err := tx.GetUserByUsername(ctx, username)
		if err != nil {
			return fmt.Errorf("get student: %w", err)
		}

		if found == nil {
			return fmt.Errorf("user @%s: %w", username, ErrNotFound)
		}

		if found.ID == teacher.ID {
			return invalid("username", "teacher cannot be their own student")
		}

		if found.TeacherID != nil && *found.TeacherID != teacherID {
			return fmt.Errorf("user @%s is assigned to another teacher: %w", username, ErrForbidden)
		}

		found.TeacherID = &teacher.ID
		if err := tx.UpdateUser(ctx, found); err != nil {
			return fmt.Errorf("update student: %w", err)
		}

		student = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Student assigned to teacher",
		zap.Int64("teacher_id", teacherID),
		zap.Int64("student_id", student.ID),
		zap.String("username", student.Username),
	)

	return student, nil
}

// ListStudents возвращает учеников учителя
func (s *UserService) ListStudents(ctx context.Context, teacherID int64) ([]*model.User, error) {
	if _, err := requireTeacher(ctx, s.store, teacherID); err != nil {
		return nil, err
	}

	students, err := s.store.ListStudentsByTeacher(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}
