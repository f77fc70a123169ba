package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/class_scheduler/internal/model"
	"github.com/Freeeeeet/class_scheduler/internal/repository/base"
	"github.com/Freeeeeet/class_scheduler/internal/storage"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, telegram_id, username, first_name, last_name, language_code, is_teacher, teacher_id, created_at`

type UserRepository struct {
	*base.Repository
}

func NewUserRepository(db base.DBTX) *UserRepository {
	return &UserRepository{Repository: base.NewRepository(db)}
}

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.TelegramID,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&user.LanguageCode,
		&user.IsTeacher,
		&user.TeacherID,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) getOne(ctx context.Context, op, where string, arg any) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	user, err := scanUser(r.QueryRow(ctx, query, arg))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil // Пользователь не найден
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// CreateUser создаёт нового пользователя
func (r *UserRepository) CreateUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (telegram_id, username, first_name, last_name, language_code, is_teacher, teacher_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.QueryRow(
		ctx, query,
		user.TelegramID,
		user.Username,
		user.FirstName,
		user.LastName,
		user.LanguageCode,
		user.IsTeacher,
		user.TeacherID,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if base.IsUniqueViolation(err) {
			return fmt.Errorf("create user: %w", storage.ErrConflict)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

// GetUserByTelegramID получает пользователя по Telegram ID
func (r *UserRepository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	return r.getOne(ctx, "get user by telegram id", "telegram_id = $1", telegramID)
}

// GetUser получает пользователя по ID
func (r *UserRepository) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return r.getOne(ctx, "get user by id", "id = $1", id)
}

// GetUserByUsername получает пользователя по username без учёта регистра
func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	username = strings.TrimPrefix(username, "@")
	return r.getOne(ctx, "get user by username", "lower(username) = lower($1)", username)
}

// UpdateUser обновляет данные пользователя
func (r *UserRepository) UpdateUser(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET username = $1, first_name = $2, last_name = $3, language_code = $4, is_teacher = $5, teacher_id = $6
		WHERE id = $7
	`

	affected, err := r.ExecAffected(
		ctx, query,
		user.Username,
		user.FirstName,
		user.LastName,
		user.LanguageCode,
		user.IsTeacher,
		user.TeacherID,
		user.ID,
	)

	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("update user %d: %w", user.ID, storage.ErrNotFound)
	}

	return nil
}

func (r *UserRepository) list(ctx context.Context, op, where string, arg any) ([]*model.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE ` + where + `
		ORDER BY id
	`

	rows, err := r.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	users := []*model.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

// GetUsersByIDs получает пользователей по списку ID
func (r *UserRepository) GetUsersByIDs(ctx context.Context, ids []int64) ([]*model.User, error) {
	if len(ids) == 0 {
		return []*model.User{}, nil
	}
	return r.list(ctx, "get users by ids", "id = ANY($1)", ids)
}

// ListStudentsByTeacher получает учеников учителя
func (r *UserRepository) ListStudentsByTeacher(ctx context.Context, teacherID int64) ([]*model.User, error) {
	return r.list(ctx, "list students by teacher", "teacher_id = $1", teacherID)
}
