package model

import "time"

type User struct {
	ID           int64     `json:"id"`
	TelegramID   int64     `json:"telegram_id"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	LanguageCode string    `json:"language_code"`
	IsTeacher    bool      `json:"is_teacher"`
	TeacherID    *int64    `json:"teacher_id"` // закреплённый учитель ученика, nil - не назначен
	CreatedAt    time.Time `json:"created_at"`
}

// DisplayName возвращает имя для отображения в расписании
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.Username != "":
		return "@" + u.Username
	default:
		return "Unknown"
	}
}
