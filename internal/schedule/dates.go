// Package schedule содержит чистые функции движка расписания: разворачивание
// регулярных занятий, проекцию окон доступности, сборку агенды и проверку
// месячной квоты переносов. Пакет не обращается к хранилищу и ожидает уже
// провалидированный ввод.
package schedule

import (
	"fmt"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
	MonthLayout = "2006-01"
)

// Day приводит момент времени к полуночи UTC той же календарной даты
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate разбирает дату в формате YYYY-MM-DD
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate форматирует дату в YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseClock разбирает время суток строго в формате HH:mm и возвращает минуты от полуночи
func ParseClock(s string) (int, error) {
	if len(s) != len(ClockLayout) {
		return 0, fmt.Errorf("parse time %q: expected HH:mm", s)
	}
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// MonthKey возвращает ключ месяца YYYY-MM для даты
func MonthKey(t time.Time) string {
	return t.Format(MonthLayout)
}

// FormatTimeRange форматирует интервал времени как "HH:mm - HH:mm"
func FormatTimeRange(start, end string) string {
	return start + " - " + end
}

func nextDay(t time.Time) time.Time {
	return t.AddDate(0, 0, 1)
}

func prevDay(t time.Time) time.Time {
	return t.AddDate(0, 0, -1)
}

func maxDay(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minDay(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
