package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken string `mapstructure:"TELEGRAM_TOKEN"`
	DBDSN         string `mapstructure:"DB_DSN"` // пусто - хранилище в памяти
	Environment   string `mapstructure:"ENV"`

	AgendaMaxDays     int           `mapstructure:"AGENDA_MAX_DAYS"`
	AgendaDefaultDays int           `mapstructure:"AGENDA_DEFAULT_DAYS"`
	PurgeInterval     time.Duration `mapstructure:"PURGE_INTERVAL"`
	NameCacheTTL      time.Duration `mapstructure:"NAME_CACHE_TTL"`
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	// Читаем напрямую из переменных окружения (после godotenv.Load они там)
	cfg := &Config{
		DBDSN:         os.Getenv("DB_DSN"),
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		Environment:   os.Getenv("ENV"),
	}

	// Устанавливаем дефолтные значения
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	var err error
	if cfg.AgendaMaxDays, err = intEnv("AGENDA_MAX_DAYS", 92); err != nil {
		return nil, err
	}
	if cfg.AgendaDefaultDays, err = intEnv("AGENDA_DEFAULT_DAYS", 7); err != nil {
		return nil, err
	}
	if cfg.PurgeInterval, err = durationEnv("PURGE_INTERVAL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.NameCacheTTL, err = durationEnv("NAME_CACHE_TTL", 10*time.Minute); err != nil {
		return nil, err
	}

	// Проверяем обязательные поля
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is required but not set")
	}

	if cfg.AgendaDefaultDays > cfg.AgendaMaxDays {
		return nil, fmt.Errorf("AGENDA_DEFAULT_DAYS (%d) must not exceed AGENDA_MAX_DAYS (%d)", cfg.AgendaDefaultDays, cfg.AgendaMaxDays)
	}

	log.Printf("Config loaded\n")

	return cfg, nil
}

// UseMemoryStore - БД не настроена, данные хранятся в памяти процесса
func (c *Config) UseMemoryStore() bool {
	return c.DBDSN == ""
}

func intEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return value, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}

	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, raw)
	}
	return value, nil
}
