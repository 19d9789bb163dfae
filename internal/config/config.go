// Пакет config — загрузка и валидация конфигурации hearing-watch
// из переменных окружения.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Допустимые виды записей источника.
const (
	KindHearing = "hearing"
	KindMeeting = "meeting"
)

// Config содержит все параметры конфигурации hearing-watch.
type Config struct {
	// --- Логирование ---

	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- PostgreSQL ---

	// Хост PostgreSQL
	DBHost string
	// Порт PostgreSQL
	DBPort int
	// Имя базы данных
	DBName string
	// Имя пользователя PostgreSQL
	DBUser string
	// Пароль пользователя PostgreSQL
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string
	// Максимум подключений в пуле
	DBMaxConns int

	// --- Источник (congress.gov API v3) ---

	// Базовый URL API (без trailing slash)
	CongressAPIURL string
	// Ключ API; обязателен только для режима update
	CongressAPIKey string
	// Номер созыва Конгресса (0 — все созывы)
	CongressNumber int
	// Виды записей в порядке обхода (hearing, meeting)
	RecordKinds []string
	// Размер страницы листинга
	FetchPageSize int
	// Таймаут одного HTTP-запроса
	HTTPTimeout time.Duration
	// Количество повторов при 429/5xx
	HTTPMaxRetries int

	// --- Политика ---

	// Часовой пояс, определяющий «сегодня»
	Location *time.Location
	// Путь к YAML-файлу фильтров (пусто — встроенные значения)
	FiltersPath string
	// Загруженные фильтры
	Filters *Filters

	// --- Доставка ---

	// Bot token Slack (пусто — дайджесты печатаются в stdout)
	SlackToken string
	// Канал Slack
	SlackChannel string
	// Базовый URL Slack Web API
	SlackAPIURL string

	// --- Метрики ---

	// URL Prometheus Pushgateway (опционально)
	PushgatewayURL string

	// --- Режим serve ---

	// Порт HTTP-сервера
	Port int
	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
	// Размер кэша read-запросов
	QueryCacheSize int
	// TTL кэша read-запросов
	QueryCacheTTL time.Duration
	// Группа topologymetrics
	DephealthGroup string
	// Интервал проверки зависимостей topologymetrics
	DephealthCheckInterval time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Логирование ---

	// HW_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("HW_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("HW_LOG_LEVEL: %w", err)
	}

	// HW_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("HW_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("HW_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- PostgreSQL ---

	// HW_DB_HOST — обязательный
	cfg.DBHost, err = getEnvRequired("HW_DB_HOST")
	if err != nil {
		return nil, err
	}

	// HW_DB_PORT — порт PostgreSQL (по умолчанию 5432)
	cfg.DBPort, err = getEnvInt("HW_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("HW_DB_PORT: %w", err)
	}

	// HW_DB_NAME — обязательный
	cfg.DBName, err = getEnvRequired("HW_DB_NAME")
	if err != nil {
		return nil, err
	}

	// HW_DB_USER — обязательный
	cfg.DBUser, err = getEnvRequired("HW_DB_USER")
	if err != nil {
		return nil, err
	}

	// HW_DB_PASSWORD — обязательный
	cfg.DBPassword, err = getEnvRequired("HW_DB_PASSWORD")
	if err != nil {
		return nil, err
	}

	// HW_DB_SSL_MODE — режим SSL (по умолчанию disable)
	cfg.DBSSLMode = getEnvDefault("HW_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("HW_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// HW_DB_MAX_CONNS — размер пула (по умолчанию 4)
	cfg.DBMaxConns, err = getEnvInt("HW_DB_MAX_CONNS", 4)
	if err != nil {
		return nil, fmt.Errorf("HW_DB_MAX_CONNS: %w", err)
	}
	if cfg.DBMaxConns < 1 {
		return nil, fmt.Errorf("HW_DB_MAX_CONNS: значение должно быть >= 1, получено %d", cfg.DBMaxConns)
	}

	// --- Источник ---

	// HW_CONGRESS_API_URL — базовый URL API (по умолчанию https://api.congress.gov/v3)
	cfg.CongressAPIURL = strings.TrimRight(getEnvDefault("HW_CONGRESS_API_URL", "https://api.congress.gov/v3"), "/")
	if _, err := url.ParseRequestURI(cfg.CongressAPIURL); err != nil {
		return nil, fmt.Errorf("HW_CONGRESS_API_URL: некорректный URL %q", cfg.CongressAPIURL)
	}

	// HW_CONGRESS_API_KEY — проверяется в ValidateForIngest
	cfg.CongressAPIKey = getEnvDefault("HW_CONGRESS_API_KEY", "")

	// HW_CONGRESS_NUMBER — созыв (по умолчанию 0 — все)
	cfg.CongressNumber, err = getEnvInt("HW_CONGRESS_NUMBER", 0)
	if err != nil {
		return nil, fmt.Errorf("HW_CONGRESS_NUMBER: %w", err)
	}
	if cfg.CongressNumber < 0 {
		return nil, fmt.Errorf("HW_CONGRESS_NUMBER: отрицательное значение %d", cfg.CongressNumber)
	}

	// HW_RECORD_KINDS — виды записей (по умолчанию "hearing,meeting")
	cfg.RecordKinds = parseCSV(getEnvDefault("HW_RECORD_KINDS", KindHearing+","+KindMeeting))
	if len(cfg.RecordKinds) == 0 {
		return nil, errors.New("HW_RECORD_KINDS: список видов записей пуст")
	}
	for _, k := range cfg.RecordKinds {
		if k != KindHearing && k != KindMeeting {
			return nil, fmt.Errorf("HW_RECORD_KINDS: недопустимый вид %q, допустимые: hearing, meeting", k)
		}
	}

	// HW_FETCH_PAGE_SIZE — размер страницы листинга (по умолчанию 250, максимум API)
	cfg.FetchPageSize, err = getEnvInt("HW_FETCH_PAGE_SIZE", 250)
	if err != nil {
		return nil, fmt.Errorf("HW_FETCH_PAGE_SIZE: %w", err)
	}
	if cfg.FetchPageSize < 1 || cfg.FetchPageSize > 250 {
		return nil, fmt.Errorf("HW_FETCH_PAGE_SIZE: значение %d вне допустимого диапазона 1-250", cfg.FetchPageSize)
	}

	// HW_HTTP_TIMEOUT — таймаут HTTP-запроса (по умолчанию 30s)
	cfg.HTTPTimeout, err = getEnvDuration("HW_HTTP_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("HW_HTTP_TIMEOUT: %w", err)
	}

	// HW_HTTP_MAX_RETRIES — повторы при 429/5xx (по умолчанию 3)
	cfg.HTTPMaxRetries, err = getEnvInt("HW_HTTP_MAX_RETRIES", 3)
	if err != nil {
		return nil, fmt.Errorf("HW_HTTP_MAX_RETRIES: %w", err)
	}
	if cfg.HTTPMaxRetries < 0 || cfg.HTTPMaxRetries > 10 {
		return nil, fmt.Errorf("HW_HTTP_MAX_RETRIES: значение %d вне допустимого диапазона 0-10", cfg.HTTPMaxRetries)
	}

	// --- Политика ---

	// HW_TIMEZONE — часовой пояс (по умолчанию America/New_York)
	tz := getEnvDefault("HW_TIMEZONE", "America/New_York")
	cfg.Location, err = time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("HW_TIMEZONE: неизвестный часовой пояс %q", tz)
	}

	// HW_FILTERS_PATH — YAML с known_bad_ids и excluded_committees (опционально)
	cfg.FiltersPath = getEnvDefault("HW_FILTERS_PATH", "")
	cfg.Filters, err = LoadFilters(cfg.FiltersPath)
	if err != nil {
		return nil, fmt.Errorf("HW_FILTERS_PATH: %w", err)
	}

	// --- Доставка ---

	cfg.SlackToken = getEnvDefault("HW_SLACK_TOKEN", "")
	cfg.SlackChannel = getEnvDefault("HW_SLACK_CHANNEL", "#private-test-channel")
	cfg.SlackAPIURL = strings.TrimRight(getEnvDefault("HW_SLACK_API_URL", "https://slack.com/api"), "/")

	// --- Метрики ---

	cfg.PushgatewayURL = getEnvDefault("HW_PUSHGATEWAY_URL", "")

	// --- Режим serve ---

	// HW_PORT — порт HTTP-сервера (по умолчанию 8000)
	cfg.Port, err = getEnvInt("HW_PORT", 8000)
	if err != nil {
		return nil, fmt.Errorf("HW_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("HW_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// HW_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("HW_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("HW_SHUTDOWN_TIMEOUT: %w", err)
	}

	// HW_QUERY_CACHE_SIZE — размер кэша read-запросов (по умолчанию 64)
	cfg.QueryCacheSize, err = getEnvInt("HW_QUERY_CACHE_SIZE", 64)
	if err != nil {
		return nil, fmt.Errorf("HW_QUERY_CACHE_SIZE: %w", err)
	}
	if cfg.QueryCacheSize < 1 {
		return nil, fmt.Errorf("HW_QUERY_CACHE_SIZE: значение %d должно быть положительным", cfg.QueryCacheSize)
	}

	// HW_QUERY_CACHE_TTL — TTL кэша read-запросов (по умолчанию 1m)
	cfg.QueryCacheTTL, err = getEnvDuration("HW_QUERY_CACHE_TTL", time.Minute)
	if err != nil {
		return nil, fmt.Errorf("HW_QUERY_CACHE_TTL: %w", err)
	}

	cfg.DephealthGroup = getEnvDefault("HW_DEPHEALTH_GROUP", "hearing-watch")

	// HW_DEPHEALTH_CHECK_INTERVAL — интервал проверки зависимостей (по умолчанию 15s)
	cfg.DephealthCheckInterval, err = getEnvDuration("HW_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("HW_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	return cfg, nil
}

// ValidateForIngest проверяет параметры, нужные только режиму update.
func (c *Config) ValidateForIngest() error {
	if c.CongressAPIKey == "" {
		return errors.New("HW_CONGRESS_API_KEY: обязательная переменная окружения не задана")
	}
	return nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL PostgreSQL без пароля (для лейблов метрик).
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%d/%s", c.DBHost, c.DBPort, c.DBName)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}

// parseCSV разбирает строку, разделённую запятыми, на срез строк.
// Пробелы вокруг элементов убираются, пустые элементы игнорируются.
func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
