package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Server
	ServerPort      string
	ShutdownTimeout time.Duration

	// Reminder
	ReminderCheckInterval time.Duration
	ReminderDueTolerance  time.Duration
	ReminderMissedAfter   time.Duration
	Location              *time.Location

	// Escalation
	EscalationThreshold  int
	EscalationDedupDaily bool

	// User
	UserName         string
	CaregiverContact string
	SeedSampleData   bool

	// Rate Limit（req/min/IP）
	RateLimitGeneral  int
	RateLimitResponse int

	// Event
	EventBufferSize int

	// Logging
	LogLevel string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 値が不正な場合はエラーを返す。未設定の項目はデフォルト値を使用する。
func Load() (*Config, error) {
	cfg := &Config{}
	var invalid []string

	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	cfg.ReminderCheckInterval = getEnvDuration("REMINDER_CHECK_INTERVAL", 60*time.Second)
	cfg.ReminderDueTolerance = getEnvDuration("REMINDER_DUE_TOLERANCE", 5*time.Minute)
	cfg.ReminderMissedAfter = getEnvDuration("REMINDER_MISSED_AFTER", time.Hour)
	cfg.EscalationThreshold = getEnvInt("ESCALATION_THRESHOLD", 2)
	cfg.EscalationDedupDaily = getEnvBool("ESCALATION_DEDUP_DAILY", false)
	cfg.UserName = getEnvString("USER_NAME", "User")
	cfg.CaregiverContact = getEnvString("CAREGIVER_CONTACT", "")
	cfg.SeedSampleData = getEnvBool("SEED_SAMPLE_DATA", false)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitResponse = getEnvInt("RATE_LIMIT_RESPONSE", 30)
	cfg.EventBufferSize = getEnvInt("EVENT_BUFFER_SIZE", 16)
	cfg.LogLevel = strings.ToLower(getEnvString("LOG_LEVEL", "info"))
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	loc, err := loadLocation(os.Getenv("TIMEZONE"))
	if err != nil {
		invalid = append(invalid, "TIMEZONE")
	}
	cfg.Location = loc

	for key, d := range map[string]time.Duration{
		"SHUTDOWN_TIMEOUT":        cfg.ShutdownTimeout,
		"REMINDER_CHECK_INTERVAL": cfg.ReminderCheckInterval,
		"REMINDER_DUE_TOLERANCE":  cfg.ReminderDueTolerance,
		"REMINDER_MISSED_AFTER":   cfg.ReminderMissedAfter,
	} {
		if d <= 0 {
			invalid = append(invalid, key)
		}
	}
	for key, n := range map[string]int{
		"ESCALATION_THRESHOLD": cfg.EscalationThreshold,
		"RATE_LIMIT_GENERAL":   cfg.RateLimitGeneral,
		"RATE_LIMIT_RESPONSE":  cfg.RateLimitResponse,
		"EVENT_BUFFER_SIZE":    cfg.EventBufferSize,
	} {
		if n < 1 {
			invalid = append(invalid, key)
		}
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		invalid = append(invalid, "LOG_LEVEL")
	}

	if len(invalid) > 0 {
		sort.Strings(invalid)
		return nil, fmt.Errorf("invalid environment variables: %v", invalid)
	}

	return cfg, nil
}

// loadLocation はタイムゾーン名を解決する。空の場合はtime.Localを返す。
func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// getEnvInt は整数値を読み込む。解析できない値は0として扱い、Loadの検証で不正とする。
func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

// getEnvDuration は時間値を読み込む。解析できない値は0として扱い、Loadの検証で不正とする。
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}
