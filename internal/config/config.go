package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション設定を表す
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	AMQP     AMQPConfig
	Booking  BookingConfig
}

// ServerConfig はサーバー設定
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig はデータベース設定
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig はRedis設定
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// AMQPConfig はRabbitMQ設定
type AMQPConfig struct {
	URL      string
	Exchange string
}

// BookingConfig は予約ワークフローの設定
type BookingConfig struct {
	// DefaultMinStay はシーズンが最低宿泊数を持たない場合の既定値
	DefaultMinStay int
	// MinLeadDays は現在時刻からチェックインまでに必要な最低日数
	MinLeadDays int
	// CheckInTime / CheckOutTime は暦日に加算する時刻（深夜0時からのオフセット）
	CheckInTime  time.Duration
	CheckOutTime time.Duration
	// Timezone は日付文字列の解釈に使うタイムゾーン
	Timezone string
	// Currency は予約・勘定の通貨コード
	Currency string
	// RetryMaxAttempts / RetryBaseDelay はトランザクション試行のリトライ設定
	RetryMaxAttempts int
	RetryBaseDelay   time.Duration
	// PendingExpiry は Pending のまま放置された予約を自動キャンセルするまでの時間
	PendingExpiry time.Duration
}

// Load は環境変数から設定を読み込む
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "stay_reservation"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		AMQP: AMQPConfig{
			URL:      getEnv("AMQP_URL", ""),
			Exchange: getEnv("AMQP_EXCHANGE", "reservation.events"),
		},
		Booking: BookingConfig{
			DefaultMinStay:   getIntEnv("BOOKING_DEFAULT_MIN_STAY", 1),
			MinLeadDays:      getIntEnv("BOOKING_MIN_LEAD_DAYS", 0),
			CheckInTime:      getClockEnv("BOOKING_CHECKIN_TIME", 15*time.Hour),
			CheckOutTime:     getClockEnv("BOOKING_CHECKOUT_TIME", 10*time.Hour),
			Timezone:         getEnv("BOOKING_TIMEZONE", "Europe/Prague"),
			Currency:         getEnv("BOOKING_CURRENCY", "CZK"),
			RetryMaxAttempts: getIntEnv("BOOKING_RETRY_MAX_ATTEMPTS", 3),
			RetryBaseDelay:   getDurationEnv("BOOKING_RETRY_BASE_DELAY", 50*time.Millisecond),
			PendingExpiry:    getDurationEnv("BOOKING_PENDING_EXPIRY", 48*time.Hour),
		},
	}
}

// DSN はPostgreSQL接続文字列を返す
func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" port=" + c.Port +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.DBName +
		" sslmode=" + c.SSLMode
}

// Addr はRedis接続アドレスを返す
func (c *RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// Location はタイムゾーンを解決する
func (c *BookingConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("タイムゾーン %q の読み込みに失敗: %w", c.Timezone, err)
	}
	return loc, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getClockEnv は "15:00" 形式の時刻を深夜0時からのオフセットとして読み込む
func getClockEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	t, err := time.Parse("15:04", value)
	if err != nil {
		return defaultValue
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute
}
