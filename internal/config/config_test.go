package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "stay_reservation", cfg.Database.DBName)
	assert.Equal(t, "reservation.events", cfg.AMQP.Exchange)
	assert.Equal(t, 1, cfg.Booking.DefaultMinStay)
	assert.Equal(t, "Europe/Prague", cfg.Booking.Timezone)
	assert.Equal(t, "CZK", cfg.Booking.Currency)
	assert.Equal(t, 15*time.Hour, cfg.Booking.CheckInTime)
	assert.Equal(t, 10*time.Hour, cfg.Booking.CheckOutTime)
	assert.Equal(t, 3, cfg.Booking.RetryMaxAttempts)
	assert.Equal(t, 48*time.Hour, cfg.Booking.PendingExpiry)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("BOOKING_MIN_LEAD_DAYS", "2")
	t.Setenv("BOOKING_CHECKIN_TIME", "16:30")
	t.Setenv("BOOKING_RETRY_BASE_DELAY", "200ms")

	cfg := Load()

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 2, cfg.Booking.MinLeadDays)
	assert.Equal(t, 16*time.Hour+30*time.Minute, cfg.Booking.CheckInTime)
	assert.Equal(t, 200*time.Millisecond, cfg.Booking.RetryBaseDelay)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("BOOKING_DEFAULT_MIN_STAY", "abc")
	t.Setenv("BOOKING_CHECKIN_TIME", "半日")

	cfg := Load()

	assert.Equal(t, 1, cfg.Booking.DefaultMinStay)
	assert.Equal(t, 15*time.Hour, cfg.Booking.CheckInTime)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	c := DatabaseConfig{
		Host: "localhost", Port: "5432",
		User: "postgres", Password: "secret",
		DBName: "stay_reservation", SSLMode: "disable",
	}
	assert.Equal(t,
		"host=localhost port=5432 user=postgres password=secret dbname=stay_reservation sslmode=disable",
		c.DSN())
}

func TestBookingConfig_Location(t *testing.T) {
	t.Run("正常なタイムゾーン", func(t *testing.T) {
		c := BookingConfig{Timezone: "Europe/Prague"}
		loc, err := c.Location()
		require.NoError(t, err)
		assert.Equal(t, "Europe/Prague", loc.String())
	})

	t.Run("不正なタイムゾーン", func(t *testing.T) {
		c := BookingConfig{Timezone: "Mars/Olympus"}
		_, err := c.Location()
		assert.Error(t, err)
	})
}
