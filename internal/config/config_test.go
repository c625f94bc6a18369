package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/booking")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "resource_booking", cfg.MongoDatabase)
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessTokenTTL)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, time.UTC, cfg.BookingLocation)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.IsProduction)
}

func TestLoadParsesOptionalValues(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("PROD_ORIGINS", "https://booking.example.edu, https://admin.example.edu")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, ,kafka-2:9092")
	t.Setenv("BOOKING_TIMEZONE", "Asia/Ho_Chi_Minh")
	t.Setenv("REDIS_DB", "2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction)
	assert.Equal(t, []string{"https://booking.example.edu", "https://admin.example.edu"}, cfg.ProdOrigins)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "Asia/Ho_Chi_Minh", cfg.BookingLocation.String())
	assert.Equal(t, 2, cfg.RedisDB)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string][2]string{
		"missing dsn":          {"DB_DSN", ""},
		"bad ttl":              {"JWT_ACCESS_TOKEN_TTL", "soon"},
		"bad bcrypt cost":      {"BCRYPT_COST", "high"},
		"unknown timezone":     {"BOOKING_TIMEZONE", "Mars/Olympus"},
		"prod without origins": {"APP_ENV", "prod"},
	}

	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(kv[0], kv[1])

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
