package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnvAsInt32WithValidation(t *testing.T) {
	t.Run("значение по умолчанию", func(t *testing.T) {
		t.Setenv("SYNC_TEST_INT", "")
		v, err := getEnvAsInt32WithValidation("SYNC_TEST_INT", 7, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int32(7), v)
	})

	t.Run("вне диапазона", func(t *testing.T) {
		t.Setenv("SYNC_TEST_INT", "42")
		_, err := getEnvAsInt32WithValidation("SYNC_TEST_INT", 7, 1, 10)
		assert.Error(t, err)
	})

	t.Run("не число", func(t *testing.T) {
		t.Setenv("SYNC_TEST_INT", "abc")
		_, err := getEnvAsInt32WithValidation("SYNC_TEST_INT", 7, 1, 10)
		assert.Error(t, err)
	})
}

func TestGetEnvAsDurationWithValidation(t *testing.T) {
	t.Setenv("SYNC_TEST_DUR", "2m")
	d, err := getEnvAsDurationWithValidation("SYNC_TEST_DUR", time.Second, time.Second, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, d)

	// число трактуется как секунды
	t.Setenv("SYNC_TEST_DUR", "30")
	d, err = getEnvAsDurationWithValidation("SYNC_TEST_DUR", time.Second, time.Second, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, d)
}

func TestNewPostgresDBConfigFromEnv(t *testing.T) {
	t.Run("нет обязательных полей", func(t *testing.T) {
		t.Setenv("DB_HOST", "")
		t.Setenv("DB_USER", "")
		t.Setenv("DB_PASSWORD", "")
		t.Setenv("DB_NAME", "")
		_, err := NewPostgresDBConfigFromEnv()
		assert.ErrorContains(t, err, "DB_HOST is required")
	})

	t.Run("успешная сборка DSN", func(t *testing.T) {
		t.Setenv("DB_HOST", "db")
		t.Setenv("DB_USER", "user")
		t.Setenv("DB_PASSWORD", "secret")
		t.Setenv("DB_NAME", "vacancies")
		t.Setenv("DB_AUTO_MIGRATE", "false")
		cfg, err := NewPostgresDBConfigFromEnv()
		require.NoError(t, err)
		assert.Equal(t, "host=db port=5432 user=user password=secret dbname=vacancies sslmode=disable", cfg.DSN)
		assert.False(t, cfg.AutoMigrate)
		assert.Equal(t, int32(10), cfg.MaxConns)
	})
}

func TestEnvReaderCollectsAllErrors(t *testing.T) {
	t.Setenv("SYNC_TEST_A", "")
	t.Setenv("SYNC_TEST_B", "abc")

	var r envReader
	r.required("SYNC_TEST_A")
	r.asInt32("SYNC_TEST_B", 1, 0, 10)
	r.expect(false, "custom %d", 1)

	err := r.err()
	require.Error(t, err)
	assert.ErrorContains(t, err, "SYNC_TEST_A is required")
	assert.ErrorContains(t, err, "SYNC_TEST_B")
	assert.ErrorContains(t, err, "custom 1")
}

func TestNewRedisConfigFromEnv(t *testing.T) {
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6379")

	t.Run("значения по умолчанию", func(t *testing.T) {
		cfg, err := NewRedisConfigFromEnv()
		require.NoError(t, err)
		assert.Equal(t, "cache:6379", cfg.ToRedisOptions().Addr)
		assert.Equal(t, "vacancy_sync:", cfg.KeyPrefix)
	})

	t.Run("min idle больше пула", func(t *testing.T) {
		t.Setenv("REDIS_POOL_SIZE", "5")
		t.Setenv("REDIS_MIN_IDLE_CONNS", "6")
		_, err := NewRedisConfigFromEnv()
		assert.ErrorContains(t, err, "REDIS_MIN_IDLE_CONNS")
	})
}
