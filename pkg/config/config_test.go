package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.True(t, cfg.Exports.CacheEnabled)
	assert.Equal(t, 15*time.Minute, cfg.Exports.CacheTTL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Equal(t, "host=localhost port=5432 user=postgres password=postgres dbname=school_exams sslmode=disable", cfg.Database.DSN())
	assert.Nil(t, cfg.CORS.AllowedOrigins)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	v.Set("EXPORT_CACHE_TTL", "bogus")
	v.Set("SCHOOL_NAME", "Kenyatta High School")
	v.Set("ENABLE_EXPORT_CACHE", false)

	cfg := fromViper(v)

	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 15*time.Minute, cfg.Exports.CacheTTL)
	assert.Equal(t, "Kenyatta High School", cfg.Exports.SchoolName)
	assert.False(t, cfg.Exports.CacheEnabled)
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, 2*time.Second, parseDuration("2s", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("-5s", time.Minute))
}
