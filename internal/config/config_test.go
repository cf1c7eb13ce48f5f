package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Port: "8080"},
		Database: DatabaseConfig{Driver: DriverPostgres, Host: "db", Name: "finance", User: "finance"},
		Redis:    RedisConfig{Enabled: true, Host: "redis", Port: "6379"},
		JWT:      JWTConfig{Secret: "0123456789abcdef0123456789abcdef"},
		Business: BusinessConfig{InvoiceDueDays: 30, DashboardWindowDays: 180},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "short jwt secret", mutate: func(c *Config) { c.JWT.Secret = "short" }, wantErr: "JWT_SECRET"},
		{name: "missing db host", mutate: func(c *Config) { c.Database.Host = "" }, wantErr: "DB_HOST"},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "oracle" }, wantErr: "unsupported DB_DRIVER"},
		{name: "sqlite without path", mutate: func(c *Config) {
			c.Database.Driver = DriverSQLite
			c.Database.Host = ""
		}, wantErr: "DB_SQLITE_PATH"},
		{name: "sqlite with path", mutate: func(c *Config) {
			c.Database.Driver = DriverSQLite
			c.Database.Host = ""
			c.Database.SQLitePath = "test.db"
		}},
		{name: "redis disabled needs no host", mutate: func(c *Config) {
			c.Redis.Enabled = false
			c.Redis.Host = ""
		}},
		{name: "email enabled without smtp", mutate: func(c *Config) { c.Email.Enabled = true }, wantErr: "SMTP_HOST"},
		{name: "zero dashboard window", mutate: func(c *Config) { c.Business.DashboardWindowDays = 0 }, wantErr: "DASHBOARD_WINDOW_DAYS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetDatabaseDSN(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Port = "5432"
	cfg.Database.Password = "secret"
	cfg.Database.SSLMode = "disable"
	assert.Equal(t, "host=db port=5432 user=finance password=secret dbname=finance sslmode=disable TimeZone=UTC", cfg.GetDatabaseDSN())

	cfg.Database.Driver = DriverMySQL
	cfg.Database.Port = "3306"
	assert.Equal(t, "finance:secret@tcp(db:3306)/finance?charset=utf8mb4&parseTime=True&loc=UTC", cfg.GetDatabaseDSN())

	cfg.Database.Driver = DriverSQLite
	cfg.Database.SQLitePath = "/tmp/finance.db"
	assert.Equal(t, "/tmp/finance.db", cfg.GetDatabaseDSN())
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DB_SQLITE_PATH", "load.db")
	t.Setenv("INVOICE_DUE_DAYS", "45")
	t.Setenv("JWT_ACCESS_EXPIRE", "90m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, 45, cfg.Business.InvoiceDueDays)
	assert.Equal(t, 180, cfg.Business.DashboardWindowDays)
	assert.Equal(t, 90*time.Minute, cfg.JWT.AccessTokenExpiry)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Security.CORSAllowedOrigins)
}

func TestLoadRejectsInvalidEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "too-short")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
}
