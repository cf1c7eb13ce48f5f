package gormdb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Kyac99/finance-gestion-app/internal/config"
	"github.com/Kyac99/finance-gestion-app/internal/domain/user"
	"github.com/Kyac99/finance-gestion-app/internal/pkg/auth"
	"github.com/Kyac99/finance-gestion-app/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
)

func TestDialector(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseConfig{Host: "db", Port: "5432", Name: "finance", User: "finance"}}

	for _, driver := range []string{config.DriverPostgres, config.DriverMySQL, config.DriverSQLite} {
		cfg.Database.Driver = driver
		d, err := Dialector(cfg)
		require.NoError(t, err, driver)
		assert.Equal(t, driver, d.Name())
	}

	cfg.Database.Driver = "oracle"
	_, err := Dialector(cfg)
	assert.ErrorContains(t, err, "unsupported database driver")
}

func newMockDB(t *testing.T) (sqlmock.Sqlmock, func() error) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	cfg := &config.Config{Database: config.DatabaseConfig{
		Driver:       config.DriverPostgres,
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		MaxLifetime:  time.Hour,
	}}

	// gorm pings once while opening
	mock.ExpectPing()
	db, err := Open(postgres.New(postgres.Config{Conn: sqlDB}), cfg)
	require.NoError(t, err)

	return mock, func() error { return Health(context.Background(), db) }
}

func TestHealth(t *testing.T) {
	mock, health := newMockDB(t)

	mock.ExpectPing()
	assert.NoError(t, health())

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	assert.ErrorContains(t, health(), "connection refused")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrationOnSQLite(t *testing.T) {
	db := testutil.NewDB(t)
	log, _ := testutil.NullLogger()
	m := NewMigration(db, log)

	require.NoError(t, m.RunAutoMigrations())
	for _, table := range []string{"users", "suppliers", "customers", "products", "purchases", "sales", "invoices", "stock_movements"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}

	created, failed := m.CreateIndexes()
	assert.Equal(t, len(indexes), created)
	assert.Zero(t, failed)

	// second run is a no-op
	require.NoError(t, m.RunAutoMigrations())
	created, _ = m.CreateIndexes()
	assert.Equal(t, len(indexes), created)
}

func TestSeedInitialData(t *testing.T) {
	db := testutil.NewDB(t, &user.User{})
	log, _ := testutil.NullLogger()
	cfg := &config.Config{
		JWT:      config.JWTConfig{Secret: "0123456789abcdef0123456789abcdef"},
		Security: config.SecurityConfig{BcryptCost: bcrypt.MinCost},
	}
	users := user.NewService(db, auth.NewJWTManager(cfg), auth.NewPasswordManager(cfg), nil, log)
	m := NewMigration(db, log)
	ctx := context.Background()

	require.NoError(t, m.SeedInitialData(ctx, users, config.AdminSeedConfig{}))
	var count int64
	require.NoError(t, db.Model(&user.User{}).Count(&count).Error)
	assert.Zero(t, count)

	seed := config.AdminSeedConfig{Email: "Owner@Example.com", Password: "Ledger#2024x"}
	require.NoError(t, m.SeedInitialData(ctx, users, seed))
	require.NoError(t, m.SeedInitialData(ctx, users, seed))

	var admin user.User
	require.NoError(t, db.First(&admin).Error)
	assert.Equal(t, "owner@example.com", admin.Email)
	assert.True(t, admin.IsAdmin)
	require.NoError(t, db.Model(&user.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	err := m.SeedInitialData(ctx, users, config.AdminSeedConfig{Email: "weak@example.com", Password: "weak"})
	assert.ErrorContains(t, err, "failed to seed admin user")
}
