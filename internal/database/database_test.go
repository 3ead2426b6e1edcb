package database_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"articles/internal/database"
	"articles/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

func openObserved(t *testing.T) (*gorm.DB, *observer.ObservedLogs) {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := database.Open(database.DriverSQLite, dsn, zap.New(core).Sugar(), false)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	return db, logs
}

func TestOpen_MissesAreNotLogged(t *testing.T) {
	db, logs := openObserved(t)
	logs.TakeAll()

	var user models.User
	err := db.WithContext(context.Background()).First(&user, "email = ?", "nobody@example.com").Error
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	assert.Zero(t, logs.Len())
}

func TestOpen_FailuresLogWithoutBoundValues(t *testing.T) {
	db, logs := openObserved(t)
	logs.TakeAll()

	var rows []map[string]any
	err := db.Raw("SELECT * FROM missing_table WHERE email = ?", "secret@example.com").Scan(&rows).Error
	require.Error(t, err)

	entries := logs.TakeAll()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Contains(t, entries[0].Message, "missing_table")
	assert.NotContains(t, entries[0].Message, "secret@example.com")
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := database.Open("oracle", "dsn", nil, false)
	assert.Error(t, err)
}
