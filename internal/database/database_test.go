package database

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fundboard/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, ":memory:?_foreign_keys=on", SQLiteDSN(":memory:"))
	assert.Equal(t, "file:x.db?cache=shared&_foreign_keys=on", SQLiteDSN("file:x.db?cache=shared"))
}

func TestConnect_SQLiteMigratesSchema(t *testing.T) {
	cfg := &config.Config{
		DBDriver:     "sqlite",
		DBSQLitePath: filepath.Join(t.TempDir(), "fundboard.db"),
	}

	db, err := Connect(cfg)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, m := range PersistentModels() {
		assert.True(t, db.Migrator().HasTable(m), "missing table for %T", m)
	}

	var fk int
	require.NoError(t, db.Raw("PRAGMA foreign_keys").Scan(&fk).Error)
	assert.Equal(t, 1, fk)
}

type recordHandler struct {
	records []slog.Record
}

func (h *recordHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h *recordHandler) Handle(_ context.Context, r slog.Record) error {
	h.records = append(h.records, r)
	return nil
}
func (h *recordHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordHandler) WithGroup(string) slog.Handler      { return h }

func TestCustomGormLogger_Trace(t *testing.T) {
	h := &recordHandler{}
	l := NewGormLogger(slog.New(h))
	fc := func() (string, int64) { return "SELECT 1", 1 }

	// Fast successful queries are below warn level.
	l.Trace(context.Background(), time.Now(), fc, nil)
	assert.Empty(t, h.records)

	l.Trace(context.Background(), time.Now(), fc, gorm.ErrRecordNotFound)
	assert.Empty(t, h.records)

	l.Trace(context.Background(), time.Now(), fc, errors.New("syntax error"))
	require.Len(t, h.records, 1)
	assert.Equal(t, slog.LevelError, h.records[0].Level)

	l.Trace(context.Background(), time.Now().Add(-time.Second), fc, nil)
	require.Len(t, h.records, 2)
	assert.True(t, strings.Contains(h.records[1].Message, "slow"))

	l.LogMode(logger.Silent).Trace(context.Background(), time.Now(), fc, errors.New("ignored"))
	assert.Len(t, h.records, 2)
}
