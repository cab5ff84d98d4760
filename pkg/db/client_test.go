package db

import (
	"context"
	"testing"
	"time"

	"github.com/famiglia/ops-console/pkg/config"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), gormConfig())
	require.NoError(t, err)
	return conn
}

func TestPingAndQuery(t *testing.T) {
	client := FromGorm(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, client.Ping(ctx))

	var one int
	require.NoError(t, client.DB().WithContext(ctx).Raw("SELECT 1").Scan(&one).Error)
	require.Equal(t, 1, one)
}

func TestCloseStopsPing(t *testing.T) {
	client := FromGorm(newTestDB(t))
	require.NoError(t, client.Close())
	require.Error(t, client.Ping(context.Background()))
}

func TestApplyPoolSettings(t *testing.T) {
	client := FromGorm(newTestDB(t))
	sqlDB, err := client.SQL()
	require.NoError(t, err)

	applyPoolSettings(sqlDB, config.DBConfig{MaxOpenConns: 3, MaxIdleConns: 1, ConnMaxLifetime: time.Minute})
	require.Equal(t, 3, sqlDB.Stats().MaxOpenConnections)
}

func TestNewRequiresDSN(t *testing.T) {
	_, err := New(context.Background(), config.DBConfig{}, nil)
	require.Error(t, err)
}
