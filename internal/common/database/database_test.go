package database

import (
	"context"
	"database/sql"
	stderrors "errors"
	"testing"

	"advisor-match-workers/internal/common/config"
	"advisor-match-workers/internal/common/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedis_PingAgainstMiniredis(t *testing.T) {
	mr := miniredis.RunT(t)

	rc, err := NewRedis(config.RedisConfig{Address: mr.Addr(), PoolSize: 2, MinIdle: 9})
	require.NoError(t, err)
	defer rc.Close()

	assert.Equal(t, 1, rc.Client.Options().MinIdleConns)
	require.NoError(t, rc.Ping(context.Background()))

	mr.Close()
	assert.Error(t, rc.Ping(context.Background()))
}

func TestNewRedis_RequiresAddress(t *testing.T) {
	_, err := NewRedis(config.RedisConfig{})
	assert.Error(t, err)
}

func TestNewElasticsearch_RequiresAddress(t *testing.T) {
	_, err := NewElasticsearch(config.ElasticsearchConfig{})
	assert.Error(t, err)

	es, err := NewElasticsearch(config.ElasticsearchConfig{URL: "http://localhost:9200"})
	require.NoError(t, err)
	assert.NotNil(t, es.Client)
}

// ==========================
// WithTx
// ==========================

func TestPostgresPing_ConnectionFailed(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing().WillReturnError(stderrors.New("connection refused"))

	err = (&PostgresClient{DB: db}).Ping(context.Background())

	stdErr, ok := errors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeDatabaseConnectionFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
	assert.Contains(t, stdErr.Details, "connection refused")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPing_OK(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing()

	assert.NoError(t, (&PostgresClient{DB: db}).Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE advisors").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = WithTx(context.Background(), db, func(tx *sql.Tx) error {
		_, err := tx.Exec("UPDATE advisors SET available_slots = 1")
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := stderrors.New("boom")
	err = WithTx(context.Background(), db, func(tx *sql.Tx) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}
