package db

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMigrationsAppliesAllStatements(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectBegin()
	for range migrations {
		mock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectCommit()

	require.NoError(t, RunMigrations(context.Background(), conn))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrationsRollsBackOnFailure(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS sections").WillReturnError(errors.New("permission denied"))
	mock.ExpectRollback()

	err = RunMigrations(context.Background(), conn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migration 0 failed")
	assert.NoError(t, mock.ExpectationsWereMet())
}
