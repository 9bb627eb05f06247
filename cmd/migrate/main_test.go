package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestApply(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	dir := t.TempDir()
	writeFile(t, dir, "002_bad.sql", "ALTER TABLE nope")
	writeFile(t, dir, "001_customers.sql", "CREATE TABLE customers (uid TEXT)")
	writeFile(t, dir, "003_empty.sql", "   \n")
	writeFile(t, dir, "README.md", "ignored")

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE customers").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec("ALTER TABLE nope").WillReturnError(errors.New("relation does not exist"))
	mock.ExpectRollback()

	ok, failed, err := apply(db, dir)
	require.NoError(t, err)
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, failed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApply_MissingDir(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, _, err = apply(db, filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestListTables(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT tablename FROM pg_tables").
		WillReturnRows(sqlmock.NewRows([]string{"tablename"}).AddRow("customers"))

	tables, err := listTables(db)
	require.NoError(t, err)
	assert.Equal(t, []string{"customers"}, tables)
}
