package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMemoryAndExec(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Exec(ctx, db, `
		CREATE TABLE organizations (id INTEGER PRIMARY KEY, name TEXT);
		INSERT INTO organizations VALUES (1, 'Acme');
	`))
	var name string
	require.NoError(t, db.QueryRowContext(ctx, `SELECT name FROM organizations WHERE id = 1`).Scan(&name))
	assert.Equal(t, "Acme", name)

	require.Error(t, Exec(ctx, db, `SELECT * FROM nope`))
}

func TestOpenFileIsReadOnly(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "mb.db")

	rw, err := Open(ctx, "file:"+path+"?mode=rwc")
	require.NoError(t, err)
	require.NoError(t, Exec(ctx, rw, `CREATE TABLE t (v TEXT)`))
	require.NoError(t, rw.Close())

	ro, err := Open(ctx, path)
	require.NoError(t, err)
	defer ro.Close()
	_, err = ro.ExecContext(ctx, `INSERT INTO t VALUES ('x')`)
	require.Error(t, err)
}

func TestOpenErrors(t *testing.T) {
	_, err := Open(context.Background(), "")
	require.Error(t, err)
	_, err = Open(context.Background(), filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
}
