// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Braid Contributors

package sqlite_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/braid-db/braid/internal/store"
	"github.com/braid-db/braid/internal/store/sqlite"
)

// testDir creates a temp directory for a test and returns cleanup func.
func testDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "braid-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

// testDBPath returns a temp SQLite database path.
func testDBPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(testDir(t), name+".db")
}

// openStore opens a collection store with the given schema and closes it when
// the test ends.
func openStore(t *testing.T, name string, schema store.Schema) *sqlite.Store {
	t.Helper()
	st, err := sqlite.Open(testDBPath(t, name), schema)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// schema3 is a minimal 3-dimensional schema for store tests.
func schema3() store.Schema {
	return store.Schema{Dimensions: 3, Metric: store.MetricL2}
}

// inTx runs fn inside one write transaction, failing the test on error.
func inTx(t *testing.T, st *sqlite.Store, fn func(tx store.DBTX) error) {
	t.Helper()
	require.NoError(t, st.WithTx(context.Background(), fn))
}
