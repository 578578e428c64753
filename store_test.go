package dirseek_test

import (
	"path/filepath"
	"testing"

	"github.com/cockroachdb/pebble/vfs"
	"github.com/stretchr/testify/require"

	"github.com/Giulio2002/dirseek"
	"github.com/Giulio2002/dirseek/boltstore"
	"github.com/Giulio2002/dirseek/memstore"
	"github.com/Giulio2002/dirseek/pebblestore"
)

// backend opens a fresh store for one test. The cgo stores are covered in
// their own packages.
type backend struct {
	name string
	// custom stores accept installed comparators.
	custom bool
	open   func(t *testing.T, tables []dirseek.Table) dirseek.Env
}

var backends = []backend{
	{
		name:   "mem",
		custom: true,
		open: func(t *testing.T, tables []dirseek.Table) dirseek.Env {
			env, err := memstore.Open(memstore.Options{Tables: tables})
			require.NoError(t, err)
			return env
		},
	},
	{
		name:   "pebble",
		custom: true,
		open: func(t *testing.T, tables []dirseek.Table) dirseek.Env {
			env, err := pebblestore.Open("db", pebblestore.Options{
				FS:     vfs.NewMem(),
				Tables: tables,
				NoSync: true,
			})
			require.NoError(t, err)
			return env
		},
	},
	{
		name: "bolt",
		open: func(t *testing.T, tables []dirseek.Table) dirseek.Env {
			path := filepath.Join(t.TempDir(), "bolt.db")
			env, err := boltstore.Open(path, boltstore.Options{Tables: tables, NoSync: true})
			require.NoError(t, err)
			return env
		},
	},
}

// forEachBackend runs fn against every backend that can host table.
func forEachBackend(t *testing.T, table dirseek.Table, fn func(t *testing.T, env dirseek.Env, dbi dirseek.DBI)) {
	needsCustom := table.Compare != nil || table.DupCompare != nil || table.DupSortPrefix != 0
	runBackends(t, table, needsCustom, fn)
}

// forEachCustomBackend runs fn against the backends that accept installed
// comparators.
func forEachCustomBackend(t *testing.T, table dirseek.Table, fn func(t *testing.T, env dirseek.Env, dbi dirseek.DBI)) {
	runBackends(t, table, true, fn)
}

func runBackends(t *testing.T, table dirseek.Table, customOnly bool, fn func(t *testing.T, env dirseek.Env, dbi dirseek.DBI)) {
	for _, b := range backends {
		b := b
		t.Run(b.name, func(t *testing.T) {
			if customOnly && !b.custom {
				t.Skip("store keeps bytewise order")
			}
			env := b.open(t, []dirseek.Table{table})
			defer env.Close()

			dbi, err := dirseek.OpenTable(env, table.Name, table.TableConfig)
			require.NoError(t, err)
			fn(t, env, dbi)
		})
	}
}

func putAll(t *testing.T, env dirseek.Env, dbi dirseek.DBI, pairs [][2][]byte) {
	t.Helper()
	require.NoError(t, dirseek.Update(env, func(txn dirseek.Txn) error {
		for _, p := range pairs {
			if err := txn.Put(dbi, p[0], p[1], dirseek.Upsert); err != nil {
				return err
			}
		}
		return nil
	}))
}

func withCursor(t *testing.T, env dirseek.Env, dbi dirseek.DBI, fn func(c dirseek.Cursor)) {
	t.Helper()
	require.NoError(t, dirseek.View(env, func(txn dirseek.Txn) error {
		c, err := txn.OpenCursor(dbi)
		if err != nil {
			return err
		}
		defer c.Close()
		fn(c)
		return nil
	}))
}
