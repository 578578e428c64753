// Package benchmarks compares directional lookups across the store
// adapters, with recycled and with fresh read transactions.
package benchmarks

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Giulio2002/dirseek"
	"github.com/Giulio2002/dirseek/boltstore"
	"github.com/Giulio2002/dirseek/mdbxstore"
	"github.com/Giulio2002/dirseek/memstore"
	"github.com/Giulio2002/dirseek/pebblestore"
	"github.com/Giulio2002/dirseek/rocksstore"
)

// Cached benchmark database directory
const benchCacheDir = "testdata/benchdb"

const (
	plainTable = "bench"
	dupTable   = "dupbench"
)

type benchEnv struct {
	env     dirseek.Env
	dbi     dirseek.DBI
	samples [][]byte
}

var (
	cacheMu  sync.Mutex
	envCache = make(map[string]*benchEnv)
)

var backends = []string{"mdbx", "bolt", "pebble", "rocks", "mem"}

func openBackend(b *testing.B, backend, path string, table dirseek.Table) dirseek.Env {
	tables := []dirseek.Table{table}
	var (
		env dirseek.Env
		err error
	)
	switch backend {
	case "mdbx":
		env, err = mdbxstore.Open(path, mdbxstore.Options{MapSize: 1 << 32, NoMetaSync: true})
	case "bolt":
		env, err = boltstore.Open(path, boltstore.Options{Tables: tables, NoSync: true})
	case "pebble":
		env, err = pebblestore.Open(path, pebblestore.Options{Tables: tables, NoSync: true})
	case "rocks":
		env, err = rocksstore.Open(path, rocksstore.Options{Tables: tables})
	case "mem":
		env, err = memstore.Open(memstore.Options{Tables: tables})
	default:
		err = fmt.Errorf("unknown backend %q", backend)
	}
	if err != nil {
		b.Fatal(err)
	}
	return env
}

// getCachedPlainDB returns a cached plain collection of size big-endian
// keys, stepping by two so odd lookups miss.
// The database is stored in testdata/benchdb/plain_<size>_<backend>.db
func getCachedPlainDB(b *testing.B, backend string, size int) *benchEnv {
	table := dirseek.Table{Name: plainTable}
	return getCached(b, backend, fmt.Sprintf("plain_%d", size), table, func(txn dirseek.Txn, dbi dirseek.DBI) error {
		val := make([]byte, 32)
		for i := 0; i < size; i++ {
			if err := txn.Put(dbi, benchKey(uint64(i)*2), val, dirseek.Append); err != nil {
				return err
			}
		}
		return nil
	}, size)
}

// getCachedDupSortDB returns a cached dupsort collection of numKeys keys
// with valsPerKey big-endian duplicates each.
func getCachedDupSortDB(b *testing.B, backend string, numKeys, valsPerKey int) *benchEnv {
	table := dirseek.Table{Name: dupTable, TableConfig: dirseek.TableConfig{Flags: dirseek.DupSort}}
	name := fmt.Sprintf("dupsort_%d_%d", numKeys, valsPerKey)
	return getCached(b, backend, name, table, func(txn dirseek.Txn, dbi dirseek.DBI) error {
		for i := 0; i < numKeys; i++ {
			for j := 0; j < valsPerKey; j++ {
				if err := txn.Put(dbi, benchKey(uint64(i)), benchKey(uint64(j)*2), 0); err != nil {
					return err
				}
			}
		}
		return nil
	}, numKeys)
}

func getCached(b *testing.B, backend, name string, table dirseek.Table, populate func(dirseek.Txn, dirseek.DBI) error, keys int) *benchEnv {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	key := name + "_" + backend
	if be, ok := envCache[key]; ok {
		return be
	}

	if err := os.MkdirAll(benchCacheDir, 0755); err != nil {
		b.Fatal(err)
	}
	path := filepath.Join(benchCacheDir, key+".db")
	exists := backend != "mem" && fileExists(path)

	env := openBackend(b, backend, path, table)
	dbi, err := dirseek.OpenTable(env, table.Name, table.TableConfig)
	if err != nil {
		env.Close()
		b.Fatal(err)
	}

	if !exists {
		b.Logf("Creating cached %s %s DB...", backend, name)
		if err := dirseek.Update(env, func(txn dirseek.Txn) error { return populate(txn, dbi) }); err != nil {
			env.Close()
			b.Fatal(err)
		}
	} else {
		b.Logf("Using cached %s %s DB", backend, name)
	}

	be := &benchEnv{env: env, dbi: dbi, samples: sampleKeys(keys, 1000)}
	envCache[key] = be
	return be
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func benchKey(i uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, i)
	return k
}

// sampleKeys spreads n lookups over [0, 2*size).
func sampleKeys(size, n int) [][]byte {
	if n > size {
		n = size
	}
	out := make([][]byte, n)
	step := 2 * size / n
	for i := range out {
		out[i] = benchKey(uint64(i*step + 1))
	}
	return out
}
