// Package dirseek positions cursors of ordered key-value stores by
// direction: the greatest entry less than (LT) or at most (LE) a search
// key, the exact entry (EQ), or the least entry at least (GE) or greater
// than (GT) it. FindDup does the same within the sorted duplicates of one
// key of a DupSort collection and never leaves that key.
//
// The package talks to stores through the Env, Txn and Cursor interfaces,
// whose operations and error codes follow MDBX. Adapters live in
// subpackages:
//
//   - mdbxstore: libmdbx through mdbx-go
//   - boltstore: bbolt, one bucket per collection
//   - pebblestore: Pebble with a shared, comparator-ordered keyspace
//   - rocksstore: RocksDB TransactionDB, same layout as pebblestore
//   - memstore: an in-memory B-tree, for tests and caches
//
// Collections may order duplicates as fixed-width unsigned integers, see
// SetDupSortAs and the compare package.
//
// Basic usage:
//
//	env, err := boltstore.Open("/path/to/db", boltstore.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer env.Close()
//
//	dbi, err := dirseek.OpenTable(env, "blocks", dirseek.TableConfig{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := dirseek.Put(env, dbi, []byte("b"), []byte("2"), dirseek.Upsert); err != nil {
//	    log.Fatal(err)
//	}
//
//	r := dirseek.NewReader(env, dbi)
//	defer r.Close()
//	k, v, err := r.Find(dirseek.LE, []byte("c")) // "b", "2"
package dirseek
