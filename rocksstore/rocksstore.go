// Package rocksstore stores dirseek collections in a RocksDB
// TransactionDB. Like pebblestore, collections share one keyspace ordered
// by a registered comparator, so their comparators are declared at open.
package rocksstore

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/tecbot/gorocksdb"

	"github.com/Giulio2002/dirseek"
	"github.com/Giulio2002/dirseek/internal/flatkv"
)

// ComparatorName identifies the dirseek key order to RocksDB.
const ComparatorName = "dirseek.collation.v1"

// Options configures Open.
type Options struct {
	Tables []dirseek.Table
	// Sync fsyncs the WAL on commit.
	Sync   bool
	Logger *zerolog.Logger
}

type comparator struct {
	reg *flatkv.Registry
}

func (c comparator) Compare(a, b []byte) int { return c.reg.Compare(a, b) }
func (c comparator) Name() string            { return ComparatorName }

type store struct {
	db  *gorocksdb.TransactionDB
	reg *flatkv.Registry

	opts   *gorocksdb.Options
	wo     *gorocksdb.WriteOptions
	writer sync.Mutex
}

// Open opens or creates the database in dir.
func Open(dir string, opts Options) (*flatkv.Env, error) {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = opts.Logger.With().Str("store", "rocks").Logger()
	}

	reg := flatkv.NewRegistry()
	cat := flatkv.NewCatalog(reg, true, log)
	if err := flatkv.Declare(cat, opts.Tables); err != nil {
		return nil, err
	}

	ro := gorocksdb.NewDefaultOptions()
	ro.SetCreateIfMissing(true)
	ro.SetComparator(comparator{reg: reg})
	db, err := gorocksdb.OpenTransactionDb(ro, gorocksdb.NewDefaultTransactionDBOptions(), dir)
	if err != nil {
		ro.Destroy()
		return nil, dirseek.WrapError(dirseek.ErrInvalid, err)
	}
	log.Info().Str("dir", dir).Int("tables", len(opts.Tables)).Msg("rocks store opened")

	wo := gorocksdb.NewDefaultWriteOptions()
	wo.SetSync(opts.Sync)
	s := &store{db: db, reg: reg, opts: ro, wo: wo}
	env, err := flatkv.NewEnv(cat, s, log)
	if err != nil {
		s.Close()
		return nil, err
	}
	return env, nil
}

func (s *store) Begin(readOnly bool) (flatkv.Backend, error) {
	t := &txn{s: s, readOnly: readOnly}
	if !readOnly {
		s.writer.Lock()
	}
	t.begin()
	return t, nil
}

func (s *store) Close() error {
	s.db.Close()
	s.wo.Destroy()
	s.opts.Destroy()
	return nil
}

// txn is a RocksDB transaction reading at a snapshot. Read-only
// transactions reuse their handle across Reset and Renew.
type txn struct {
	s        *store
	readOnly bool

	tx   *gorocksdb.Transaction
	snap *gorocksdb.Snapshot
	ro   *gorocksdb.ReadOptions
	to   *gorocksdb.TransactionOptions
	done bool
}

func (t *txn) begin() {
	t.snap = t.s.db.NewSnapshot()
	t.ro = gorocksdb.NewDefaultReadOptions()
	t.ro.SetSnapshot(t.snap)
	if t.to == nil {
		t.to = gorocksdb.NewDefaultTransactionOptions()
		t.to.SetSetSnapshot(!t.readOnly)
	}
	t.tx = t.s.db.TransactionBegin(t.s.wo, t.to, t.tx)
}

func (t *txn) release() {
	if t.ro != nil {
		t.ro.Destroy()
		t.ro = nil
	}
	if t.snap != nil {
		t.s.db.ReleaseSnapshot(t.snap)
		t.snap = nil
	}
}

func (t *txn) NewIterator(dbi dirseek.DBI) (flatkv.Iterator, error) {
	it := &iterator{it: t.tx.NewIterator(t.ro), reg: t.s.reg}
	return flatkv.NewPrefixIterator(it, dbi), nil
}

// Get seeks instead of using Transaction.Get, whose result cannot tell an
// empty value from a missing key.
func (t *txn) Get(dbi dirseek.DBI, key []byte) ([]byte, bool, error) {
	pk := flatkv.PrefixKey(dbi, key)
	it := t.tx.NewIterator(t.ro)
	defer it.Close()

	it.Seek(pk)
	if !it.Valid() {
		return nil, false, it.Err()
	}
	if t.s.reg.Compare(it.Key().Data(), pk) != 0 {
		return nil, false, nil
	}
	return append([]byte{}, it.Value().Data()...), true, nil
}

func (t *txn) Set(dbi dirseek.DBI, key, val []byte) error {
	return t.tx.Put(flatkv.PrefixKey(dbi, key), val)
}

func (t *txn) Delete(dbi dirseek.DBI, key []byte) error {
	return t.tx.Delete(flatkv.PrefixKey(dbi, key))
}

func (t *txn) Reset() {
	t.tx.Rollback()
	t.release()
}

func (t *txn) Renew() error {
	t.begin()
	return nil
}

func (t *txn) Commit() error {
	if t.done {
		return dirseek.NewError(dirseek.ErrBadTxn)
	}
	var err error
	if t.readOnly {
		err = t.tx.Rollback()
	} else {
		err = t.tx.Commit()
	}
	t.finish()
	return err
}

func (t *txn) Abort() {
	if t.done {
		return
	}
	t.tx.Rollback()
	t.finish()
}

func (t *txn) finish() {
	t.done = true
	t.release()
	t.tx.Destroy()
	t.to.Destroy()
	if !t.readOnly {
		t.s.writer.Unlock()
	}
}

// iterator adapts a RocksDB iterator to flatkv.GlobalIterator.
type iterator struct {
	it  *gorocksdb.Iterator
	reg *flatkv.Registry
}

func (i *iterator) SeekGE(key []byte) bool {
	i.it.Seek(key)
	return i.it.Valid()
}

func (i *iterator) SeekLT(key []byte) bool {
	i.it.SeekForPrev(key)
	if i.it.Valid() && i.reg.Compare(i.it.Key().Data(), key) == 0 {
		i.it.Prev()
	}
	return i.it.Valid()
}

func (i *iterator) Next() bool {
	i.it.Next()
	return i.it.Valid()
}

func (i *iterator) Prev() bool {
	i.it.Prev()
	return i.it.Valid()
}

func (i *iterator) Key() []byte   { return i.it.Key().Data() }
func (i *iterator) Value() []byte { return i.it.Value().Data() }
func (i *iterator) Error() error  { return i.it.Err() }

func (i *iterator) Close() error {
	i.it.Close()
	return nil
}
