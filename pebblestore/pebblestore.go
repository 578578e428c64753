// Package pebblestore stores dirseek collections in a Pebble LSM tree.
//
// All collections share one keyspace; each key carries its collection
// prefix, and the Pebble comparator applies the collection's installed
// comparators. Comparators therefore have to be known when the database is
// opened: declare them in Options.Tables.
package pebblestore

import (
	"errors"
	"io"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/rs/zerolog"

	"github.com/Giulio2002/dirseek"
	"github.com/Giulio2002/dirseek/internal/flatkv"
)

// ComparerName identifies the dirseek key order in the Pebble manifest.
const ComparerName = "dirseek.collation.v1"

// Options configures Open.
type Options struct {
	// FS overrides the filesystem, e.g. vfs.NewMem() in tests.
	FS     vfs.FS
	Tables []dirseek.Table
	// NoSync commits without fsync.
	NoSync bool
	Logger *zerolog.Logger
}

// NewComparer returns a Pebble comparer ordering the shared keyspace of reg.
func NewComparer(reg *flatkv.Registry) *pebble.Comparer {
	return &pebble.Comparer{
		Compare: reg.Compare,
		Equal: func(a, b []byte) bool {
			return reg.Compare(a, b) == 0
		},
		AbbreviatedKey: flatkv.AbbreviatedKey,
		FormatKey:      pebble.DefaultComparer.FormatKey,
		Separator: func(dst, a, b []byte) []byte {
			return append(dst, a...)
		},
		Successor: func(dst, a []byte) []byte {
			return append(dst, a...)
		},
		Split: func(a []byte) int { return len(a) },
		Name:  ComparerName,
	}
}

type logger struct {
	l zerolog.Logger
}

func (l logger) Infof(format string, args ...interface{}) {
	l.l.Debug().Msgf(format, args...)
}

func (l logger) Fatalf(format string, args ...interface{}) {
	l.l.Fatal().Msgf(format, args...)
}

type store struct {
	db     *pebble.DB
	wo     *pebble.WriteOptions
	writer sync.Mutex
}

// Open opens or creates the database in dir.
func Open(dir string, opts Options) (*flatkv.Env, error) {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = opts.Logger.With().Str("store", "pebble").Logger()
	}

	reg := flatkv.NewRegistry()
	cat := flatkv.NewCatalog(reg, true, log)
	if err := flatkv.Declare(cat, opts.Tables); err != nil {
		return nil, err
	}

	po := &pebble.Options{
		Comparer: NewComparer(reg),
		FS:       opts.FS,
		Logger:   logger{log},
	}
	db, err := pebble.Open(dir, po)
	if err != nil {
		return nil, dirseek.WrapError(dirseek.ErrInvalid, err)
	}
	log.Info().Str("dir", dir).Int("tables", len(opts.Tables)).Msg("pebble store opened")

	s := &store{db: db, wo: pebble.Sync}
	if opts.NoSync {
		s.wo = pebble.NoSync
	}
	env, err := flatkv.NewEnv(cat, s, log)
	if err != nil {
		db.Close()
		return nil, err
	}
	return env, nil
}

func (s *store) Begin(readOnly bool) (flatkv.Backend, error) {
	if readOnly {
		return &readTxn{s: s, snap: s.db.NewSnapshot()}, nil
	}
	s.writer.Lock()
	return &writeTxn{s: s, b: s.db.NewIndexedBatch()}, nil
}

func (s *store) Close() error { return s.db.Close() }

// reader is the read surface shared by snapshots and indexed batches.
type reader interface {
	NewIter(o *pebble.IterOptions) (*pebble.Iterator, error)
	Get(key []byte) ([]byte, io.Closer, error)
}

func newIterator(r reader, dbi dirseek.DBI) (flatkv.Iterator, error) {
	it, err := r.NewIter(&pebble.IterOptions{
		LowerBound: flatkv.Prefix(dbi),
		UpperBound: flatkv.Prefix(dbi + 1),
	})
	if err != nil {
		return nil, err
	}
	return flatkv.NewPrefixIterator(it, dbi), nil
}

func get(r reader, dbi dirseek.DBI, key []byte) ([]byte, bool, error) {
	v, closer, err := r.Get(flatkv.PrefixKey(dbi, key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	out := append([]byte{}, v...)
	return out, true, closer.Close()
}

type readTxn struct {
	s    *store
	snap *pebble.Snapshot
}

func (t *readTxn) NewIterator(dbi dirseek.DBI) (flatkv.Iterator, error) {
	return newIterator(t.snap, dbi)
}

func (t *readTxn) Get(dbi dirseek.DBI, key []byte) ([]byte, bool, error) {
	return get(t.snap, dbi, key)
}

func (t *readTxn) Set(dirseek.DBI, []byte, []byte) error {
	return dirseek.NewError(dirseek.ErrIncompatible)
}

func (t *readTxn) Delete(dirseek.DBI, []byte) error {
	return dirseek.NewError(dirseek.ErrIncompatible)
}

func (t *readTxn) Reset() {
	if t.snap != nil {
		t.snap.Close()
		t.snap = nil
	}
}

func (t *readTxn) Renew() error {
	t.snap = t.s.db.NewSnapshot()
	return nil
}

func (t *readTxn) Commit() error {
	t.Abort()
	return nil
}

func (t *readTxn) Abort() { t.Reset() }

type writeTxn struct {
	s *store
	b *pebble.Batch
}

func (t *writeTxn) NewIterator(dbi dirseek.DBI) (flatkv.Iterator, error) {
	return newIterator(t.b, dbi)
}

func (t *writeTxn) Get(dbi dirseek.DBI, key []byte) ([]byte, bool, error) {
	return get(t.b, dbi, key)
}

func (t *writeTxn) Set(dbi dirseek.DBI, key, val []byte) error {
	return t.b.Set(flatkv.PrefixKey(dbi, key), val, nil)
}

func (t *writeTxn) Delete(dbi dirseek.DBI, key []byte) error {
	return t.b.Delete(flatkv.PrefixKey(dbi, key), nil)
}

func (t *writeTxn) Reset() {}

func (t *writeTxn) Renew() error {
	return dirseek.NewError(dirseek.ErrBadTxn)
}

func (t *writeTxn) Commit() error {
	if t.b == nil {
		return dirseek.NewError(dirseek.ErrBadTxn)
	}
	err := t.b.Commit(t.s.wo)
	t.finish()
	return err
}

func (t *writeTxn) Abort() {
	if t.b != nil {
		t.finish()
	}
}

func (t *writeTxn) finish() {
	t.b.Close()
	t.b = nil
	t.s.writer.Unlock()
}
