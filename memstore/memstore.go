// Package memstore is an in-memory dirseek store. Transactions are
// copy-on-write snapshots of a B-tree; a write transaction publishes its
// tree on commit.
package memstore

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/tidwall/btree"

	"github.com/Giulio2002/dirseek"
	"github.com/Giulio2002/dirseek/internal/flatkv"
)

type item struct {
	key, val []byte
}

// Options configures Open.
type Options struct {
	Tables []dirseek.Table
	Logger *zerolog.Logger
}

type store struct {
	reg *flatkv.Registry

	mu   sync.Mutex
	tree *btree.BTreeG[item]
	// writer serializes write transactions.
	writer sync.Mutex
}

// Open returns an empty store.
func Open(opts Options) (*flatkv.Env, error) {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = opts.Logger.With().Str("store", "mem").Logger()
	}

	reg := flatkv.NewRegistry()
	s := &store{reg: reg}
	s.tree = btree.NewBTreeGOptions(func(a, b item) bool {
		return reg.Compare(a.key, b.key) < 0
	}, btree.Options{NoLocks: true})

	cat := flatkv.NewCatalog(reg, true, log)
	if err := flatkv.Declare(cat, opts.Tables); err != nil {
		return nil, err
	}
	return flatkv.NewEnv(cat, s, log)
}

// snapshot returns a private copy of the committed tree.
func (s *store) snapshot() *btree.BTreeG[item] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.Copy()
}

func (s *store) Begin(readOnly bool) (flatkv.Backend, error) {
	if readOnly {
		return &txn{s: s, tree: s.snapshot(), readOnly: true}, nil
	}
	s.writer.Lock()
	return &txn{s: s, tree: s.snapshot()}, nil
}

func (s *store) Close() error { return nil }

type txn struct {
	s        *store
	tree     *btree.BTreeG[item]
	readOnly bool
	done     bool
}

func (t *txn) NewIterator(dbi dirseek.DBI) (flatkv.Iterator, error) {
	it := t.tree.Iter()
	return flatkv.NewPrefixIterator(&iterator{it: it}, dbi), nil
}

func (t *txn) Get(dbi dirseek.DBI, key []byte) ([]byte, bool, error) {
	it, ok := t.tree.Get(item{key: flatkv.PrefixKey(dbi, key)})
	if !ok {
		return nil, false, nil
	}
	return it.val, true, nil
}

func (t *txn) Set(dbi dirseek.DBI, key, val []byte) error {
	t.tree.Set(item{
		key: flatkv.PrefixKey(dbi, key),
		val: append([]byte{}, val...),
	})
	return nil
}

func (t *txn) Delete(dbi dirseek.DBI, key []byte) error {
	t.tree.Delete(item{key: flatkv.PrefixKey(dbi, key)})
	return nil
}

func (t *txn) Reset() { t.tree = nil }

func (t *txn) Renew() error {
	t.tree = t.s.snapshot()
	return nil
}

func (t *txn) Commit() error {
	if t.readOnly {
		t.Abort()
		return nil
	}
	if t.done {
		return dirseek.NewError(dirseek.ErrBadTxn)
	}
	t.s.mu.Lock()
	t.s.tree = t.tree
	t.s.mu.Unlock()
	t.finish()
	return nil
}

func (t *txn) Abort() {
	if t.done {
		return
	}
	t.finish()
}

func (t *txn) finish() {
	t.done = true
	t.tree = nil
	if !t.readOnly {
		t.s.writer.Unlock()
	}
}

// iterator adapts a B-tree iterator to flatkv.GlobalIterator.
type iterator struct {
	it btree.IterG[item]
}

func (i *iterator) SeekGE(key []byte) bool {
	return i.it.Seek(item{key: key})
}

func (i *iterator) SeekLT(key []byte) bool {
	if i.it.Seek(item{key: key}) {
		return i.it.Prev()
	}
	return i.it.Last()
}

func (i *iterator) Next() bool    { return i.it.Next() }
func (i *iterator) Prev() bool    { return i.it.Prev() }
func (i *iterator) Key() []byte   { return i.it.Item().key }
func (i *iterator) Value() []byte { return i.it.Item().val }
func (i *iterator) Error() error  { return nil }

func (i *iterator) Close() error {
	i.it.Release()
	return nil
}
