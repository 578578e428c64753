package flatkv

import (
	"bytes"
	"errors"

	"github.com/Giulio2002/dirseek"
)

type txnState uint8

const (
	txnActive txnState = iota
	txnReset
	txnDone
)

// Txn implements dirseek.Txn over a Backend.
type Txn struct {
	cat      *Catalog
	b        Backend
	readOnly bool
	state    txnState

	cursors []*Cursor
	created []string
	// gen changes on every mutation so cursors refresh their iterators.
	gen uint64
}

var _ dirseek.Txn = (*Txn)(nil)

// NewTxn wraps a freshly begun backend transaction.
func NewTxn(cat *Catalog, b Backend, readOnly bool) *Txn {
	return &Txn{cat: cat, b: b, readOnly: readOnly}
}

// storeErr gives foreign store errors a dirseek code.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	var e *dirseek.Error
	if errors.As(err, &e) {
		return err
	}
	return dirseek.WrapError(dirseek.ErrProblem, err)
}

func iterErr(it Iterator) error {
	if err := it.Error(); err != nil {
		return storeErr(err)
	}
	return dirseek.ErrNotFoundError
}

func (t *Txn) valid() error {
	if t.state != txnActive {
		return dirseek.NewError(dirseek.ErrBadTxn)
	}
	return nil
}

func (t *Txn) writable() error {
	if err := t.valid(); err != nil {
		return err
	}
	if t.readOnly {
		return dirseek.NewError(dirseek.ErrIncompatible)
	}
	return nil
}

func (t *Txn) collation(dbi dirseek.DBI) (*Collation, error) {
	if _, ok := t.cat.Lookup(dbi); !ok {
		return nil, dirseek.NewError(dirseek.ErrBadDBI)
	}
	return t.cat.Registry().Get(dbi), nil
}

// sameKey reports whether enc is a duplicate of key.
func sameKey(col *Collation, enc, key []byte) bool {
	k, tag, _, ok := Split(enc)
	return ok && tag == tagValue && col.CompareKeys(k, key) == 0
}

func (t *Txn) OpenDBI(name string, flags uint) (dirseek.DBI, error) {
	if err := t.valid(); err != nil {
		return 0, err
	}
	dbi, created, err := t.cat.Open(t.b, !t.readOnly, name, flags)
	if err != nil {
		return 0, storeErr(err)
	}
	if created {
		t.created = append(t.created, name)
		t.gen++
	}
	return dbi, nil
}

func (t *Txn) OpenCursor(dbi dirseek.DBI) (dirseek.Cursor, error) {
	if err := t.valid(); err != nil {
		return nil, err
	}
	if _, err := t.collation(dbi); err != nil {
		return nil, err
	}
	c := &Cursor{txn: t, dbi: dbi}
	t.cursors = append(t.cursors, c)
	return c, nil
}

func (t *Txn) unregister(c *Cursor) {
	for i, x := range t.cursors {
		if x == c {
			t.cursors = append(t.cursors[:i], t.cursors[i+1:]...)
			return
		}
	}
}

func (t *Txn) Get(dbi dirseek.DBI, key []byte) ([]byte, error) {
	if err := t.valid(); err != nil {
		return nil, err
	}
	col, err := t.collation(dbi)
	if err != nil {
		return nil, err
	}
	if !col.DupSort {
		v, found, err := t.b.Get(dbi, key)
		if err != nil {
			return nil, storeErr(err)
		}
		if !found {
			return nil, dirseek.ErrNotFoundError
		}
		return v, nil
	}

	it, err := t.b.NewIterator(dbi)
	if err != nil {
		return nil, storeErr(err)
	}
	defer it.Close()
	if !it.SeekGE(KeyStart(key)) {
		return nil, iterErr(it)
	}
	if !sameKey(col, it.Key(), key) {
		return nil, dirseek.ErrNotFoundError
	}
	_, _, v, _ := Split(it.Key())
	return bytes.Clone(v), nil
}

func (t *Txn) Put(dbi dirseek.DBI, key, val []byte, flags uint) error {
	if err := t.writable(); err != nil {
		return err
	}
	if len(key) == 0 {
		return dirseek.NewError(dirseek.ErrBadValSize)
	}
	col, err := t.collation(dbi)
	if err != nil {
		return err
	}

	var enc, stored []byte
	if col.DupSort {
		enc = DupKey(key, val)
		if err := t.checkDupPut(dbi, col, key, val, enc, flags); err != nil {
			return err
		}
	} else {
		enc, stored = key, val
		if err := t.checkPut(dbi, col, key, flags); err != nil {
			return err
		}
	}

	if err := t.b.Set(dbi, enc, stored); err != nil {
		return storeErr(err)
	}
	t.gen++
	return nil
}

func (t *Txn) checkPut(dbi dirseek.DBI, col *Collation, key []byte, flags uint) error {
	if flags&dirseek.NoOverwrite != 0 {
		_, found, err := t.b.Get(dbi, key)
		if err != nil {
			return storeErr(err)
		}
		if found {
			return dirseek.ErrKeyExistError
		}
	}
	if flags&dirseek.Append != 0 {
		return t.withIterator(dbi, func(it Iterator) error {
			if it.Last() && col.CompareKeys(key, it.Key()) <= 0 {
				return dirseek.ErrKeyMismatchError
			}
			return storeErr(it.Error())
		})
	}
	return nil
}

func (t *Txn) checkDupPut(dbi dirseek.DBI, col *Collation, key, val, enc []byte, flags uint) error {
	if flags&dirseek.NoDupData != 0 {
		_, found, err := t.b.Get(dbi, enc)
		if err != nil {
			return storeErr(err)
		}
		if found {
			return dirseek.ErrKeyExistError
		}
	}
	if flags&(dirseek.NoOverwrite|dirseek.Append|dirseek.AppendDup) == 0 {
		return nil
	}
	return t.withIterator(dbi, func(it Iterator) error {
		if flags&dirseek.NoOverwrite != 0 && it.SeekGE(KeyStart(key)) && sameKey(col, it.Key(), key) {
			return dirseek.ErrKeyExistError
		}
		if flags&dirseek.Append != 0 && it.Last() && col.Compare(enc, it.Key()) <= 0 {
			return dirseek.ErrKeyMismatchError
		}
		if flags&dirseek.AppendDup != 0 {
			ok := it.SeekGE(KeyEnd(key))
			if ok {
				ok = it.Prev()
			} else if it.Error() == nil {
				ok = it.Last()
			}
			if ok && sameKey(col, it.Key(), key) && col.Compare(enc, it.Key()) <= 0 {
				return dirseek.ErrKeyMismatchError
			}
		}
		return storeErr(it.Error())
	})
}

func (t *Txn) withIterator(dbi dirseek.DBI, fn func(it Iterator) error) error {
	it, err := t.b.NewIterator(dbi)
	if err != nil {
		return storeErr(err)
	}
	defer it.Close()
	return fn(it)
}

func (t *Txn) Del(dbi dirseek.DBI, key, val []byte) error {
	if err := t.writable(); err != nil {
		return err
	}
	col, err := t.collation(dbi)
	if err != nil {
		return err
	}

	var keys [][]byte
	switch {
	case !col.DupSort:
		keys = [][]byte{key}
	case val != nil:
		keys = [][]byte{DupKey(key, val)}
	default:
		err := t.withIterator(dbi, func(it Iterator) error {
			for ok := it.SeekGE(KeyStart(key)); ok && sameKey(col, it.Key(), key); ok = it.Next() {
				keys = append(keys, bytes.Clone(it.Key()))
			}
			return storeErr(it.Error())
		})
		if err != nil {
			return err
		}
		if len(keys) == 0 {
			return dirseek.ErrNotFoundError
		}
	}

	if len(keys) == 1 {
		_, found, err := t.b.Get(dbi, keys[0])
		if err != nil {
			return storeErr(err)
		}
		if !found {
			return dirseek.ErrNotFoundError
		}
	}
	for _, k := range keys {
		if err := t.b.Delete(dbi, k); err != nil {
			return storeErr(err)
		}
	}
	t.gen++
	return nil
}

func (t *Txn) Cmp(dbi dirseek.DBI, a, b []byte) int {
	return t.cat.Registry().Get(dbi).CompareKeys(a, b)
}

func (t *Txn) DCmp(dbi dirseek.DBI, a, b []byte) int {
	return t.cat.Registry().Get(dbi).CompareValues(a, b)
}

func (t *Txn) SetCompare(dbi dirseek.DBI, cmp dirseek.CmpFunc) error {
	if err := t.valid(); err != nil {
		return err
	}
	return t.cat.SetCompare(dbi, cmp)
}

func (t *Txn) SetDupCompare(dbi dirseek.DBI, cmp dirseek.CmpFunc) error {
	if err := t.valid(); err != nil {
		return err
	}
	return t.cat.SetDupCompare(dbi, cmp)
}

func (t *Txn) IsReadOnly() bool { return t.readOnly }

func (t *Txn) closeIterators() {
	for _, c := range t.cursors {
		c.closeIter()
	}
}

// Reset releases the snapshot of a read-only transaction. Cursors stay
// bound and must be renewed after Renew.
func (t *Txn) Reset() {
	if !t.readOnly || t.state != txnActive {
		return
	}
	t.closeIterators()
	t.b.Reset()
	t.state = txnReset
}

func (t *Txn) Renew() error {
	if t.state != txnReset {
		return dirseek.NewError(dirseek.ErrBadTxn)
	}
	if err := t.b.Renew(); err != nil {
		return storeErr(err)
	}
	t.state = txnActive
	t.gen++
	return nil
}

func (t *Txn) Commit() error {
	switch t.state {
	case txnDone:
		return dirseek.NewError(dirseek.ErrBadTxn)
	case txnReset:
		t.state = txnDone
		t.b.Abort()
		return nil
	}
	t.closeIterators()
	t.state = txnDone
	if err := t.b.Commit(); err != nil {
		t.forgetCreated()
		return storeErr(err)
	}
	return nil
}

func (t *Txn) Abort() {
	if t.state == txnDone {
		return
	}
	t.closeIterators()
	t.state = txnDone
	t.b.Abort()
	t.forgetCreated()
}

func (t *Txn) forgetCreated() {
	for _, name := range t.created {
		t.cat.Forget(name)
	}
	t.created = nil
}
