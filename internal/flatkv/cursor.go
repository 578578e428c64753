package flatkv

import (
	"bytes"

	"github.com/Giulio2002/dirseek"
)

// Cursor implements dirseek.Cursor over an Iterator of encoded keys.
type Cursor struct {
	txn *Txn
	dbi dirseek.DBI

	it  Iterator
	gen uint64
	// pos is the encoded key under the cursor when positioned.
	pos        []byte
	positioned bool
}

var _ dirseek.Cursor = (*Cursor)(nil)

func (c *Cursor) Txn() dirseek.Txn { return c.txn }
func (c *Cursor) DBI() dirseek.DBI { return c.dbi }

// iter returns an iterator reflecting every write made so far in the
// transaction, re-seeking to the current position when it is rebuilt.
func (c *Cursor) iter() (Iterator, error) {
	if c.it != nil && c.gen == c.txn.gen {
		return c.it, nil
	}
	if c.it != nil {
		c.it.Close()
		c.it = nil
	}
	it, err := c.txn.b.NewIterator(c.dbi)
	if err != nil {
		c.positioned = false
		return nil, storeErr(err)
	}
	c.it, c.gen = it, c.txn.gen
	if c.positioned {
		c.positioned = it.SeekGE(c.pos)
		if c.positioned {
			c.pos = bytes.Clone(it.Key())
		}
	}
	return it, nil
}

func (c *Cursor) closeIter() {
	if c.it != nil {
		c.it.Close()
		c.it = nil
	}
	c.positioned = false
	c.pos = nil
}

func (c *Cursor) land(ok bool, col *Collation) ([]byte, []byte, error) {
	if !ok {
		c.positioned = false
		return nil, nil, iterErr(c.it)
	}
	c.positioned = true
	c.pos = bytes.Clone(c.it.Key())
	return c.decode(col)
}

func (c *Cursor) decode(col *Collation) ([]byte, []byte, error) {
	if !col.DupSort {
		return bytes.Clone(c.pos), bytes.Clone(c.it.Value()), nil
	}
	key, tag, val, ok := Split(c.pos)
	if !ok || tag != tagValue {
		return nil, nil, dirseek.NewError(dirseek.ErrCorrupted)
	}
	return bytes.Clone(key), bytes.Clone(val), nil
}

// currentKey is the user key under the cursor.
func (c *Cursor) currentKey(col *Collation) ([]byte, error) {
	if !c.positioned {
		return nil, dirseek.ErrNotFoundError
	}
	if !col.DupSort {
		return c.pos, nil
	}
	key, _, _, ok := Split(c.pos)
	if !ok {
		return nil, dirseek.NewError(dirseek.ErrCorrupted)
	}
	return key, nil
}

// landKey lands on the iterator position if it holds key.
func (c *Cursor) landKey(ok bool, col *Collation, key []byte) ([]byte, []byte, error) {
	if ok {
		var same bool
		if col.DupSort {
			same = sameKey(col, c.it.Key(), key)
		} else {
			same = col.CompareKeys(c.it.Key(), key) == 0
		}
		if !same {
			c.positioned = false
			return nil, nil, dirseek.ErrNotFoundError
		}
	}
	return c.land(ok, col)
}

func (c *Cursor) Get(key, val []byte, op uint) ([]byte, []byte, error) {
	if c.txn == nil {
		return nil, nil, dirseek.NewError(dirseek.ErrBadTxn)
	}
	if err := c.txn.valid(); err != nil {
		return nil, nil, err
	}
	col, err := c.txn.collation(c.dbi)
	if err != nil {
		return nil, nil, err
	}
	it, err := c.iter()
	if err != nil {
		return nil, nil, err
	}

	switch op {
	case dirseek.First:
		return c.land(it.First(), col)
	case dirseek.Last:
		return c.land(it.Last(), col)
	case dirseek.Next:
		if !c.positioned {
			return c.land(it.First(), col)
		}
		return c.land(it.Next(), col)
	case dirseek.Prev:
		if !c.positioned {
			return c.land(it.Last(), col)
		}
		return c.land(it.Prev(), col)
	case dirseek.GetCurrent:
		if !c.positioned {
			return nil, nil, dirseek.ErrNotFoundError
		}
		return c.decode(col)
	case dirseek.Set, dirseek.SetKey:
		if col.DupSort {
			return c.landKey(it.SeekGE(KeyStart(key)), col, key)
		}
		return c.landKey(it.SeekGE(key), col, key)
	case dirseek.SetRange:
		if col.DupSort {
			return c.land(it.SeekGE(KeyStart(key)), col)
		}
		return c.land(it.SeekGE(key), col)
	}

	if !col.DupSort {
		switch op {
		case dirseek.NextNoDup:
			return c.Get(nil, nil, dirseek.Next)
		case dirseek.PrevNoDup:
			return c.Get(nil, nil, dirseek.Prev)
		}
		return nil, nil, dirseek.NewError(dirseek.ErrIncompatible)
	}
	return c.getDup(it, col, key, val, op)
}

func (c *Cursor) getDup(it Iterator, col *Collation, key, val []byte, op uint) ([]byte, []byte, error) {
	switch op {
	case dirseek.GetBoth:
		k, v, err := c.landKey(it.SeekGE(DupKey(key, val)), col, key)
		if err != nil {
			return nil, nil, err
		}
		if col.CompareValues(v, val) != 0 {
			c.positioned = false
			return nil, nil, dirseek.ErrNotFoundError
		}
		return k, v, nil
	case dirseek.GetBothRange:
		return c.landKey(it.SeekGE(DupKey(key, val)), col, key)
	case dirseek.NextNoDup:
		if !c.positioned {
			return c.land(it.First(), col)
		}
		cur, err := c.currentKey(col)
		if err != nil {
			return nil, nil, err
		}
		return c.land(it.SeekGE(KeyEnd(cur)), col)
	case dirseek.PrevNoDup:
		if !c.positioned {
			return c.land(it.Last(), col)
		}
		cur, err := c.currentKey(col)
		if err != nil {
			return nil, nil, err
		}
		ok := it.SeekGE(KeyStart(cur))
		if ok {
			ok = it.Prev()
		} else if it.Error() == nil {
			ok = it.Last()
		}
		return c.land(ok, col)
	}

	cur, err := c.currentKey(col)
	if err != nil {
		return nil, nil, err
	}
	switch op {
	case dirseek.FirstDup:
		return c.land(it.SeekGE(KeyStart(cur)), col)
	case dirseek.LastDup:
		ok := it.SeekGE(KeyEnd(cur))
		if ok {
			ok = it.Prev()
		} else if it.Error() == nil {
			ok = it.Last()
		}
		return c.land(ok, col)
	case dirseek.NextDup, dirseek.PrevDup:
		var ok bool
		if op == dirseek.NextDup {
			ok = it.Next()
		} else {
			ok = it.Prev()
		}
		if ok && sameKey(col, it.Key(), cur) {
			return c.land(true, col)
		}
		if err := it.Error(); err != nil {
			c.positioned = false
			return nil, nil, storeErr(err)
		}
		// stay on the boundary duplicate
		c.positioned = it.SeekGE(c.pos)
		return nil, nil, dirseek.ErrNotFoundError
	}
	return nil, nil, dirseek.NewError(dirseek.ErrIncompatible)
}

// Count returns the number of duplicates of the current key.
func (c *Cursor) Count() (uint64, error) {
	if c.txn == nil {
		return 0, dirseek.NewError(dirseek.ErrBadTxn)
	}
	if err := c.txn.valid(); err != nil {
		return 0, err
	}
	col, err := c.txn.collation(c.dbi)
	if err != nil {
		return 0, err
	}
	it, err := c.iter()
	if err != nil {
		return 0, err
	}
	cur, err := c.currentKey(col)
	if err != nil {
		return 0, err
	}
	if !col.DupSort {
		return 1, nil
	}

	var n uint64
	for ok := it.SeekGE(KeyStart(cur)); ok && sameKey(col, it.Key(), cur); ok = it.Next() {
		n++
	}
	if err := it.Error(); err != nil {
		c.positioned = false
		return 0, storeErr(err)
	}
	c.positioned = it.SeekGE(c.pos)
	return n, nil
}

// Renew rebinds the cursor to a read-only transaction of the same store.
func (c *Cursor) Renew(txn dirseek.Txn) error {
	t, ok := txn.(*Txn)
	if !ok || !t.readOnly || t.cat != c.catalog() {
		return dirseek.NewError(dirseek.ErrIncompatible)
	}
	if err := t.valid(); err != nil {
		return err
	}
	c.closeIter()
	if c.txn != nil {
		c.txn.unregister(c)
	}
	c.txn = t
	t.cursors = append(t.cursors, c)
	return nil
}

func (c *Cursor) catalog() *Catalog {
	if c.txn == nil {
		return nil
	}
	return c.txn.cat
}

func (c *Cursor) Close() {
	c.closeIter()
	if c.txn != nil {
		c.txn.unregister(c)
		c.txn = nil
	}
}
