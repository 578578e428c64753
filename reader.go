package dirseek

import "bytes"

// Reader owns one read-only transaction and one cursor on a collection and
// recycles them across lookups. Between lookups the transaction is reset,
// so it holds no snapshot; Acquire renews it.
//
// A Reader is not safe for concurrent use. Use a ReaderPool to share
// readers between goroutines.
type Reader struct {
	env Env
	dbi DBI

	txn    Txn
	cur    Cursor
	active bool
}

// NewReader returns a Reader for dbi. Nothing is allocated in the store
// until the first Acquire.
func NewReader(env Env, dbi DBI) *Reader {
	return &Reader{env: env, dbi: dbi}
}

// Acquire begins or renews the transaction, then opens or renews the
// cursor. The cursor is valid until Release.
func (r *Reader) Acquire() (Cursor, error) {
	if r.active {
		return nil, NewError(ErrBadTxn)
	}

	if r.txn == nil {
		txn, err := r.env.BeginTxn(TxnReadOnly)
		if err != nil {
			return nil, err
		}
		r.txn = txn
	} else if err := r.txn.Renew(); err != nil {
		return nil, err
	}

	var err error
	if r.cur == nil {
		var cur Cursor
		cur, err = r.txn.OpenCursor(r.dbi)
		if err == nil {
			r.cur = cur
		}
	} else {
		err = r.cur.Renew(r.txn)
	}
	if err != nil {
		r.txn.Reset()
		return nil, err
	}

	r.active = true
	return r.cur, nil
}

// Release resets the transaction, keeping it and the cursor for reuse.
// It is a no-op when the reader is not acquired.
func (r *Reader) Release() {
	if !r.active {
		return
	}
	r.txn.Reset()
	r.active = false
}

// Close frees the cursor and the transaction.
func (r *Reader) Close() {
	if r.cur != nil {
		r.cur.Close()
		r.cur = nil
	}
	if r.txn != nil {
		r.txn.Abort()
		r.txn = nil
	}
	r.active = false
}

// FindDup runs one duplicate lookup in a fresh snapshot. The result is
// copied out before the snapshot is released.
func (r *Reader) FindDup(dir Lookup, key, val []byte) ([]byte, []byte, error) {
	cur, err := r.Acquire()
	if err != nil {
		return nil, nil, err
	}
	defer r.Release()

	k, v, err := FindDup(cur, dir, key, val)
	if err != nil {
		return nil, nil, err
	}
	return bytes.Clone(k), bytes.Clone(v), nil
}

// Find runs one primary-key lookup in a fresh snapshot.
func (r *Reader) Find(dir Lookup, key []byte) ([]byte, []byte, error) {
	cur, err := r.Acquire()
	if err != nil {
		return nil, nil, err
	}
	defer r.Release()

	k, v, err := Find(cur, dir, key)
	if err != nil {
		return nil, nil, err
	}
	return bytes.Clone(k), bytes.Clone(v), nil
}

// View runs fn with the acquired cursor. Slices seen by fn are only valid
// inside it.
func (r *Reader) View(fn func(c Cursor) error) error {
	cur, err := r.Acquire()
	if err != nil {
		return err
	}
	defer r.Release()
	return fn(cur)
}
