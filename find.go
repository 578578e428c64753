package dirseek

import "bytes"

// The Find functions position c relative to a search key and return the
// entry it lands on. They only move the cursor. A result that does not
// exist is reported as ErrNotFound; any other store error is returned
// as is, including errors from the fallback seeks.

// FindGE positions c at the smallest key >= key.
func FindGE(c Cursor, key []byte) ([]byte, []byte, error) {
	return c.Get(key, nil, SetRange)
}

// FindGT positions c at the smallest key > key.
func FindGT(c Cursor, key []byte) ([]byte, []byte, error) {
	search := bytes.Clone(key)
	k, v, err := c.Get(key, nil, SetRange)
	if err != nil {
		return nil, nil, err
	}
	if c.Txn().Cmp(c.DBI(), search, k) == 0 {
		return c.Get(nil, nil, Next)
	}
	return k, v, nil
}

// FindEQ positions c at key.
func FindEQ(c Cursor, key []byte) ([]byte, []byte, error) {
	return c.Get(key, nil, SetKey)
}

// FindLE positions c at the greatest key <= key.
func FindLE(c Cursor, key []byte) ([]byte, []byte, error) {
	search := bytes.Clone(key)
	k, v, err := c.Get(key, nil, SetRange)
	switch {
	case err == nil:
		if c.Txn().Cmp(c.DBI(), search, k) < 0 {
			return c.Get(nil, nil, Prev)
		}
		return k, v, nil
	case IsNotFound(err):
		// key is past the end
		return c.Get(nil, nil, Last)
	}
	return nil, nil, err
}

// FindLT positions c at the greatest key < key.
func FindLT(c Cursor, key []byte) ([]byte, []byte, error) {
	_, _, err := c.Get(key, nil, SetRange)
	switch {
	case err == nil:
		return c.Get(nil, nil, Prev)
	case IsNotFound(err):
		return c.Get(nil, nil, Last)
	}
	return nil, nil, err
}
