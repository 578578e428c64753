package dirseek

import "bytes"

// The FindDup functions work like the Find functions on the sorted
// duplicates of a single key in a DupSort collection. They never move to
// another key's duplicates: when the value seek fails, the fallback
// re-anchors on key and takes its last duplicate.

// FindGEDup positions c at the smallest duplicate of key >= val.
func FindGEDup(c Cursor, key, val []byte) ([]byte, []byte, error) {
	k, v, err := c.Get(key, val, GetBothRange)
	return dupResult(key, k, v, err)
}

// FindGTDup positions c at the smallest duplicate of key > val.
func FindGTDup(c Cursor, key, val []byte) ([]byte, []byte, error) {
	search := bytes.Clone(val)
	k, v, err := c.Get(key, val, GetBothRange)
	if err != nil {
		return nil, nil, err
	}
	if c.Txn().DCmp(c.DBI(), search, v) == 0 {
		k, v, err = c.Get(nil, nil, NextDup)
	}
	return dupResult(key, k, v, err)
}

// FindEQDup positions c at the exact pair (key, val).
func FindEQDup(c Cursor, key, val []byte) ([]byte, []byte, error) {
	k, v, err := c.Get(key, val, GetBoth)
	return dupResult(key, k, v, err)
}

// FindLEDup positions c at the greatest duplicate of key <= val.
func FindLEDup(c Cursor, key, val []byte) ([]byte, []byte, error) {
	search := bytes.Clone(val)
	k, v, err := c.Get(key, val, GetBothRange)
	switch {
	case err == nil:
		if c.Txn().DCmp(c.DBI(), search, v) < 0 {
			k, v, err = c.Get(nil, nil, PrevDup)
		}
		return dupResult(key, k, v, err)
	case IsNotFound(err):
		return lastDup(c, key)
	}
	return nil, nil, err
}

// FindLTDup positions c at the greatest duplicate of key < val.
func FindLTDup(c Cursor, key, val []byte) ([]byte, []byte, error) {
	k, v, err := c.Get(key, val, GetBothRange)
	switch {
	case err == nil:
		k, v, err = c.Get(nil, nil, PrevDup)
		return dupResult(key, k, v, err)
	case IsNotFound(err):
		return lastDup(c, key)
	}
	return nil, nil, err
}

// lastDup positions c at the last duplicate of key. It fails if key is absent.
func lastDup(c Cursor, key []byte) ([]byte, []byte, error) {
	if _, _, err := c.Get(key, nil, Set); err != nil {
		return nil, nil, err
	}
	k, v, err := c.Get(nil, nil, LastDup)
	return dupResult(key, k, v, err)
}

// dupResult fills in key for stores that do not report it on duplicate ops.
func dupResult(key, k, v []byte, err error) ([]byte, []byte, error) {
	if err != nil {
		return nil, nil, err
	}
	if k == nil {
		k = key
	}
	return k, v, nil
}
