package dirseek

// ForEachDup calls fn with every duplicate of key in ascending order. An
// absent key yields no calls. Slices passed to fn are only valid during
// the call.
func ForEachDup(c Cursor, key []byte, fn func(val []byte) error) error {
	_, v, err := c.Get(key, nil, Set)
	for err == nil {
		if err := fn(v); err != nil {
			return err
		}
		_, v, err = c.Get(nil, nil, NextDup)
	}
	if IsNotFound(err) {
		return nil
	}
	return err
}

// CountDups returns the number of duplicates of key, 0 if it is absent.
func CountDups(c Cursor, key []byte) (uint64, error) {
	if _, _, err := c.Get(key, nil, Set); err != nil {
		if IsNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	return c.Count()
}

// Scan positions c with Find(dir, key) and walks away from key, forward
// for EQ, GE and GT, backward for LT and LE, until fn returns false or the
// collection ends.
func Scan(c Cursor, dir Lookup, key []byte, fn func(k, v []byte) bool) error {
	step := Next
	if dir == LT || dir == LE {
		step = Prev
	}
	k, v, err := Find(c, dir, key)
	for err == nil {
		if !fn(k, v) {
			return nil
		}
		k, v, err = c.Get(nil, nil, step)
	}
	if IsNotFound(err) {
		return nil
	}
	return err
}
