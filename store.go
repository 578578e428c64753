package dirseek

// CmpFunc compares two keys or two duplicate values.
type CmpFunc = func(a, b []byte) int

// Env is an opened ordered store.
type Env interface {
	// BeginTxn starts a transaction. flags is TxnReadOnly or TxnReadWrite.
	BeginTxn(flags uint) (Txn, error)
	Close() error
}

// Txn is a read-only snapshot or a write scope over an Env.
//
// A read-only Txn may be Reset, releasing its snapshot while keeping the
// handle, and later Renewed to take a fresh snapshot. Cursors opened in it
// survive the reset and are rebound with Cursor.Renew.
type Txn interface {
	OpenDBI(name string, flags uint) (DBI, error)
	OpenCursor(dbi DBI) (Cursor, error)

	Get(dbi DBI, key []byte) ([]byte, error)
	Put(dbi DBI, key, val []byte, flags uint) error
	// Del deletes key. In a DupSort collection a non-nil val deletes only
	// that duplicate; nil deletes all of them.
	Del(dbi DBI, key, val []byte) error

	// Cmp compares two keys with the collection's key comparator.
	Cmp(dbi DBI, a, b []byte) int
	// DCmp compares two values with the collection's duplicate comparator.
	DCmp(dbi DBI, a, b []byte) int
	SetCompare(dbi DBI, cmp CmpFunc) error
	SetDupCompare(dbi DBI, cmp CmpFunc) error

	IsReadOnly() bool
	Reset()
	Renew() error
	Commit() error
	Abort()
}

// Cursor is a position in one collection bound to one transaction.
type Cursor interface {
	// Get performs op and returns the entry the cursor lands on. key and
	// val are inputs for the seek ops and are never written to.
	Get(key, val []byte, op uint) ([]byte, []byte, error)
	// Renew rebinds the cursor to a renewed read-only transaction.
	Renew(txn Txn) error
	// Count returns the number of duplicates of the current key.
	Count() (uint64, error)
	Txn() Txn
	DBI() DBI
	Close()
}
