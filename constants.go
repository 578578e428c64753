package dirseek

// Cursor operation constants (untyped uint, numbered as MDBX_cursor_op)
const (
	// First positions at the first key
	First uint = iota
	// FirstDup positions at the first duplicate of current key
	FirstDup
	// GetBoth positions at exact key-value pair
	GetBoth
	// GetBothRange positions at key with value >= specified
	GetBothRange
	// GetCurrent returns current key-value
	GetCurrent
	// GetMultiple returns multiple values (DUPFIXED)
	GetMultiple
	// Last positions at the last key
	Last
	// LastDup positions at the last duplicate of current key
	LastDup
	// Next moves to the next key-value
	Next
	// NextDup moves to the next duplicate of current key
	NextDup
	// NextMultiple returns next multiple values (DUPFIXED)
	NextMultiple
	// NextNoDup moves to the first value of next key
	NextNoDup
	// Prev moves to the previous key-value
	Prev
	// PrevDup moves to the previous duplicate of current key
	PrevDup
	// PrevNoDup moves to the last value of previous key
	PrevNoDup
	// Set positions at specified key
	Set
	// SetKey positions at key, returns key and value
	SetKey
	// SetRange positions at first key >= specified
	SetRange
)

// Transaction flags
const (
	// TxnReadWrite is the default read-write transaction
	TxnReadWrite uint = 0

	// TxnReadOnly creates a read-only transaction
	TxnReadOnly uint = 0x20000
)

// Collection flags
const (
	// DBDefaults uses default comparison and features
	DBDefaults uint = 0

	// DupSort allows multiple values per key (sorted)
	DupSort uint = 0x04

	// Create creates the collection if it doesn't exist
	Create uint = 0x40000
)

// Put flags
const (
	// Upsert is the default insert-or-update mode
	Upsert uint = 0

	// NoOverwrite returns ErrKeyExist if key exists
	NoOverwrite uint = 0x10

	// NoDupData returns ErrKeyExist if key-value pair exists (DUPSORT)
	NoDupData uint = 0x20

	// Append assumes data is being appended in key order
	Append uint = 0x20000

	// AppendDup assumes duplicate data is being appended in value order
	AppendDup uint = 0x40000
)

// opNames is used by String helpers and debug logging.
var opNames = map[uint]string{
	First:        "First",
	FirstDup:     "FirstDup",
	GetBoth:      "GetBoth",
	GetBothRange: "GetBothRange",
	GetCurrent:   "GetCurrent",
	GetMultiple:  "GetMultiple",
	Last:         "Last",
	LastDup:      "LastDup",
	Next:         "Next",
	NextDup:      "NextDup",
	NextMultiple: "NextMultiple",
	NextNoDup:    "NextNoDup",
	Prev:         "Prev",
	PrevDup:      "PrevDup",
	PrevNoDup:    "PrevNoDup",
	Set:          "Set",
	SetKey:       "SetKey",
	SetRange:     "SetRange",
}

// OpName returns the name of a cursor operation.
func OpName(op uint) string {
	if s, ok := opNames[op]; ok {
		return s
	}
	return "Unknown"
}
