package dirseek

import (
	"fmt"
	"strings"
)

// Lookup is the relation a directional lookup satisfies.
type Lookup int

const (
	LT Lookup = iota
	LE
	EQ
	GE
	GT
)

var lookupNames = [...]string{"LT", "LE", "EQ", "GE", "GT"}

func (l Lookup) String() string {
	if l < LT || l > GT {
		return fmt.Sprintf("Lookup(%d)", int(l))
	}
	return lookupNames[l]
}

// ParseLookup parses lt, le, eq, ge or gt (case-insensitive).
func ParseLookup(s string) (Lookup, error) {
	for i, name := range lookupNames {
		if strings.EqualFold(s, name) {
			return Lookup(i), nil
		}
	}
	return 0, fmt.Errorf("dirseek: unknown lookup %q", s)
}

// Find dispatches to FindLT, FindLE, FindEQ, FindGE or FindGT.
func Find(c Cursor, dir Lookup, key []byte) ([]byte, []byte, error) {
	switch dir {
	case LT:
		return FindLT(c, key)
	case LE:
		return FindLE(c, key)
	case EQ:
		return FindEQ(c, key)
	case GE:
		return FindGE(c, key)
	case GT:
		return FindGT(c, key)
	}
	return nil, nil, NewError(ErrInvalid)
}

// FindDup dispatches to the duplicate variant of dir.
func FindDup(c Cursor, dir Lookup, key, val []byte) ([]byte, []byte, error) {
	switch dir {
	case LT:
		return FindLTDup(c, key, val)
	case LE:
		return FindLEDup(c, key, val)
	case EQ:
		return FindEQDup(c, key, val)
	case GE:
		return FindGEDup(c, key, val)
	case GT:
		return FindGTDup(c, key, val)
	}
	return nil, nil, NewError(ErrInvalid)
}
