package dirseek

import "github.com/Giulio2002/dirseek/compare"

// Duplicate comparator installers. Each binds a native-order fixed-width
// unsigned comparator to a DupSort collection and must run before any
// duplicates are written.

func SetDupSortAsUint16(txn Txn, dbi DBI) error {
	return txn.SetDupCompare(dbi, compare.Uint16)
}

func SetDupSortAsUint32(txn Txn, dbi DBI) error {
	return txn.SetDupCompare(dbi, compare.Uint32)
}

func SetDupSortAsUint48(txn Txn, dbi DBI) error {
	return txn.SetDupCompare(dbi, compare.Uint48)
}

func SetDupSortAsUint64(txn Txn, dbi DBI) error {
	return txn.SetDupCompare(dbi, compare.Uint64)
}

func SetDupSortAsUint80(txn Txn, dbi DBI) error {
	return txn.SetDupCompare(dbi, compare.Uint80)
}

func SetDupSortAsUint96(txn Txn, dbi DBI) error {
	return txn.SetDupCompare(dbi, compare.Uint96)
}

func SetDupSortAsUint128(txn Txn, dbi DBI) error {
	return txn.SetDupCompare(dbi, compare.Uint128)
}

// SetDupSortAsUint64x64 installs compare.Uint64x64.
func SetDupSortAsUint64x64(txn Txn, dbi DBI) error {
	return txn.SetDupCompare(dbi, compare.Uint64x64)
}

// SetDupSortAs installs the duplicate comparator for the given bit width.
func SetDupSortAs(txn Txn, dbi DBI, bits int) error {
	cmp, err := compare.ByWidth(bits)
	if err != nil {
		return WrapError(ErrIncompatible, err)
	}
	return txn.SetDupCompare(dbi, cmp)
}

// SetCompareAs installs the key comparator for the given bit width.
func SetCompareAs(txn Txn, dbi DBI, bits int) error {
	cmp, err := compare.ByWidth(bits)
	if err != nil {
		return WrapError(ErrIncompatible, err)
	}
	return txn.SetCompare(dbi, cmp)
}
