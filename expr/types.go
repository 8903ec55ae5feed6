package expr

import "fmt"

// Type is a tag from the finite type-checker type set (spec.md §3 "Types").
//
// MAYBE means "unbound host-variable parameter": a placeholder that
// propagates through the tree and resolves to a concrete type at first
// contact with a concrete operand.
type Type int

const (
	NoneType Type = iota
	NAType
	NullType
	MaybeType

	LogicalType

	IntegerType
	BigintType
	SmallintType
	FloatType
	DoubleType
	NumericType
	MonetaryType

	DateType
	TimeType
	TimestampType
	DatetimeType

	CharType
	VarcharType
	NcharType
	VarncharType

	BitType
	VarbitType

	ObjectType
	SetType
	MultisetType
	SequenceType

	numTypes
)

var typeNames = [...]string{
	NoneType:      "NONE",
	NAType:        "NA",
	NullType:      "NULL",
	MaybeType:     "MAYBE",
	LogicalType:   "LOGICAL",
	IntegerType:   "INTEGER",
	BigintType:    "BIGINT",
	SmallintType:  "SMALLINT",
	FloatType:     "FLOAT",
	DoubleType:    "DOUBLE",
	NumericType:   "NUMERIC",
	MonetaryType:  "MONETARY",
	DateType:      "DATE",
	TimeType:      "TIME",
	TimestampType: "TIMESTAMP",
	DatetimeType:  "DATETIME",
	CharType:      "CHAR",
	VarcharType:   "VARCHAR",
	NcharType:     "NCHAR",
	VarncharType:  "VARNCHAR",
	BitType:       "BIT",
	VarbitType:    "VARBIT",
	ObjectType:    "OBJECT",
	SetType:       "SET",
	MultisetType:  "MULTISET",
	SequenceType:  "SEQUENCE",
}

func (t Type) String() string {
	if int(t) < len(typeNames) && typeNames[t] != "" {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Domain describes the fully-parameterized version of a Type: precision
// and scale for NUMERIC, declared length for the character/bit family,
// and the element type for the collection family (SET/MULTISET/SEQUENCE).
//
// The zero Domain is untyped; Precision/Scale/Length of 0 mean "not
// applicable to this Type", not "explicitly zero".
type Domain struct {
	Type    Type
	Prec    int
	Scale   int
	Length  int   // declared length, CHAR/VARCHAR/NCHAR/VARNCHAR/BIT/VARBIT
	Elem    *Domain
	ClassID int // OBJECT(class)
}

func (d Domain) String() string {
	switch d.Type {
	case NumericType:
		return fmt.Sprintf("NUMERIC(%d,%d)", d.Prec, d.Scale)
	case CharType, VarcharType, NcharType, VarncharType, BitType, VarbitType:
		return fmt.Sprintf("%s(%d)", d.Type, d.Length)
	case SetType, MultisetType, SequenceType:
		if d.Elem != nil {
			return fmt.Sprintf("%s(%s)", d.Type, d.Elem)
		}
	}
	return d.Type.String()
}

// Numeric reports whether t is one of the numeric ranked types
// (SMALLINT < INTEGER < BIGINT < NUMERIC < FLOAT < DOUBLE < MONETARY).
func (t Type) Numeric() bool {
	switch t {
	case SmallintType, IntegerType, BigintType, NumericType, FloatType, DoubleType, MonetaryType:
		return true
	}
	return false
}

// Temporal reports whether t is one of DATE/TIME/TIMESTAMP/DATETIME.
func (t Type) Temporal() bool {
	switch t {
	case DateType, TimeType, TimestampType, DatetimeType:
		return true
	}
	return false
}

// StringLike reports whether t is one of the character string types.
func (t Type) StringLike() bool {
	switch t {
	case CharType, VarcharType, NcharType, VarncharType:
		return true
	}
	return false
}

// BitLike reports whether t is BIT or VARBIT.
func (t Type) BitLike() bool {
	return t == BitType || t == VarbitType
}

// Collection reports whether t is SET/MULTISET/SEQUENCE.
func (t Type) Collection() bool {
	switch t {
	case SetType, MultisetType, SequenceType:
		return true
	}
	return false
}

// numericRank orders the numeric types for the common-type join;
// a lower rank is dominated by a higher one.
var numericRank = map[Type]int{
	SmallintType: 0,
	IntegerType:  1,
	BigintType:   2,
	NumericType:  3,
	FloatType:    4,
	DoubleType:   5,
	MonetaryType: 6,
}

// temporalRank orders DATE < TIMESTAMP < DATETIME; TIME does not
// participate (it does not share a lattice position with the others).
var temporalRank = map[Type]int{
	DateType:      0,
	TimestampType: 1,
	DatetimeType:  2,
}

// stringRank ranks the fixed-length member of a CHAR/VARCHAR (or
// NCHAR/VARNCHAR) pair below its variable-length counterpart, so that
// CHAR + VARCHAR -> VARCHAR.
var stringRank = map[Type]int{
	CharType:    0,
	VarcharType: 1,
}

var ncharRank = map[Type]int{
	NcharType:    0,
	VarncharType: 1,
}

var bitRank = map[Type]int{
	BitType:    0,
	VarbitType: 1,
}
