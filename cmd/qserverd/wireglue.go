// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"fmt"

	"github.com/relaydb/qcore/direrr"
	"github.com/relaydb/qcore/expr"
	"github.com/relaydb/qcore/plancache"
	"github.com/relaydb/qcore/wire"
)

// literalToWireValue picks the wire.PackValue representation for lit's
// resolved type. NUMERIC/MONETARY round-trip as a decimal string;
// DATE/TIME/TIMESTAMP/DATETIME round-trip through wire's date.Time
// conversions (wire/datetime.go) so an out-of-range stored epoch count
// gets normalized through date.Time's calendar arithmetic before it
// reaches the wire, rather than passed through raw; the normalized
// count is what actually goes out, since wire.Value's tag set
// (wire/value.go) only carries the nine primitive Go kinds, not the
// full expr.Type lattice.
func literalToWireValue(lit *expr.Literal) (interface{}, error) {
	if lit == nil || lit.IsNull {
		return nil, nil
	}
	d := lit.Type()
	switch d.Type {
	case expr.LogicalType:
		if lit.Bool {
			return int16(1), nil
		}
		return int16(0), nil
	case expr.SmallintType:
		return int16(lit.Int), nil
	case expr.IntegerType:
		return int32(lit.Int), nil
	case expr.DateType:
		return wire.DateToDays(wire.DaysToDate(int32(lit.Int))), nil
	case expr.TimeType:
		return wire.TimeToSeconds(wire.SecondsToTime(int32(lit.Int))), nil
	case expr.BigintType:
		return lit.Int, nil
	case expr.TimestampType:
		return wire.TimestampToSeconds(wire.SecondsToTimestamp(lit.Int)), nil
	case expr.DatetimeType:
		return wire.DatetimeToMillis(wire.MillisToDatetime(lit.Int)), nil
	case expr.FloatType:
		return float32(lit.Float), nil
	case expr.DoubleType:
		return lit.Float, nil
	case expr.NumericType, expr.MonetaryType:
		if lit.Rat == nil {
			return "", nil
		}
		return lit.Rat.FloatString(d.Scale), nil
	case expr.CharType, expr.VarcharType, expr.NcharType, expr.VarncharType:
		return lit.Str, nil
	case expr.BitType, expr.VarbitType:
		return lit.Bits, nil
	default:
		return nil, direrr.New(direrr.ObjInvalidArguments,
			fmt.Sprintf("qserverd: host variable type %s has no wire representation", d.Type))
	}
}

// wireValueToLiteral is literalToWireValue's inverse for the values
// wire.UnpackValue can produce. The resulting Literal's type is
// whatever the wire tag implies, not necessarily the statement's
// declared host-variable domain; expr.CoerceValue (called from
// session.bindHostVars) does the actual coercion to that domain.
func wireValueToLiteral(v interface{}) *expr.Literal {
	lit := &expr.Literal{}
	switch x := v.(type) {
	case int16:
		lit.Int = int64(x)
		lit.SetType(expr.Domain{Type: expr.SmallintType})
	case int32:
		lit.Int = int64(x)
		lit.SetType(expr.Domain{Type: expr.IntegerType})
	case int64:
		lit.Int = x
		lit.SetType(expr.Domain{Type: expr.BigintType})
	case float32:
		lit.Float = float64(x)
		lit.SetType(expr.Domain{Type: expr.FloatType})
	case float64:
		lit.Float = x
		lit.SetType(expr.Domain{Type: expr.DoubleType})
	case string:
		lit.Str = x
		lit.SetType(expr.Domain{Type: expr.VarcharType, Length: len(x)})
	case []byte:
		lit.Bits = x
		lit.SetType(expr.Domain{Type: expr.VarbitType, Length: len(x) * 8})
	case wire.OID:
		lit.SetType(expr.Domain{Type: expr.ObjectType})
	default:
		lit.IsNull = true
		lit.SetType(expr.Domain{Type: expr.NullType})
	}
	return lit
}

func packLiteralList(buf []byte, lits []*expr.Literal) ([]byte, error) {
	buf = wire.PackInt(buf, int32(len(lits)))
	for _, lit := range lits {
		v, err := literalToWireValue(lit)
		if err != nil {
			return nil, err
		}
		buf, err = wire.PackValue(buf, v)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func unpackLiteralList(buf []byte) ([]*expr.Literal, []byte, error) {
	n, rest, err := wire.UnpackInt(buf)
	if err != nil {
		return nil, nil, fmt.Errorf("qserverd: unpacking literal list count: %w", err)
	}
	out := make([]*expr.Literal, n)
	for i := range out {
		var v interface{}
		v, rest, err = wire.UnpackValue(rest)
		if err != nil {
			return nil, nil, fmt.Errorf("qserverd: unpacking literal %d: %w", i, err)
		}
		out[i] = wireValueToLiteral(v)
	}
	return out, rest, nil
}

// toWireDomain/fromWireDomain cross wire.Domain's flat (tag, prec,
// scale, length) shape with expr.Domain's richer one; the collection
// family's element domain and OBJECT's class ID do not survive the
// wire, matching wire.Domain's doc comment that it carries only "the
// type tag plus the precision/scale/length parameters".
func toWireDomain(d expr.Domain) wire.Domain {
	return wire.Domain{Tag: byte(d.Type), Prec: int16(d.Prec), Scale: int16(d.Scale), Length: int32(d.Length)}
}

func fromWireDomain(d wire.Domain) expr.Domain {
	return expr.Domain{Type: expr.Type(d.Tag), Prec: int(d.Prec), Scale: int(d.Scale), Length: int(d.Length)}
}

func packDomainList(buf []byte, domains []expr.Domain) []byte {
	buf = wire.PackInt(buf, int32(len(domains)))
	for _, d := range domains {
		buf = wire.PackDomain(buf, toWireDomain(d))
	}
	return buf
}

func packHostVarDomainList(buf []byte, hv []expr.HostVarDomain) []byte {
	buf = wire.PackInt(buf, int32(len(hv)))
	for _, h := range hv {
		buf = wire.PackInt(buf, int32(h.Index))
		buf = wire.PackDomain(buf, toWireDomain(h.Expected))
	}
	return buf
}

func packPlanID(buf []byte, id plancache.PlanID) []byte {
	return append(buf, id[:]...)
}

func unpackPlanID(buf []byte) (plancache.PlanID, []byte, error) {
	if len(buf) < len(plancache.PlanID{}) {
		return plancache.PlanID{}, buf, fmt.Errorf("qserverd: short plan id (%d bytes)", len(buf))
	}
	var id plancache.PlanID
	n := copy(id[:], buf)
	return id, buf[n:], nil
}

// statementRef is the tagged union STATEMENT_TYPE/COLUMN_TYPES/
// INPUT_MARKERS/OUTPUT_MARKERS share to address either an ordinary
// statement by its array index or a named prepared statement: a
// four-byte selector (0 = index, 1 = name) followed by the value,
// mirroring wire.Value's own self-describing tag convention.
func unpackStatementRef(buf []byte) (index int, name string, isName bool, rest []byte, err error) {
	tag, rest, err := wire.UnpackInt(buf)
	if err != nil {
		return 0, "", false, nil, fmt.Errorf("qserverd: unpacking statement reference tag: %w", err)
	}
	if tag == 0 {
		var idx int32
		idx, rest, err = wire.UnpackInt(rest)
		if err != nil {
			return 0, "", false, nil, fmt.Errorf("qserverd: unpacking statement index: %w", err)
		}
		return int(idx), "", false, rest, nil
	}
	name, _, rest, err = wire.UnpackString(rest)
	if err != nil {
		return 0, "", false, nil, fmt.Errorf("qserverd: unpacking statement name: %w", err)
	}
	return 0, name, true, rest, nil
}
