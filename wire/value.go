package wire

import "fmt"

// Value tags for the self-describing PackValue/UnpackValue pair
// (spec.md §6 "Value tags"). The tag occupies one word so the payload
// that follows stays word-aligned regardless of tag width.
const (
	TagNull byte = iota
	TagShort
	TagInt
	TagBigint
	TagFloat
	TagDouble
	TagString
	TagBit
	TagOID
)

// PackValue appends a self-describing value: a one-word tag followed by
// the tag-specific payload. v must be one of: nil (NULL), int16, int32,
// int64, float32, float64, string, []byte (BIT), OID.
func PackValue(buf []byte, v interface{}) ([]byte, error) {
	switch t := v.(type) {
	case nil:
		return PackInt(buf, int32(TagNull)), nil
	case int16:
		buf = PackInt(buf, int32(TagShort))
		return PackShort(buf, t), nil
	case int32:
		buf = PackInt(buf, int32(TagInt))
		return PackInt(buf, t), nil
	case int64:
		buf = PackInt(buf, int32(TagBigint))
		return PackBigint(buf, t), nil
	case float32:
		buf = PackInt(buf, int32(TagFloat))
		return PackFloat(buf, t), nil
	case float64:
		buf = PackInt(buf, int32(TagDouble))
		return PackDouble(buf, t), nil
	case string:
		buf = PackInt(buf, int32(TagString))
		return PackString(buf, t, false), nil
	case []byte:
		buf = PackInt(buf, int32(TagBit))
		return PackBit(buf, t, len(t)*8, false), nil
	case OID:
		buf = PackInt(buf, int32(TagOID))
		return PackOID(buf, t), nil
	default:
		return buf, fmt.Errorf("wire: PackValue: unsupported Go type %T", v)
	}
}

// UnpackValue decodes a value packed by PackValue, dispatching on the
// leading tag. An unrecognized tag (a payload from a newer/foreign
// encoder) reports ErrUnknownTag rather than silently misreading bytes.
func UnpackValue(buf []byte) (v interface{}, rest []byte, err error) {
	tagWord, r, err := UnpackInt(buf)
	if err != nil {
		return nil, buf, err
	}
	switch byte(tagWord) {
	case TagNull:
		return nil, r, nil
	case TagShort:
		s, r, err := UnpackShort(r)
		return s, r, err
	case TagInt:
		i, r, err := UnpackInt(r)
		return i, r, err
	case TagBigint:
		i, r, err := UnpackBigint(r)
		return i, r, err
	case TagFloat:
		f, r, err := UnpackFloat(r)
		return f, r, err
	case TagDouble:
		f, r, err := UnpackDouble(r)
		return f, r, err
	case TagString:
		s, isNull, r, err := UnpackString(r)
		if err != nil {
			return nil, buf, err
		}
		if isNull {
			return nil, r, nil
		}
		return s, r, nil
	case TagBit:
		bits, _, isNull, r, err := UnpackBit(r)
		if err != nil {
			return nil, buf, err
		}
		if isNull {
			return nil, r, nil
		}
		return bits, r, nil
	case TagOID:
		o, r, err := UnpackOID(r)
		return o, r, err
	default:
		return nil, buf, &ErrUnknownTag{Tag: byte(tagWord)}
	}
}
