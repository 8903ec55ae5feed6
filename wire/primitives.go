package wire

import (
	"encoding/binary"
	"math"
	"math/big"
)

// PackShort appends a SMALLINT (16-bit, sign-extended into the low 16
// bits of one word).
func PackShort(buf []byte, v int16) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], uint32(uint16(v)))
	return append(buf, tmp[:]...)
}

// UnpackShort decodes a value packed by PackShort.
func UnpackShort(buf []byte) (int16, []byte, error) {
	if err := need(buf, 4); err != nil {
		return 0, buf, err
	}
	v := int16(binary.BigEndian.Uint32(buf[:4]))
	return v, buf[4:], nil
}

// PackInt appends an INTEGER (32-bit).
func PackInt(buf []byte, v int32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], uint32(v))
	return append(buf, tmp[:]...)
}

// UnpackInt decodes a value packed by PackInt.
func UnpackInt(buf []byte) (int32, []byte, error) {
	if err := need(buf, 4); err != nil {
		return 0, buf, err
	}
	v := int32(binary.BigEndian.Uint32(buf[:4]))
	return v, buf[4:], nil
}

// PackBigint appends a BIGINT (64-bit, one extra word over INTEGER).
func PackBigint(buf []byte, v int64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(v))
	return append(buf, tmp[:]...)
}

// UnpackBigint decodes a value packed by PackBigint.
func UnpackBigint(buf []byte) (int64, []byte, error) {
	if err := need(buf, 8); err != nil {
		return 0, buf, err
	}
	v := int64(binary.BigEndian.Uint64(buf[:8]))
	return v, buf[8:], nil
}

// PackFloat appends a FLOAT (IEEE-754 single precision).
func PackFloat(buf []byte, v float32) []byte {
	return PackInt(buf, int32(math.Float32bits(v)))
}

// UnpackFloat decodes a value packed by PackFloat.
func UnpackFloat(buf []byte) (float32, []byte, error) {
	bits, rest, err := UnpackInt(buf)
	if err != nil {
		return 0, buf, err
	}
	return math.Float32frombits(uint32(bits)), rest, nil
}

// PackDouble appends a DOUBLE (IEEE-754 double precision).
func PackDouble(buf []byte, v float64) []byte {
	return PackBigint(buf, int64(math.Float64bits(v)))
}

// UnpackDouble decodes a value packed by PackDouble.
func UnpackDouble(buf []byte) (float64, []byte, error) {
	bits, rest, err := UnpackBigint(buf)
	if err != nil {
		return 0, buf, err
	}
	return math.Float64frombits(uint64(bits)), rest, nil
}

// PackMonetary appends a MONETARY value: a DOUBLE amount followed by a
// one-word currency code (mirrors the original DB_MONETARY's {amount,
// type} pair).
func PackMonetary(buf []byte, amount float64, currency int32) []byte {
	buf = PackDouble(buf, amount)
	return PackInt(buf, currency)
}

// UnpackMonetary decodes a value packed by PackMonetary.
func UnpackMonetary(buf []byte) (amount float64, currency int32, rest []byte, err error) {
	amount, rest, err = UnpackDouble(buf)
	if err != nil {
		return 0, 0, buf, err
	}
	currency, rest, err = UnpackInt(rest)
	return amount, currency, rest, err
}

// PackDate appends a DATE as days-since-epoch (INTEGER-width).
func PackDate(buf []byte, days int32) []byte { return PackInt(buf, days) }

// UnpackDate decodes a value packed by PackDate.
func UnpackDate(buf []byte) (int32, []byte, error) { return UnpackInt(buf) }

// PackTime appends a TIME as seconds-since-midnight (INTEGER-width).
func PackTime(buf []byte, secs int32) []byte { return PackInt(buf, secs) }

// UnpackTime decodes a value packed by PackTime.
func UnpackTime(buf []byte) (int32, []byte, error) { return UnpackInt(buf) }

// PackTimestamp appends a TIMESTAMP as seconds-since-epoch (BIGINT-width,
// so it remains valid past the 32-bit Unix rollover).
func PackTimestamp(buf []byte, secs int64) []byte { return PackBigint(buf, secs) }

// UnpackTimestamp decodes a value packed by PackTimestamp.
func UnpackTimestamp(buf []byte) (int64, []byte, error) { return UnpackBigint(buf) }

// PackDatetime appends a DATETIME as milliseconds-since-epoch.
func PackDatetime(buf []byte, millis int64) []byte { return PackBigint(buf, millis) }

// UnpackDatetime decodes a value packed by PackDatetime.
func UnpackDatetime(buf []byte) (int64, []byte, error) { return UnpackBigint(buf) }

// PackNumeric appends a NUMERIC(prec,scale) value: precision and scale
// (one byte each, packed into a word) followed by the length-prefixed
// big-endian magnitude bytes of the unscaled integer, with its sign
// carried in the top bit of the length word.
func PackNumeric(buf []byte, prec, scale int, unscaled *big.Int) []byte {
	var hdr [4]byte
	hdr[0] = byte(prec)
	hdr[1] = byte(scale)
	buf = append(buf, hdr[:]...)
	raw := unscaled.Bytes()
	neg := unscaled.Sign() < 0
	buf = PackInt(buf, int32(len(raw)))
	if neg {
		buf[len(buf)-4] |= 0x80 // sign flag stowed in the top bit of the length word
	}
	return appendPadded(buf, raw)
}

// UnpackNumeric decodes a value packed by PackNumeric.
func UnpackNumeric(buf []byte) (prec, scale int, unscaled *big.Int, rest []byte, err error) {
	if err = need(buf, 8); err != nil {
		return 0, 0, nil, buf, err
	}
	prec = int(buf[0])
	scale = int(buf[1])
	lenWord, r, err := UnpackInt(buf[4:])
	if err != nil {
		return 0, 0, nil, buf, err
	}
	neg := uint32(lenWord)&(1<<31) != 0
	n := int(uint32(lenWord) &^ (1 << 31))
	if err = need(r, n); err != nil {
		return 0, 0, nil, buf, err
	}
	unscaled = new(big.Int).SetBytes(r[:n])
	if neg {
		unscaled.Neg(unscaled)
	}
	consumed := align4(n)
	if err = need(r, consumed); err != nil {
		return 0, 0, nil, buf, err
	}
	return prec, scale, unscaled, r[consumed:], nil
}
