package wire

// PackString appends a length-prefixed string. A nil string (vs. an
// empty one) packs as length -1, per spec.md §4.1 ("NULL string -> length
// -1"); callers distinguish NULL from "" by passing isNull explicitly.
// The payload carries an explicit trailing NUL byte (CUBRID's C-string
// wire convention) before word padding, so the total encoded size is
// 4 (length) + ceil(len(s)+1, 4), per spec.md §4.1's literal formula --
// not just ceil(len(s), 4).
func PackString(buf []byte, s string, isNull bool) []byte {
	if isNull {
		return PackInt(buf, -1)
	}
	buf = PackInt(buf, int32(len(s)))
	payload := make([]byte, len(s)+1) // +1: trailing NUL, zero-valued by make
	copy(payload, s)
	return appendPadded(buf, payload)
}

// UnpackString decodes a value packed by PackString, cloning the bytes.
func UnpackString(buf []byte) (s string, isNull bool, rest []byte, err error) {
	raw, null, rest, err := unpackStringBytes(buf)
	if err != nil {
		return "", false, buf, err
	}
	if null {
		return "", true, rest, nil
	}
	return string(raw), false, rest, nil
}

// UnpackStringNocopy decodes like UnpackString but the returned byte
// slice aliases buf rather than being cloned.
func UnpackStringNocopy(buf []byte) (s []byte, isNull bool, rest []byte, err error) {
	return unpackStringBytes(buf)
}

func unpackStringBytes(buf []byte) (s []byte, isNull bool, rest []byte, err error) {
	n, r, err := UnpackInt(buf)
	if err != nil {
		return nil, false, buf, err
	}
	if n < 0 {
		return nil, true, r, nil
	}
	length := int(n)
	// consumed covers length data bytes, the trailing NUL PackString
	// wrote, and word padding -- align4(length+1), not align4(length).
	consumed := align4(length + 1)
	if err = need(r, consumed); err != nil {
		return nil, false, buf, err
	}
	return r[:length], false, r[consumed:], nil
}

// PackBit appends a length-prefixed bit string, measured in bits (the
// byte payload is ceil(nbits/8) bytes, word-padded). Unlike PackString,
// there is no trailing NUL -- BIT/VARBIT are raw bit data, not C
// strings, so spec.md §4.1's len+1 formula doesn't apply here.
func PackBit(buf []byte, bits []byte, nbits int, isNull bool) []byte {
	if isNull {
		return PackInt(buf, -1)
	}
	buf = PackInt(buf, int32(nbits))
	return appendPadded(buf, bits)
}

// UnpackBit decodes a value packed by PackBit, cloning the bit payload.
func UnpackBit(buf []byte) (bits []byte, nbits int, isNull bool, rest []byte, err error) {
	raw, n, null, rest, err := unpackBitBytes(buf)
	if err != nil {
		return nil, 0, false, buf, err
	}
	if null {
		return nil, 0, true, rest, nil
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	return out, n, false, rest, nil
}

// UnpackBitNocopy decodes like UnpackBit but aliases buf.
func UnpackBitNocopy(buf []byte) (bits []byte, nbits int, isNull bool, rest []byte, err error) {
	return unpackBitBytes(buf)
}

func unpackBitBytes(buf []byte) (bits []byte, nbits int, isNull bool, rest []byte, err error) {
	n, r, err := UnpackInt(buf)
	if err != nil {
		return nil, 0, false, buf, err
	}
	if n < 0 {
		return nil, 0, true, r, nil
	}
	nbits = int(n)
	nbytes := (nbits + 7) / 8
	if err = need(r, nbytes); err != nil {
		return nil, 0, false, buf, err
	}
	consumed := align4(nbytes)
	if err = need(r, consumed); err != nil {
		return nil, 0, false, buf, err
	}
	return r[:nbytes], nbits, false, r[consumed:], nil
}
