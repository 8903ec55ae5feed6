package wire

// PackListIDList appends a count-prefixed sequence of ListIDs, used when
// a single request fans out into several result list files (e.g. a
// UNION plan with one list file per branch).
func PackListIDList(buf []byte, ids []ListID) []byte {
	buf = PackInt(buf, int32(len(ids)))
	for _, id := range ids {
		buf = PackListID(buf, id)
	}
	return buf
}

// UnpackListIDList decodes a value packed by PackListIDList.
func UnpackListIDList(buf []byte) ([]ListID, []byte, error) {
	n, r, err := UnpackInt(buf)
	if err != nil {
		return nil, buf, err
	}
	out := make([]ListID, 0, n)
	for i := int32(0); i < n; i++ {
		var id ListID
		id, r, err = UnpackListID(r)
		if err != nil {
			return nil, buf, err
		}
		out = append(out, id)
	}
	return out, r, nil
}

// MethodSig describes one server-side method callable from a plan (a
// stored-procedure-like hook); only its wire shape is in scope here, not
// invocation, which belongs to the (non-goal) catalog layer.
type MethodSig struct {
	Name     string
	NumArgs  int32
	RealName string
}

// PackMethodSigList appends a count-prefixed sequence of MethodSigs.
func PackMethodSigList(buf []byte, sigs []MethodSig) []byte {
	buf = PackInt(buf, int32(len(sigs)))
	for _, s := range sigs {
		buf = PackString(buf, s.Name, false)
		buf = PackInt(buf, s.NumArgs)
		buf = PackString(buf, s.RealName, false)
	}
	return buf
}

// UnpackMethodSigList decodes a value packed by PackMethodSigList.
func UnpackMethodSigList(buf []byte) ([]MethodSig, []byte, error) {
	n, r, err := UnpackInt(buf)
	if err != nil {
		return nil, buf, err
	}
	out := make([]MethodSig, 0, n)
	for i := int32(0); i < n; i++ {
		var s MethodSig
		var isNull bool
		s.Name, isNull, r, err = UnpackString(r)
		if err != nil {
			return nil, buf, err
		}
		_ = isNull
		s.NumArgs, r, err = UnpackInt(r)
		if err != nil {
			return nil, buf, err
		}
		s.RealName, isNull, r, err = UnpackString(r)
		if err != nil {
			return nil, buf, err
		}
		_ = isNull
		out = append(out, s)
	}
	return out, r, nil
}
