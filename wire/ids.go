package wire

// OID identifies one object/row instance: {volume, page, slot}.
type OID struct {
	Volid  int16
	Pageid int32
	Slotid int16
}

// PackOID appends an OID as three words: pageid, then volid, then
// slotid.
func PackOID(buf []byte, o OID) []byte {
	buf = PackInt(buf, o.Pageid)
	buf = PackShort(buf, o.Volid)
	return PackShort(buf, o.Slotid)
}

// UnpackOID decodes a value packed by PackOID.
func UnpackOID(buf []byte) (OID, []byte, error) {
	pageid, r, err := UnpackInt(buf)
	if err != nil {
		return OID{}, buf, err
	}
	volid, r, err := UnpackShort(r)
	if err != nil {
		return OID{}, buf, err
	}
	slotid, r, err := UnpackShort(r)
	if err != nil {
		return OID{}, buf, err
	}
	return OID{Volid: volid, Pageid: pageid, Slotid: slotid}, r, nil
}

// LSA is a log sequence address: {pageid, offset}.
type LSA struct {
	Pageid int64
	Offset int16
}

// PackLSA appends an LSA.
func PackLSA(buf []byte, l LSA) []byte {
	buf = PackBigint(buf, l.Pageid)
	return PackShort(buf, l.Offset)
}

// UnpackLSA decodes a value packed by PackLSA.
func UnpackLSA(buf []byte) (LSA, []byte, error) {
	pageid, r, err := UnpackBigint(buf)
	if err != nil {
		return LSA{}, buf, err
	}
	offset, r, err := UnpackShort(r)
	if err != nil {
		return LSA{}, buf, err
	}
	return LSA{Pageid: pageid, Offset: offset}, r, nil
}

// VFID identifies a file: {fileid, volid}.
type VFID struct {
	Fileid int32
	Volid  int16
}

func packVFID(buf []byte, v VFID) []byte {
	buf = PackInt(buf, v.Fileid)
	return PackShort(buf, v.Volid)
}

func unpackVFID(buf []byte) (VFID, []byte, error) {
	fileid, r, err := UnpackInt(buf)
	if err != nil {
		return VFID{}, buf, err
	}
	volid, r, err := UnpackShort(r)
	if err != nil {
		return VFID{}, buf, err
	}
	return VFID{Fileid: fileid, Volid: volid}, r, nil
}

// HFID identifies a heap file: {file, header page}.
type HFID struct {
	Vfid     VFID
	HpageID  int32
}

// PackHFID appends an HFID.
func PackHFID(buf []byte, h HFID) []byte {
	buf = packVFID(buf, h.Vfid)
	return PackInt(buf, h.HpageID)
}

// UnpackHFID decodes a value packed by PackHFID.
func UnpackHFID(buf []byte) (HFID, []byte, error) {
	vfid, r, err := unpackVFID(buf)
	if err != nil {
		return HFID{}, buf, err
	}
	hpage, r, err := UnpackInt(r)
	if err != nil {
		return HFID{}, buf, err
	}
	return HFID{Vfid: vfid, HpageID: hpage}, r, nil
}

// BTID identifies a B-tree index: {file, root page}.
type BTID struct {
	Vfid   VFID
	RootID int32
}

// PackBTID appends a BTID.
func PackBTID(buf []byte, b BTID) []byte {
	buf = packVFID(buf, b.Vfid)
	return PackInt(buf, b.RootID)
}

// UnpackBTID decodes a value packed by PackBTID.
func UnpackBTID(buf []byte) (BTID, []byte, error) {
	vfid, r, err := unpackVFID(buf)
	if err != nil {
		return BTID{}, buf, err
	}
	root, r, err := UnpackInt(r)
	if err != nil {
		return BTID{}, buf, err
	}
	return BTID{Vfid: vfid, RootID: root}, r, nil
}

// Domain is the wire-level type descriptor: a type tag plus the
// precision/scale/length parameters the expr.Domain type also carries,
// so a prepared statement's column metadata can cross the wire.
type Domain struct {
	Tag    byte
	Prec   int16
	Scale  int16
	Length int32
}

// PackDomain appends a Domain descriptor.
func PackDomain(buf []byte, d Domain) []byte {
	var hdr [4]byte
	hdr[0] = d.Tag
	buf = append(buf, hdr[:]...)
	buf = PackShort(buf, d.Prec)
	buf = PackShort(buf, d.Scale)
	return PackInt(buf, d.Length)
}

// UnpackDomain decodes a value packed by PackDomain.
func UnpackDomain(buf []byte) (Domain, []byte, error) {
	if err := need(buf, 4); err != nil {
		return Domain{}, buf, err
	}
	tag := buf[0]
	r := buf[4:]
	prec, r, err := UnpackShort(r)
	if err != nil {
		return Domain{}, buf, err
	}
	scale, r, err := UnpackShort(r)
	if err != nil {
		return Domain{}, buf, err
	}
	length, r, err := UnpackInt(r)
	if err != nil {
		return Domain{}, buf, err
	}
	return Domain{Tag: tag, Prec: prec, Scale: scale, Length: length}, r, nil
}

// ListID identifies a query result list file (QFILE_LIST_ID): the heap
// file backing it plus the first page's address, enough to resume a
// fetch (spec.md §4.7's GetListFilePage reads through one of these).
type ListID struct {
	QueryID  int64
	Hfid     HFID
	FirstLSA LSA
}

// PackListID appends a ListID.
func PackListID(buf []byte, l ListID) []byte {
	buf = PackBigint(buf, l.QueryID)
	buf = PackHFID(buf, l.Hfid)
	return PackLSA(buf, l.FirstLSA)
}

// UnpackListID decodes a value packed by PackListID.
func UnpackListID(buf []byte) (ListID, []byte, error) {
	qid, r, err := UnpackBigint(buf)
	if err != nil {
		return ListID{}, buf, err
	}
	hfid, r, err := UnpackHFID(r)
	if err != nil {
		return ListID{}, buf, err
	}
	lsa, r, err := UnpackLSA(r)
	if err != nil {
		return ListID{}, buf, err
	}
	return ListID{QueryID: qid, Hfid: hfid, FirstLSA: lsa}, r, nil
}

// XASLID is the content address of one cached query plan: a 16-byte
// cache key plus a cache-invalidation timestamp. It is not the wire form
// of plancache.PlanID, which is 32 bytes wide.
type XASLID struct {
	Key   [16]byte
	Tsec  int64
}

// PackXASLID appends an XASLID.
func PackXASLID(buf []byte, x XASLID) []byte {
	buf = appendPadded(buf, x.Key[:])
	return PackBigint(buf, x.Tsec)
}

// UnpackXASLID decodes a value packed by PackXASLID.
func UnpackXASLID(buf []byte) (XASLID, []byte, error) {
	if err := need(buf, 16); err != nil {
		return XASLID{}, buf, err
	}
	var x XASLID
	copy(x.Key[:], buf[:16])
	r := buf[align4(16):]
	tsec, r, err := UnpackBigint(r)
	if err != nil {
		return XASLID{}, buf, err
	}
	x.Tsec = tsec
	return x, r, nil
}

// CacheTime is the client's last-known plan cache timestamp, used for
// the cache-time short-circuit (spec.md §4.7: a query whose CacheTime
// still matches the server's skips re-sending the result metadata).
type CacheTime struct {
	Sec  int64
	Usec int32
}

// PackCacheTime appends a CacheTime.
func PackCacheTime(buf []byte, c CacheTime) []byte {
	buf = PackBigint(buf, c.Sec)
	return PackInt(buf, c.Usec)
}

// UnpackCacheTime decodes a value packed by PackCacheTime.
func UnpackCacheTime(buf []byte) (CacheTime, []byte, error) {
	sec, r, err := UnpackBigint(buf)
	if err != nil {
		return CacheTime{}, buf, err
	}
	usec, r, err := UnpackInt(r)
	if err != nil {
		return CacheTime{}, buf, err
	}
	return CacheTime{Sec: sec, Usec: usec}, r, nil
}
