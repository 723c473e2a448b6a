package gxt

import (
	"bytes"
	"encoding/binary"
	"sort"
)

// keyBlock is a TKEY payload decoded into parallel arrays.
type keyBlock struct {
	offsets []uint32
	keys    []Key
}

func (kb *keyBlock) Len() int { return len(kb.offsets) }

// parseKeyBlock reinterprets payload as fixed-stride records. A trailing
// partial record is ignored.
func parseKeyBlock(payload []byte, f *format) keyBlock {
	stride := f.keySize
	n := len(payload) / stride

	kb := keyBlock{
		offsets: make([]uint32, n),
		keys:    make([]Key, n),
	}
	for i := range kb.offsets {
		kb.offsets[i] = binary.LittleEndian.Uint32(payload[i*stride:])
	}

	switch f.keys {
	case HashedKeys:
		for i := range kb.keys {
			kb.keys[i] = HashKey(binary.LittleEndian.Uint32(payload[i*stride+4:]))
		}
	default:
		for i := range kb.keys {
			rec := payload[i*stride+4 : (i+1)*stride]
			kb.keys[i] = NamedKey(decodeName(rec))
		}
	}
	return kb
}

// terminatorIndex holds the ascending positions of all null code units in
// a value block, aligned to the code unit width.
type terminatorIndex struct {
	block []byte
	unit  int
	pos   []int
}

func newTerminatorIndex(block []byte, unit int) *terminatorIndex {
	x := &terminatorIndex{block: block, unit: unit}

	if unit == 1 {
		n := bytes.Count(block, []byte{0})
		x.pos = make([]int, 0, n)
		for off := 0; ; {
			i := bytes.IndexByte(block[off:], 0)
			if i < 0 {
				break
			}
			x.pos = append(x.pos, off+i)
			off += i + 1
		}
		return x
	}

	for i := 0; i+1 < len(block); i += 2 {
		if block[i] == 0 && block[i+1] == 0 {
			x.pos = append(x.pos, i)
		}
	}
	return x
}

// end returns the end of the string starting at off: the nearest aligned
// terminator at or after off, or the end of the block.
func (x *terminatorIndex) end(off int) int {
	if x.unit == 2 && off%2 != 0 {
		for i := off; i+1 < len(x.block); i += 2 {
			if x.block[i] == 0 && x.block[i+1] == 0 {
				return i
			}
		}
		return len(x.block)
	}

	if j := sort.SearchInts(x.pos, off); j < len(x.pos) {
		return x.pos[j]
	}
	return len(x.block)
}

// span returns the raw bytes of the value at off. It reports false when
// off lies beyond the block.
func (x *terminatorIndex) span(off uint32) ([]byte, bool) {
	if int64(off) > int64(len(x.block)) {
		return nil, false
	}
	start := int(off)
	return x.block[start:x.end(start)], true
}

// --------------------------------------------------------------------

// valueBlock is an encoded TDAT payload with the offset of every value.
type valueBlock struct {
	buf     []byte
	offsets []uint32
}

// encodeValues concatenates the encoded values, each followed by a null
// code unit, recording the start offset of each.
func encodeValues(dst []byte, values []string, cs *Charset, unit int) (valueBlock, error) {
	vb := valueBlock{buf: dst[:0], offsets: make([]uint32, len(values))}

	var err error
	for i, v := range values {
		vb.offsets[i] = uint32(len(vb.buf))
		if vb.buf, err = cs.appendEncoded(vb.buf, v); err != nil {
			return vb, err
		}
		for j := 0; j < unit; j++ {
			vb.buf = append(vb.buf, 0)
		}
	}
	return vb, nil
}

// appendKeyBlock appends the TKEY records for keys at offsets.
func appendKeyBlock(dst []byte, keys []Key, offsets []uint32, f *format) []byte {
	var rec [12]byte
	for i, k := range keys {
		binary.LittleEndian.PutUint32(rec[0:], offsets[i])
		if f.keys == HashedKeys {
			binary.LittleEndian.PutUint32(rec[4:], k.hash)
		} else {
			putName(rec[4:12], k.name)
		}
		dst = append(dst, rec[:f.keySize]...)
	}
	return dst
}
