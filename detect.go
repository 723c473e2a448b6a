package gxt

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Detect classifies a stream by its first (up to 8) bytes.
//
// The UTF-16 hashed-key layout is checked before the 8-bit one: both start
// with version 4 followed by TABL and differ only in the bits-per-char
// field, which the mobile release of the 8-bit lineage also sets to 16.
func Detect(header []byte) (Variant, error) {
	if len(header) < 4 {
		return VariantUnknown, &FormatError{Reason: "stream shorter than 4 bytes", Err: ErrUnrecognized}
	}

	version := binary.LittleEndian.Uint16(header[0:])
	bits := binary.LittleEndian.Uint16(header[2:])

	if version == headerVersion && bits == 16 {
		return VariantD, nil
	}

	if version == headerVersion && len(header) >= 8 && bytes.Equal(header[4:8], TagTABL[:]) {
		if bits == 8 {
			return VariantC, nil
		}
		return VariantUnknown, &FormatError{Offset: 2, Reason: "unsupported bits per char", Err: ErrUnrecognized}
	}

	switch {
	case bytes.Equal(header[:4], TagTABL[:]):
		return VariantB, nil
	case bytes.Equal(header[:4], TagTKEY[:]):
		return VariantA, nil
	}
	return VariantUnknown, &FormatError{Reason: fmt.Sprintf("unrecognized header % X", header[:4]), Err: ErrUnrecognized}
}
