// Package phy expands the compact physics header newer models ship
// with into the 20 byte IVPS header the version 54 runtime expects.
// The solid data after the header is byte-identical between the two
// layouts; only the header grows and the keyvalues offset shifts by
// the size difference.
package phy

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// compactHeader leads a v19 physics file.
type compactHeader struct {
	Version         uint16
	KeyValuesOffset uint16
}

// ivpsHeader leads a v10 physics file.
type ivpsHeader struct {
	Size            int32 // header size, always 20
	ID              int32
	SolidCount      int32
	Checksum        int32 // matches the owning model's checksum
	KeyValuesOffset int32
}

// Convert rewrites a v19 physics file as v10. checksum is the owning
// model's header checksum; the runtime cross-checks the two files
// through it.
func Convert(data []byte, checksum int32) ([]byte, error) {
	var src compactHeader
	if len(data) < binary.Size(src) {
		return nil, errors.Errorf("phy: %d byte file is no physics blob", len(data))
	}
	if _, err := binary.Decode(data, binary.LittleEndian, &src); err != nil {
		return nil, errors.Wrap(err, "phy: header")
	}

	hdr := ivpsHeader{
		Size:            20,
		ID:              1,
		SolidCount:      1,
		Checksum:        checksum,
		KeyValuesOffset: int32(src.KeyValuesOffset) + 16,
	}

	out := make([]byte, 20+len(data)-4)
	if _, err := binary.Encode(out, binary.LittleEndian, &hdr); err != nil {
		return nil, errors.Wrap(err, "phy: header")
	}
	copy(out[20:], data[4:])
	return out, nil
}
