// Package collection implements the collection codec: encoding and
// decoding one typed collection (12-byte header + length-prefixed
// payload) within a chunk.
//
// Grounded on the section package's header Parse/Bytes pattern
// (fixed-layout binary.BigEndian field access) and on
// lib/cmp_icu_new.c's per-sample encode loop.
package collection

import (
	"encoding/binary"

	"github.com/platocmp/cmp/cmperrs"
	"github.com/platocmp/cmp/endian"
)

// HeaderSize is the fixed 12-byte collection header: timestamp(6) +
// configuration id(2) + packet type(1) + subservice(1) + CCD id(1) +
// sequence(1).
const HeaderSize = 12

// LengthSlotSize is the 2-byte payload-length prefix that follows the
// header.
const LengthSlotSize = 2

// MaxPayloadSize is the largest encoded payload a collection can carry,
// bounded by the 2-byte length prefix.
const MaxPayloadSize = 1<<16 - 1

// PacketTypeScience is the packet type of a science collection. PutHeader
// and ParseHeader copy the header's packet-type byte as given; neither
// checks it against this value.
const PacketTypeScience = 0x04

// Header is the fixed-layout 12-byte collection header.
type Header struct {
	// Timestamp is a 48-bit value; only the low 48 bits are significant.
	Timestamp  uint64
	ConfigID   uint16
	PacketType uint8
	Subservice uint8
	CCDID      uint8
	Sequence   uint8
}

var be = endian.GetBigEndianEngine()

// PutHeader writes h's 12-byte big-endian encoding into dst[off:] and
// returns off+HeaderSize. dst must have at least off+HeaderSize bytes.
func PutHeader(dst []byte, off int, h Header) (int, error) {
	if len(dst) < off+HeaderSize {
		return off, cmperrs.ErrSmallBuf
	}

	put48(dst[off:off+6], h.Timestamp)
	be.PutUint16(dst[off+6:off+8], h.ConfigID)
	dst[off+8] = h.PacketType
	dst[off+9] = h.Subservice
	dst[off+10] = h.CCDID
	dst[off+11] = h.Sequence

	return off + HeaderSize, nil
}

// ParseHeader reads a 12-byte collection header from src[off:].
func ParseHeader(src []byte, off int) (Header, int, error) {
	if len(src) < off+HeaderSize {
		return Header{}, off, cmperrs.ErrColSizeInconsistent
	}

	h := Header{
		Timestamp:  get48(src[off : off+6]),
		ConfigID:   be.Uint16(src[off+6 : off+8]),
		PacketType: src[off+8],
		Subservice: src[off+9],
		CCDID:      src[off+10],
		Sequence:   src[off+11],
	}

	return h, off + HeaderSize, nil
}

func put48(dst []byte, v uint64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v<<16)
	copy(dst, tmp[:6])
}

func get48(src []byte) uint64 {
	var tmp [8]byte
	copy(tmp[2:], src[:6])

	return binary.BigEndian.Uint64(tmp[:])
}
