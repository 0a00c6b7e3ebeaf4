// Package crc8 implements the 8-bit integrity check of the acoustic link.
//
// The codec operates on bit sequences rather than bytes: frames on the wire
// are arbitrary-length runs of bits, and the trailer must match the sender
// bit-for-bit. The register is shifted MSB-first with no initial value, no
// reflection, and no final XOR. The default polynomial is 0xD7.
//
// # Usage
//
// Sender side, appending a trailer:
//
//	frame := crc8.Append(payload, crc8.DefaultPoly)
//
// Receiver side, checking a recovered frame:
//
//	ok, computed, received, err := crc8.Verify(frame, crc8.DefaultPoly)
//
// All functions are pure and safe for concurrent use.
package crc8

import (
	"errors"

	sigurn "github.com/sigurn/crc8"
)

// DefaultPoly is the generator polynomial of the link, x^8+x^7+x^6+x^4+x^2+x+1.
const DefaultPoly uint8 = 0xD7

// trailerBits is the width of the checksum trailer.
const trailerBits = 8

// ErrShortFrame is returned by Verify when the frame cannot hold a trailer.
var ErrShortFrame = errors.New("crc8: frame shorter than checksum trailer")

// Compute returns the checksum of bits under poly.
//
// The first bit of the sequence enters the register at bit 7. An empty
// sequence yields 0 (the identity of the zero-initialized register); the
// caller decides what an empty sequence means.
func Compute(bits []bool, poly uint8) uint8 {
	var crc uint8
	for _, bit := range bits {
		if bit {
			crc ^= 0x80
		}
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ poly
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// ComputeBytes returns the conventional byte-oriented checksum of data under
// poly, via a lookup table.
//
// This is not the packed-byte form of Compute. The bit codec cycles the
// register through all eight rounds for every single bit, so the two agree
// only when each bit is widened to its own byte with the bit at position 7.
// Use ComputeBytes when the peer computes a standard byte CRC; use Compute
// for the link's bit-stream trailer.
func ComputeBytes(data []byte, poly uint8) uint8 {
	table := sigurn.MakeTable(sigurn.Params{Poly: poly, Name: "CRC-8/LINK"})
	return sigurn.Checksum(data, table)
}

// Append returns a new sequence of payload followed by its 8-bit trailer,
// most significant checksum bit first.
func Append(payload []bool, poly uint8) []bool {
	crc := Compute(payload, poly)
	frame := make([]bool, len(payload), len(payload)+trailerBits)
	copy(frame, payload)
	for i := 0; i < trailerBits; i++ {
		frame = append(frame, crc&(0x80>>i) != 0)
	}
	return frame
}

// Verify splits frame into payload and trailer and checks them against each
// other. Both the computed and the received byte are always returned so
// callers can log the pair on mismatch.
func Verify(frame []bool, poly uint8) (ok bool, computed, received uint8, err error) {
	if len(frame) < trailerBits {
		return false, 0, 0, ErrShortFrame
	}
	split := len(frame) - trailerBits
	for i, bit := range frame[split:] {
		if bit {
			received |= 0x80 >> i
		}
	}
	computed = Compute(frame[:split], poly)
	return computed == received, computed, received, nil
}
