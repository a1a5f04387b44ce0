/*
 *   Copyright 2024 The TUPW Authors
 *
 *  Licensed under the Apache License, Version 2.0 (the "License");
 *  you may not use this file except in compliance with the License.
 *  You may obtain a copy of the License at
 *
 *      http://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing, software
 *  distributed under the License is distributed on an "AS IS" BASIS,
 *  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *  See the License for the specific language governing permissions and
 *  limitations under the License.
 */

// Package wire holds the small codecs of the envelope: the packed
// unsigned integer encoding used inside the blinding header (this file)
// and the spell-safe Base32 text encoding of the token fields
// (base32.go).
package wire

import (
	"fmt"

	"github.com/xformerfhs/tupw/internal/tupwerr"
)

const (
	packedOffset        = 0x40
	packedMaxValue       = 0x40404040 - 1
	packedMaxResultLen  = 4
	packedLengthShift   = 6
	packedNoLengthMask  = 0x3f
)

// EncodePackedUnsignedInt encodes n into 1-4 bytes per §4.4. n must be
// in [0, 1077952575].
func EncodePackedUnsignedInt(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: packed integer must not be negative", tupwerr.ErrIllegalArgument)
	}
	if n > packedMaxValue {
		return nil, fmt.Errorf("%w: packed integer %d too large", tupwerr.ErrIllegalArgument, n)
	}

	var result [packedMaxResultLen]byte
	actIndex := packedMaxResultLen - 1
	intermediate := n
	for intermediate >= packedOffset {
		b := intermediate & 0xff
		intermediate >>= 8
		if b >= packedOffset {
			b -= packedOffset
		} else {
			b += 256 - packedOffset
			intermediate--
		}
		result[actIndex] = byte(b)
		actIndex--
	}

	lengthBits := (packedMaxResultLen - 1) - actIndex
	result[actIndex] = byte(intermediate) | byte(lengthBits<<packedLengthShift)

	if lengthBits == packedMaxResultLen-1 {
		return result[:], nil
	}
	return result[actIndex:], nil
}

// ExpectedPackedLength returns the total encoded length implied by the
// first byte of a packed unsigned integer.
func ExpectedPackedLength(firstByte byte) int {
	return int((firstByte>>packedLengthShift)&0x03) + 1
}

// DecodePackedUnsignedInt decodes a packed unsigned integer occupying
// exactly buf. It fails if buf's length does not match the length
// implied by its first byte.
func DecodePackedUnsignedInt(buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, fmt.Errorf("%w: empty packed integer buffer", tupwerr.ErrIllegalArgument)
	}
	expected := ExpectedPackedLength(buf[0])
	if expected != len(buf) {
		return 0, fmt.Errorf("%w: packed integer length %d does not match expected length %d", tupwerr.ErrIllegalArgument, len(buf), expected)
	}

	result := int(buf[0]) & packedNoLengthMask
	for i := 1; i < expected; i++ {
		result = (result<<8 | int(buf[i])) + packedOffset
	}
	return result, nil
}

// DecodePackedUnsignedIntAt decodes a packed unsigned integer starting
// at startIndex within a larger buffer, returning the value and the
// number of bytes consumed.
func DecodePackedUnsignedIntAt(buf []byte, startIndex int) (int, int, error) {
	if startIndex < 0 || startIndex >= len(buf) {
		return 0, 0, fmt.Errorf("%w: start index %d out of range", tupwerr.ErrIllegalArgument, startIndex)
	}
	expected := ExpectedPackedLength(buf[startIndex])
	if startIndex+expected > len(buf) {
		return 0, 0, fmt.Errorf("%w: buffer too short for packed integer", tupwerr.ErrIllegalArgument)
	}
	v, err := DecodePackedUnsignedInt(buf[startIndex : startIndex+expected])
	if err != nil {
		return 0, 0, err
	}
	return v, expected, nil
}
