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

// Package envelope implements the authenticated encryption envelope of
// §4.5-§4.9: blinding, padding, subject-dependent key derivation and the
// top-level encrypt/decrypt operations that combine them.
package envelope

import (
	"fmt"
	"io"

	"github.com/xformerfhs/tupw/internal/tupwerr"
	"github.com/xformerfhs/tupw/internal/wire"
)

// blind implements §4.5: it prepends/appends random bytes around P so
// that the total length is at least minTotal, hiding the true plaintext
// length from anyone who only sees the ciphertext length. prefixLen and
// suffixLen always sum to exactly the shortfall needed to reach
// minTotal (never more), so every plaintext short enough to need
// blinding floors to the identical total length; only their split is
// drawn pseudorandomly.
func blind(secureRandom io.Reader, p []byte, minTotal int) ([]byte, error) {
	packedLen, err := wire.EncodePackedUnsignedInt(len(p))
	if err != nil {
		return nil, err
	}

	fixedLen := 2 + len(packedLen) + len(p)
	needed := minTotal - fixedLen
	if needed < 0 {
		needed = 0
	}

	prefixLen, suffixLen, err := splitBlindingLengths(secureRandom, needed)
	if err != nil {
		return nil, err
	}

	prefix := make([]byte, prefixLen)
	if _, err := io.ReadFull(secureRandom, prefix); err != nil {
		return nil, fmt.Errorf("%w: could not draw blinding prefix: %v", tupwerr.ErrCryptographicInvariant, err)
	}
	suffix := make([]byte, suffixLen)
	if _, err := io.ReadFull(secureRandom, suffix); err != nil {
		return nil, fmt.Errorf("%w: could not draw blinding suffix: %v", tupwerr.ErrCryptographicInvariant, err)
	}

	out := make([]byte, 0, fixedLen+int(prefixLen)+int(suffixLen))
	out = append(out, byte(prefixLen), byte(suffixLen))
	out = append(out, packedLen...)
	out = append(out, prefix...)
	out = append(out, p...)
	out = append(out, suffix...)
	return out, nil
}

// splitBlindingLengths picks prefixLen and suffixLen, each in [0, 255],
// that sum to exactly needed, splitting needed pseudorandomly between
// the two. needed itself must fit in the two bytes combined.
func splitBlindingLengths(secureRandom io.Reader, needed int) (int, int, error) {
	if needed > 255*2 {
		return 0, 0, fmt.Errorf("%w: blinding shortfall %d cannot be split across two bytes", tupwerr.ErrCryptographicInvariant, needed)
	}

	lo := needed - 255
	if lo < 0 {
		lo = 0
	}
	hi := needed
	if hi > 255 {
		hi = 255
	}
	span := hi - lo + 1

	r, err := randomByte(secureRandom)
	if err != nil {
		return 0, 0, err
	}
	prefixLen := lo + int(r)%span
	suffixLen := needed - prefixLen
	return prefixLen, suffixLen, nil
}

// unblind reverses blind, validating the embedded header against the
// buffer's actual length.
func unblind(buf []byte) ([]byte, error) {
	if len(buf) < 3 {
		return nil, fmt.Errorf("%w: blinded buffer too short for header", tupwerr.ErrIllegalArgument)
	}
	prefixLen := int(buf[0])
	suffixLen := int(buf[1])

	plainLen, packedLen, err := wire.DecodePackedUnsignedIntAt(buf, 2)
	if err != nil {
		return nil, err
	}

	headerLen := 2 + packedLen
	total := headerLen + prefixLen + plainLen + suffixLen
	// buf may carry trailing random padding bytes appended after
	// blinding (§4.6, random padding); only a buffer shorter than the
	// header implies is an inconsistency.
	if total > len(buf) {
		return nil, fmt.Errorf("%w: blinded buffer length %d is shorter than header-implied length %d", tupwerr.ErrIllegalArgument, len(buf), total)
	}

	start := headerLen + prefixLen
	return buf[start : start+plainLen], nil
}

func randomByte(secureRandom io.Reader) (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(secureRandom, b[:]); err != nil {
		return 0, fmt.Errorf("%w: could not draw random byte: %v", tupwerr.ErrCryptographicInvariant, err)
	}
	return b[0], nil
}
