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
package wire

import (
	"fmt"
	"strings"

	"github.com/xformerfhs/tupw/internal/tupwerr"
)

// SpellSafeAlphabet is the fixed 32-symbol alphabet of §4.3/§6. It
// excludes the token field separator '1' and the visually ambiguous
// 'I'/'O' pair, and drops the vowel 'U'. It still retains 'A' and 'E',
// so encoded text is not literally vowel-free; see the §9 Open
// Question in SPEC_FULL.md for why this alphabet is kept anyway.
const SpellSafeAlphabet = "023456789ABCDEFGHJKLMNPQRSTVWXYZ"

// FieldSeparator is the single character reserved to join token fields
// when the spell-safe Base32 encoding is in use (format id 6).
const FieldSeparator = '1'

var decodeTable [256]int8

func init() {
	for i := range decodeTable {
		decodeTable[i] = -1
	}
	for i, c := range SpellSafeAlphabet {
		decodeTable[c] = int8(i)
	}
}

// EncodeBase32 encodes data using the spell-safe alphabet with standard
// 8-to-5 bit regrouping and no trailing padding character.
func EncodeBase32(data []byte) string {
	var sb strings.Builder
	sb.Grow((len(data)*8 + 4) / 5)

	var acc uint64
	var bits uint
	for _, b := range data {
		acc = acc<<8 | uint64(b)
		bits += 8
		for bits >= 5 {
			bits -= 5
			idx := (acc >> bits) & 0x1f
			sb.WriteByte(SpellSafeAlphabet[idx])
		}
	}
	if bits > 0 {
		idx := (acc << (5 - bits)) & 0x1f
		sb.WriteByte(SpellSafeAlphabet[idx])
	}
	return sb.String()
}

// DecodeBase32 decodes a spell-safe Base32 string back into bytes.
// Decoding upper-cases input first, so it is tolerant of lowercase.
func DecodeBase32(s string) ([]byte, error) {
	s = strings.ToUpper(s)
	out := make([]byte, 0, len(s)*5/8)

	var acc uint64
	var bits uint
	for i := 0; i < len(s); i++ {
		c := s[i]
		v := decodeTable[c]
		if v < 0 {
			return nil, fmt.Errorf("%w: character %q is not in the spell-safe Base32 alphabet", tupwerr.ErrIllegalArgument, s[i:i+1])
		}
		acc = acc<<5 | uint64(v)
		bits += 5
		if bits >= 8 {
			bits -= 8
			out = append(out, byte(acc>>bits))
		}
	}
	return out, nil
}
