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
package envelope

import (
	"fmt"
	"io"

	"github.com/xformerfhs/tupw/internal/tupwerr"
)

// padRandom implements the current (formats 3-6) padding variant of
// §4.6: append uniformly random bytes up to the next block boundary,
// always appending at least one byte so a full block is added when the
// input is already aligned. Removal is implicit: the blinding header
// carries the true length.
func padRandom(secureRandom io.Reader, data []byte, blockSize int) ([]byte, error) {
	n := blockSize - len(data)%blockSize
	padding := make([]byte, n)
	if _, err := io.ReadFull(secureRandom, padding); err != nil {
		return nil, fmt.Errorf("%w: could not draw random padding: %v", tupwerr.ErrCryptographicInvariant, err)
	}
	return append(data, padding...), nil
}

// padArbitraryTail implements the legacy (formats 1-2) padding variant
// of §4.6: pick a random byte value and repeat it to the next block
// boundary. Decryption only needs unpadArbitraryTail; this function is
// called only by tests, to build legacy tokens. Encryption never
// produces this padding.
func padArbitraryTail(secureRandom io.Reader, data []byte, blockSize int) ([]byte, error) {
	v, err := randomByte(secureRandom)
	if err != nil {
		return nil, err
	}
	n := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+n)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = v
	}
	return padded, nil
}

// unpadArbitraryTail strips every contiguous trailing occurrence of the
// final byte value.
func unpadArbitraryTail(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: cannot unpad an empty buffer", tupwerr.ErrIllegalArgument)
	}
	v := data[len(data)-1]
	end := len(data)
	for end > 0 && data[end-1] == v {
		end--
	}
	return data[:end], nil
}
