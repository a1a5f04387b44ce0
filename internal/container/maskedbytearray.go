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

// Package container implements the masked byte container: an in-memory
// store that shuffles and XOR-masks a byte array so that it does not
// appear contiguously in a casual process memory dump. It is defense in
// depth, not a cryptographic barrier; see SPEC_FULL.md §9 for the
// rationale.
package container

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/xformerfhs/tupw/internal/tupwerr"
)

const (
	indexBlockSize      = 50
	maxSourceArrayLen   = (1<<31 - 1) / indexBlockSize * indexBlockSize
	sentinelStartIndex  = -97
	sentinelLengthIndex = -3
)

// MaskedByteArray is the masked byte container of §4.1. It is valid from
// construction until Destroy, at which point every buffer is zeroed and
// all accessors fail with tupwerr.ErrDestroyed.
//
// MaskedByteArray has no lock of its own and its methods are not safe
// for concurrent use; Engine accesses its containers only while
// holding the engine mutex.
type MaskedByteArray struct {
	data        []byte
	index       []int32
	maskedStart int32
	maskedLen   int32
	maskGen     *maskGenerator
	valid       bool
	hashValid   bool
	hash        int32
}

// NewMaskedByteArray copies length bytes of source starting at offset
// into a scatter-masked backing store, drawing all randomness from
// secureRandom.
func NewMaskedByteArray(secureRandom io.Reader, source []byte, offset, length int) (*MaskedByteArray, error) {
	if offset < 0 || length < 0 {
		return nil, fmt.Errorf("%w: offset and length must not be negative", tupwerr.ErrIllegalArgument)
	}
	if length > maxSourceArrayLen {
		return nil, fmt.Errorf("%w: length %d exceeds maximum masked array length %d", tupwerr.ErrIllegalArgument, length, maxSourceArrayLen)
	}
	if len(source) < offset+length {
		return nil, fmt.Errorf("%w: source array shorter than offset+length", tupwerr.ErrIllegalArgument)
	}

	storeLength := length + (indexBlockSize - length%indexBlockSize)

	maskGen, err := newMaskGenerator(secureRandom)
	if err != nil {
		return nil, fmt.Errorf("%w: could not seed mask generator: %v", tupwerr.ErrCryptographicInvariant, err)
	}

	data := make([]byte, storeLength)
	if _, err := io.ReadFull(secureRandom, data); err != nil {
		return nil, fmt.Errorf("%w: could not fill backing store: %v", tupwerr.ErrCryptographicInvariant, err)
	}

	permutation, err := shuffledPermutation(secureRandom, storeLength)
	if err != nil {
		return nil, err
	}

	index := make([]int32, storeLength)
	for i, p := range permutation {
		index[i] = int32(p) ^ int32(maskGen.intMask(int64(i)))
	}

	startOffset, err := randomInRange(secureRandom, storeLength-length+1)
	if err != nil {
		return nil, err
	}

	m := &MaskedByteArray{
		data:    data,
		index:   index,
		maskGen: maskGen,
		valid:   true,
	}
	m.maskedStart = int32(startOffset) ^ int32(maskGen.intMask(sentinelStartIndex))
	m.maskedLen = int32(length) ^ int32(maskGen.intMask(sentinelLengthIndex))

	for i := 0; i < length; i++ {
		physical := m.physicalIndex(startOffset + i)
		data[physical] = source[offset+i] ^ maskGen.byteMask(int64(i))
	}

	return m, nil
}

func (m *MaskedByteArray) startOffset() int {
	return int(m.maskedStart ^ int32(m.maskGen.intMask(sentinelStartIndex)))
}

// Len returns the logical length of the stored payload.
func (m *MaskedByteArray) Len() int {
	return int(m.maskedLen ^ int32(m.maskGen.intMask(sentinelLengthIndex)))
}

func (m *MaskedByteArray) physicalIndex(shuffledPosition int) int {
	masked := m.index[shuffledPosition]
	return int(masked ^ int32(m.maskGen.intMask(int64(shuffledPosition))))
}

// IsValid reports whether the container has not yet been destroyed.
func (m *MaskedByteArray) IsValid() bool {
	return m.valid
}

func (m *MaskedByteArray) checkAccessible(i, length int) error {
	if !m.valid {
		return fmt.Errorf("%w: masked byte array", tupwerr.ErrDestroyed)
	}
	if i < 0 || i >= length {
		return fmt.Errorf("%w: index %d not in [0,%d)", tupwerr.ErrOutOfBounds, i, length)
	}
	return nil
}

// GetAt returns the unmasked byte at logical index i.
func (m *MaskedByteArray) GetAt(i int) (byte, error) {
	if !m.valid {
		return 0, fmt.Errorf("%w: masked byte array", tupwerr.ErrDestroyed)
	}
	length := m.Len()
	if err := m.checkAccessible(i, length); err != nil {
		return 0, err
	}
	physical := m.physicalIndex(m.startOffset() + i)
	return m.data[physical] ^ m.maskGen.byteMask(int64(i)), nil
}

// SetAt overwrites the byte at logical index i.
func (m *MaskedByteArray) SetAt(i int, b byte) error {
	if !m.valid {
		return fmt.Errorf("%w: masked byte array", tupwerr.ErrDestroyed)
	}
	length := m.Len()
	if err := m.checkAccessible(i, length); err != nil {
		return err
	}
	physical := m.physicalIndex(m.startOffset() + i)
	m.data[physical] = b ^ m.maskGen.byteMask(int64(i))
	m.hashValid = false
	return nil
}

// GetData returns a freshly allocated plaintext copy of the stored
// payload. The caller owns the returned slice and is responsible for
// zeroing it once done.
func (m *MaskedByteArray) GetData() ([]byte, error) {
	if !m.valid {
		return nil, fmt.Errorf("%w: masked byte array", tupwerr.ErrDestroyed)
	}
	length := m.Len()
	out := make([]byte, length)
	for i := 0; i < length; i++ {
		b, err := m.GetAt(i)
		if err != nil {
			Zero(out)
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

// Equals compares the underlying plaintexts of two containers in
// constant time; both temporary plaintext copies are zeroed before
// return.
func (m *MaskedByteArray) Equals(other *MaskedByteArray) (bool, error) {
	a, err := m.GetData()
	if err != nil {
		return false, err
	}
	defer Zero(a)
	b, err := other.GetData()
	if err != nil {
		return false, err
	}
	defer Zero(b)
	return ConstantTimeCompare(a, b), nil
}

// HashCode lazily recomputes a content hash after any mutation, mirroring
// the source container's cached hashCode semantics.
func (m *MaskedByteArray) HashCode() (int32, error) {
	if m.hashValid {
		return m.hash, nil
	}
	data, err := m.GetData()
	if err != nil {
		return 0, err
	}
	defer Zero(data)
	var h int32 = 17
	for _, b := range data {
		h = h*31 + int32(b)
	}
	m.hash = h
	m.hashValid = true
	return h, nil
}

// Destroy idempotently zeroes every buffer and marks the container
// invalid. All accessors fail with tupwerr.ErrDestroyed afterwards.
func (m *MaskedByteArray) Destroy() {
	if !m.valid {
		return
	}
	Zero(m.data)
	for i := range m.index {
		m.index[i] = 0
	}
	m.maskedStart = 0
	m.maskedLen = 0
	m.maskGen = nil
	m.valid = false
}

// Zero overwrites a byte slice with zeros. Declared with an explicit
// loop rather than a library call so the write cannot be elided by the
// compiler as dead code once the slice appears otherwise unused.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ConstantTimeCompare reports whether a and b hold identical contents.
// Total execution time depends only on min(len(a), len(b)); no branch on
// comparison outcome occurs before the final result is known.
func ConstantTimeCompare(a, b []byte) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var diff byte
	for i := 0; i < n; i++ {
		diff |= a[i] ^ b[i]
	}
	if len(a) != len(b) {
		diff |= 1
	}
	return diff == 0
}

func shuffledPermutation(secureRandom io.Reader, n int) ([]int, error) {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j, err := randomInRange(secureRandom, i+1)
		if err != nil {
			return nil, err
		}
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm, nil
}

// randomInRange returns a uniform random integer in [0, n) drawn from
// secureRandom. n must be positive.
func randomInRange(secureRandom io.Reader, n int) (int, error) {
	if n <= 0 {
		return 0, nil
	}
	var buf [4]byte
	if _, err := io.ReadFull(secureRandom, buf[:]); err != nil {
		return 0, fmt.Errorf("%w: could not read randomness: %v", tupwerr.ErrCryptographicInvariant, err)
	}
	v := binary.BigEndian.Uint32(buf[:])
	return int(v % uint32(n)), nil
}
