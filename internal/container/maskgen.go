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
package container

import (
	"encoding/binary"
	"io"
)

// maskCacheWindow bounds how many recently-requested positions keep a
// cached mask value. Masks are cheap to recompute; the cache only saves
// the repeat lookups that construction and scanning access patterns
// produce (adjacent indices during the scatter loop).
const maskCacheWindow = 64

// maskGenerator is the index mask generator of §4.2: a deterministic
// pseudorandom function of (instance secret, position) seeded once from
// a secure random source at container construction. Two generators
// constructed from independent seeds produce independent mask streams.
type maskGenerator struct {
	seed  uint64
	cache map[int64]uint64
	order []int64
}

func newMaskGenerator(secureRandom io.Reader) (*maskGenerator, error) {
	var seedBytes [8]byte
	if _, err := io.ReadFull(secureRandom, seedBytes[:]); err != nil {
		return nil, err
	}
	return &maskGenerator{
		seed:  binary.BigEndian.Uint64(seedBytes[:]),
		cache: make(map[int64]uint64, maskCacheWindow),
	}, nil
}

func (g *maskGenerator) raw(position int64) uint64 {
	if v, ok := g.cache[position]; ok {
		return v
	}
	v := newSplitMix64(g.seed ^ uint64(position)).next()
	if len(g.order) >= maskCacheWindow {
		oldest := g.order[0]
		g.order = g.order[1:]
		delete(g.cache, oldest)
	}
	g.cache[position] = v
	g.order = append(g.order, position)
	return v
}

// byteMask returns the low-byte projection of the mask at position.
func (g *maskGenerator) byteMask(position int64) byte {
	return byte(g.raw(position))
}

// intMask returns the full 32-bit projection of the mask at position.
func (g *maskGenerator) intMask(position int64) uint32 {
	return uint32(g.raw(position) >> 32)
}
