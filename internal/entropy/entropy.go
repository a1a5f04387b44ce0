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

// Package entropy implements the Shannon entropy guard of §4.7: it
// gates key derivation on the source byte arrays carrying enough
// information content, and separately enforces the total-length bounds
// of §3/§6.
package entropy

import (
	"fmt"
	"math"

	"github.com/xformerfhs/tupw/internal/tupwerr"
)

const (
	// MinSourceBytesLength is the minimum total length of all source
	// byte arrays combined.
	MinSourceBytesLength = 100
	// MaxSourceBytesLength is the maximum total length of all source
	// byte arrays combined.
	MaxSourceBytesLength = 10_000_000
	// MinInformationBits is the minimum Shannon information content, in
	// bits, the source byte arrays must collectively carry.
	MinInformationBits = 128.0
	// noVariationThreshold distinguishes "too little variation to ever
	// reach the gate" from "not enough bytes yet".
	noVariationThreshold = 1.0 / 8192.0 // 2^-13
)

// Calculator accumulates a 256-slot byte histogram and derives the
// Shannon entropy and total information content of everything added
// to it.
type Calculator struct {
	histogram [256]int64
	total     int64
}

// NewCalculator returns an empty histogram.
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Add folds b into the histogram.
func (c *Calculator) Add(b []byte) {
	for _, v := range b {
		c.histogram[v]++
	}
	c.total += int64(len(b))
}

// Entropy returns the Shannon entropy in bits per byte.
func (c *Calculator) Entropy() float64 {
	if c.total == 0 {
		return 0
	}
	var h float64
	n := float64(c.total)
	for _, count := range c.histogram {
		if count == 0 {
			continue
		}
		p := float64(count) / n
		h -= p * math.Log2(p)
	}
	return h
}

// InformationInBits returns Entropy() * the number of bytes seen.
func (c *Calculator) InformationInBits() float64 {
	return c.Entropy() * float64(c.total)
}

// CheckSourceBytes validates the source byte arrays against the bounds
// of §3/§6 and the entropy gate of §4.7. It fails fast on structural
// violations (empty arrays, out-of-range total length) before ever
// computing entropy, matching the order the original checks run in.
func CheckSourceBytes(sources [][]byte) error {
	if len(sources) == 0 {
		return fmt.Errorf("%w: at least one source byte array is required", tupwerr.ErrIllegalArgument)
	}

	var total int
	for _, s := range sources {
		if len(s) == 0 {
			return fmt.Errorf("%w: source byte array must not be empty", tupwerr.ErrIllegalArgument)
		}
		total += len(s)
	}

	if total < MinSourceBytesLength {
		return fmt.Errorf("%w: source bytes total length %d is fewer than the minimum of %d bytes", tupwerr.ErrIllegalArgument, total, MinSourceBytesLength)
	}
	if total > MaxSourceBytesLength {
		return fmt.Errorf("%w: source bytes total length %d exceeds the maximum of %d bytes", tupwerr.ErrIllegalArgument, total, MaxSourceBytesLength)
	}

	calc := NewCalculator()
	for _, s := range sources {
		calc.Add(s)
	}

	info := calc.InformationInBits()
	if info >= MinInformationBits {
		return nil
	}

	h := calc.Entropy()
	if h > noVariationThreshold {
		needed := int(math.Ceil(MinInformationBits/h)) + 1
		return fmt.Errorf("%w: source bytes carry only %.1f bits of information, need at least %.0f; supply at least %d bytes of this quality", tupwerr.ErrIllegalArgument, info, MinInformationBits, needed)
	}
	return fmt.Errorf("%w: source bytes show no variation and carry no usable information", tupwerr.ErrIllegalArgument)
}
