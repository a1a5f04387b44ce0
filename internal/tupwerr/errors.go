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

// Package tupwerr defines the error kinds shared by every layer of the
// cryptographic core. Callers distinguish kinds with errors.Is; the
// wrapped message carries the offending detail.
package tupwerr

import "errors"

var (
	// ErrIllegalArgument marks an input constraint violation: lengths,
	// entropy, token shape, out-of-range integers, invalid alphabet
	// characters, malformed blinding headers, unknown format ids.
	ErrIllegalArgument = errors.New("illegal argument")

	// ErrDataIntegrity marks an authentication tag mismatch.
	ErrDataIntegrity = errors.New("data integrity violation")

	// ErrCharacterCoding marks plaintext that is not valid UTF-8 when a
	// character result was requested.
	ErrCharacterCoding = errors.New("character coding error")

	// ErrDestroyed marks use-after-destroy on the engine or a masked
	// container. It indicates a lifecycle bug in the caller.
	ErrDestroyed = errors.New("use after destroy")

	// ErrCryptographicInvariant marks a lower-level crypto primitive
	// reporting an impossible error. It must never occur against a
	// conforming primitive and is wrapped and surfaced unchanged.
	ErrCryptographicInvariant = errors.New("cryptographic invariant violated")

	// ErrOutOfBounds marks an out-of-range index into a masked byte
	// container.
	ErrOutOfBounds = errors.New("index out of bounds")
)
