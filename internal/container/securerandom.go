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
	"github.com/awnumar/memguard"
)

// SecureRandom is the "secure random source" external collaborator of
// §4.1/§4.8: an io.Reader that fills a buffer with cryptographically
// secure random bytes. The default implementation delegates to memguard,
// which in turn draws from the operating system CSPRNG.
type SecureRandom struct{}

// NewSecureRandom returns the process-wide secure random source. There
// is exactly one of these per process by convention (see DESIGN NOTES,
// "Global state"); callers are free to construct their own, since the
// type carries no state.
func NewSecureRandom() *SecureRandom {
	return &SecureRandom{}
}

func (SecureRandom) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	memguard.ScrambleBytes(p)
	return len(p), nil
}
