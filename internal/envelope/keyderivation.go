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
	"crypto/hmac"
	"crypto/sha256"
	"fmt"

	"github.com/xformerfhs/tupw/internal/container"
	"github.com/xformerfhs/tupw/internal/tupwerr"
)

// keySalt1 and keySalt2 are the fixed salts mixed into the
// subject-dependent key derivation of §4.9. They are not secret; they
// exist only to separate the two HMAC invocations from each other and
// from any other use of the same key material.
var (
	keySalt1 = []byte{0x54, 0x75} // "Tu"
	keySalt2 = []byte{0x70, 0x57} // "pW"
)

const (
	minKDKLength = 14
	maxKDKLength = 32
)

// deriveBaseKeys computes the §3 derived key pair: the HMAC-SHA-256 of
// the concatenated source byte arrays, keyed by kdk, split into a
// 16-byte data key base and a 16-byte authentication key base. Every
// intermediate buffer is zeroed before return.
func deriveBaseKeys(kdk []byte, sources [][]byte) (dataKeyBase, authKeyBase []byte, err error) {
	if len(kdk) < minKDKLength || len(kdk) > maxKDKLength {
		return nil, nil, fmt.Errorf("%w: key derivation key must be %d-%d bytes, got %d", tupwerr.ErrIllegalArgument, minKDKLength, maxKDKLength, len(kdk))
	}

	mac := hmac.New(sha256.New, kdk)
	for _, s := range sources {
		mac.Write(s)
	}
	sum := mac.Sum(nil)
	defer container.Zero(sum)

	dataKeyBase = append([]byte(nil), sum[:16]...)
	authKeyBase = append([]byte(nil), sum[16:]...)
	return dataKeyBase, authKeyBase, nil
}

// subjectKeys implements §4.9. When subject is empty, the effective
// keys are the base keys unchanged. Otherwise each effective key is an
// HMAC-SHA-256 cross-keyed by the other base key, over the owning base
// key salted with the fixed "Tu"/"pW" markers and the subject bytes,
// yielding 32-byte (AES-256) effective keys.
func subjectKeys(dataKeyBase, authKeyBase []byte, subject string) (effectiveDataKey, effectiveAuthKey []byte, err error) {
	if subject == "" {
		return append([]byte(nil), dataKeyBase...), append([]byte(nil), authKeyBase...), nil
	}

	subjectBytes := []byte(subject)
	defer container.Zero(subjectBytes)

	dataMac := hmac.New(sha256.New, authKeyBase)
	dataMac.Write(dataKeyBase)
	dataMac.Write(keySalt1)
	dataMac.Write(subjectBytes)
	dataMac.Write(keySalt2)
	effectiveDataKey = dataMac.Sum(nil)

	authMac := hmac.New(sha256.New, dataKeyBase)
	authMac.Write(authKeyBase)
	authMac.Write(keySalt1)
	authMac.Write(subjectBytes)
	authMac.Write(keySalt2)
	effectiveAuthKey = authMac.Sum(nil)

	return effectiveDataKey, effectiveAuthKey, nil
}
