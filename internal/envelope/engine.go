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
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"io"
	"sync"
	"unicode/utf8"

	"github.com/xformerfhs/tupw/internal/container"
	"github.com/xformerfhs/tupw/internal/entropy"
	"github.com/xformerfhs/tupw/internal/token"
	"github.com/xformerfhs/tupw/internal/tupwerr"
)

// Engine is the key derivation & envelope engine of §4.8. It is safe
// for concurrent use: every externally reachable mutating operation
// runs under a single engine-level mutex, matching §5.
type Engine struct {
	mu           sync.Mutex
	secureRandom io.Reader
	dataKeyBase  *container.MaskedByteArray
	authKeyBase  *container.MaskedByteArray
	valid        bool
}

// NewEngine validates kdk and sources, derives the data/auth key bases
// per §3, and stores them in masked containers for the lifetime of the
// engine. sources may be a single array or several; they are HMAC'd as
// one concatenated message (§12 supplemented variadic-source entry
// point).
func NewEngine(secureRandom io.Reader, kdk []byte, sources ...[]byte) (*Engine, error) {
	if err := entropy.CheckSourceBytes(sources); err != nil {
		return nil, err
	}

	dataKeyBase, authKeyBase, err := deriveBaseKeys(kdk, sources)
	if err != nil {
		return nil, err
	}
	defer container.Zero(dataKeyBase)
	defer container.Zero(authKeyBase)

	dataContainer, err := container.NewMaskedByteArray(secureRandom, dataKeyBase, 0, len(dataKeyBase))
	if err != nil {
		return nil, err
	}
	authContainer, err := container.NewMaskedByteArray(secureRandom, authKeyBase, 0, len(authKeyBase))
	if err != nil {
		dataContainer.Destroy()
		return nil, err
	}

	return &Engine{
		secureRandom: secureRandom,
		dataKeyBase:  dataContainer,
		authKeyBase:  authContainer,
		valid:        true,
	}, nil
}

// Destroy idempotently destroys both masked containers.
func (e *Engine) Destroy() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.valid {
		return
	}
	e.dataKeyBase.Destroy()
	e.authKeyBase.Destroy()
	e.valid = false
}

func (e *Engine) baseKeys() (dataKeyBase, authKeyBase []byte, err error) {
	if !e.valid {
		return nil, nil, fmt.Errorf("%w: envelope engine", tupwerr.ErrDestroyed)
	}
	dataKeyBase, err = e.dataKeyBase.GetData()
	if err != nil {
		return nil, nil, err
	}
	authKeyBase, err = e.authKeyBase.GetData()
	if err != nil {
		container.Zero(dataKeyBase)
		return nil, nil, err
	}
	return dataKeyBase, authKeyBase, nil
}

// EncryptBytes implements the encrypt algorithm of §4.8: it always
// produces a CurrentFormatID token.
func (e *Engine) EncryptBytes(plaintext []byte, subject string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	dataKeyBase, authKeyBase, err := e.baseKeys()
	if err != nil {
		return "", err
	}
	defer container.Zero(dataKeyBase)
	defer container.Zero(authKeyBase)

	blinded, err := blind(e.secureRandom, plaintext, aes.BlockSize+1)
	if err != nil {
		return "", err
	}
	defer container.Zero(blinded)

	padded, err := padRandom(e.secureRandom, blinded, aes.BlockSize)
	if err != nil {
		return "", err
	}
	defer container.Zero(padded)

	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(e.secureRandom, iv); err != nil {
		return "", fmt.Errorf("%w: could not draw IV: %v", tupwerr.ErrCryptographicInvariant, err)
	}

	effectiveDataKey, effectiveAuthKey, err := subjectKeys(dataKeyBase, authKeyBase, subject)
	if err != nil {
		return "", err
	}
	defer container.Zero(effectiveDataKey)
	defer container.Zero(effectiveAuthKey)

	block, err := aes.NewCipher(effectiveDataKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", tupwerr.ErrCryptographicInvariant, err)
	}

	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	tag := computeTag(effectiveAuthKey, byte(token.CurrentFormatID), iv, ciphertext)

	return token.Format(token.Parts{
		FormatID:   token.CurrentFormatID,
		IV:         iv,
		Ciphertext: ciphertext,
		Tag:        tag,
	}), nil
}

// EncryptChars encrypts chars, which holds the characters already
// encoded as UTF-8, and zeroes chars before returning (§4.8, §12
// char-array entry point).
func (e *Engine) EncryptChars(chars []byte, subject string) (string, error) {
	defer container.Zero(chars)
	return e.EncryptBytes(chars, subject)
}

// DecryptBytes implements the decrypt algorithm of §4.8 across all six
// format ids.
func (e *Engine) DecryptBytes(tokenStr string, subject string) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	parts, err := token.Parse(tokenStr)
	if err != nil {
		return nil, err
	}

	dataKeyBase, authKeyBase, err := e.baseKeys()
	if err != nil {
		return nil, err
	}
	defer container.Zero(dataKeyBase)
	defer container.Zero(authKeyBase)

	effectiveDataKey, subjectAuthKey, err := subjectKeys(dataKeyBase, authKeyBase, subject)
	if err != nil {
		return nil, err
	}
	defer container.Zero(effectiveDataKey)
	defer container.Zero(subjectAuthKey)

	// Format 4's historical bug: its HMAC ignores the subject even when
	// one is supplied. Formats <= 4 authenticate with the default
	// (empty-subject) key regardless of what the caller passed.
	authKeyToUse := subjectAuthKey
	if parts.FormatID <= 4 {
		_, defaultAuthKey, err := subjectKeys(dataKeyBase, authKeyBase, "")
		if err != nil {
			return nil, err
		}
		defer container.Zero(defaultAuthKey)
		authKeyToUse = defaultAuthKey
	}

	expectedTag := computeTag(authKeyToUse, byte(parts.FormatID), parts.IV, parts.Ciphertext)
	if !container.ConstantTimeCompare(expectedTag, parts.Tag) {
		return nil, fmt.Errorf("%w: authentication tag mismatch", tupwerr.ErrDataIntegrity)
	}

	block, err := aes.NewCipher(effectiveDataKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tupwerr.ErrCryptographicInvariant, err)
	}

	decrypted, err := decryptByFormat(block, parts.FormatID, parts.IV, parts.Ciphertext)
	if err != nil {
		return nil, err
	}

	if parts.FormatID <= 2 {
		trimmed, err := unpadArbitraryTail(decrypted)
		if err != nil {
			container.Zero(decrypted)
			return nil, err
		}
		out := append([]byte(nil), trimmed...)
		container.Zero(decrypted)
		return out, nil
	}

	trimmed, err := unblind(decrypted)
	if err != nil {
		container.Zero(decrypted)
		return nil, err
	}
	out := append([]byte(nil), trimmed...)
	container.Zero(decrypted)
	return out, nil
}

// DecryptChars decrypts tokenStr and validates the result as UTF-8,
// failing with tupwerr.ErrCharacterCoding on malformed sequences.
func (e *Engine) DecryptChars(tokenStr string, subject string) ([]byte, error) {
	b, err := e.DecryptBytes(tokenStr, subject)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(b) {
		container.Zero(b)
		return nil, fmt.Errorf("%w: decrypted plaintext is not valid UTF-8", tupwerr.ErrCharacterCoding)
	}
	return b, nil
}

func computeTag(authKey []byte, formatID byte, iv, ciphertext []byte) []byte {
	mac := hmac.New(sha256.New, authKey)
	mac.Write([]byte{formatID})
	mac.Write(iv)
	mac.Write(ciphertext)
	return mac.Sum(nil)
}

// decryptByFormat selects the cipher mode per the format-to-mode table
// of §4.8 step 6.
func decryptByFormat(block cipher.Block, formatID int, iv, ciphertext []byte) ([]byte, error) {
	dst := make([]byte, len(ciphertext))
	switch formatID {
	case 1:
		cipher.NewCFBDecrypter(block, iv).XORKeyStream(dst, ciphertext)
	case 2, 3:
		cipher.NewCTR(block, iv).XORKeyStream(dst, ciphertext)
	case 4, 5, 6:
		if len(ciphertext)%aes.BlockSize != 0 {
			return nil, fmt.Errorf("%w: CBC ciphertext length %d is not a multiple of the block size", tupwerr.ErrIllegalArgument, len(ciphertext))
		}
		cipher.NewCBCDecrypter(block, iv).CryptBlocks(dst, ciphertext)
	default:
		return nil, fmt.Errorf("%w: unknown format id %d", tupwerr.ErrIllegalArgument, formatID)
	}
	return dst, nil
}
