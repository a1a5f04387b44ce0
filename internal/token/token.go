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

// Package token implements the external token grammar of §6: the
// versioned, four-field textual envelope that wraps an IV, a
// ciphertext and an authentication tag around a single leading format
// id digit.
package token

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/xformerfhs/tupw/internal/tupwerr"
	"github.com/xformerfhs/tupw/internal/wire"
)

// CurrentFormatID is the only format id this implementation ever
// produces; ids 1-5 remain decode-only for backward compatibility.
const CurrentFormatID = 6

const legacySeparator = '$'

// Parts is the internal transient record {formatId, iv, ciphertext,
// tag} of §3. Scrub callers' copies with container.Zero once done.
type Parts struct {
	FormatID   int
	IV         []byte
	Ciphertext []byte
	Tag        []byte
}

// Format renders parts as the current (format id 6) textual token.
func Format(p Parts) string {
	var sb strings.Builder
	sb.WriteByte(byte('0' + p.FormatID))
	sb.WriteByte(wire.FieldSeparator)
	sb.WriteString(wire.EncodeBase32(p.IV))
	sb.WriteByte(wire.FieldSeparator)
	sb.WriteString(wire.EncodeBase32(p.Ciphertext))
	sb.WriteByte(wire.FieldSeparator)
	sb.WriteString(wire.EncodeBase32(p.Tag))
	return sb.String()
}

// Parse decodes a textual token of any supported format id (1-6) into
// its constituent parts.
func Parse(token string) (Parts, error) {
	if len(token) == 0 {
		return Parts{}, fmt.Errorf("%w: empty token", tupwerr.ErrIllegalArgument)
	}

	formatID, err := strconv.Atoi(token[:1])
	if err != nil || formatID < 1 || formatID > 6 {
		return Parts{}, fmt.Errorf("%w: unknown format id %q", tupwerr.ErrIllegalArgument, token[:1])
	}
	if len(token) < 2 {
		return Parts{}, fmt.Errorf("%w: token has no fields after the format id", tupwerr.ErrIllegalArgument)
	}

	separator := byte(legacySeparator)
	if formatID >= 6 {
		separator = byte(wire.FieldSeparator)
	}

	fields := strings.Split(token[2:], string(separator))
	if len(fields) != 3 {
		return Parts{}, fmt.Errorf("%w: token has %d fields after the format id, want 3", tupwerr.ErrIllegalArgument, len(fields))
	}

	decode := decodeBase64Field(formatID)
	if formatID >= 6 {
		decode = wire.DecodeBase32
	}

	iv, err := decode(fields[0])
	if err != nil {
		return Parts{}, err
	}
	ciphertext, err := decode(fields[1])
	if err != nil {
		return Parts{}, err
	}
	tag, err := decode(fields[2])
	if err != nil {
		return Parts{}, err
	}

	return Parts{FormatID: formatID, IV: iv, Ciphertext: ciphertext, Tag: tag}, nil
}

func decodeBase64Field(formatID int) func(string) ([]byte, error) {
	enc := base64.StdEncoding
	if formatID >= 4 {
		enc = base64.RawStdEncoding
	}
	return func(s string) ([]byte, error) {
		b, err := enc.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid base64 field: %v", tupwerr.ErrIllegalArgument, err)
		}
		return b, nil
	}
}
