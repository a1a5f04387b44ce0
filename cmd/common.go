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
package cmd

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/awnumar/memguard"
	"github.com/xformerfhs/tupw/internal/container"
	"github.com/xformerfhs/tupw/internal/envelope"
	"github.com/xformerfhs/tupw/internal/iox"
)

// maxStdinBytes bounds a "-" item argument per §6.
const maxStdinBytes = 50_000_000

// usageError marks a problem with command-line arguments, which maps
// to exit code 2 rather than 1.
type usageError struct{ error }

func newUsageError(format string, a ...any) error {
	return usageError{fmt.Errorf(format, a...)}
}

// keyFile is the on-disk representation of a key-derivation key plus
// the source byte arrays it is combined with: the first non-empty
// line is the KDK, every line after it is one source array. This
// layout is a design choice (§6 treats the CLI surface as an external
// collaborator and leaves the on-disk key material format open).
//
// derive-kdk writes the KDK hex-encoded, so the first line is decoded
// as hex whenever it parses as such; a line that isn't valid hex is
// taken as the raw KDK bytes, for a key file hand-edited to carry a
// short passphrase-like KDK directly.
func loadKeyFile(path string) (kdk []byte, destroyKDK func(), sources [][]byte, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, newUsageError("cannot open key file %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var lines []string
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, nil, err
	}
	if len(lines) == 0 {
		return nil, nil, nil, newUsageError("key file %s is empty", path)
	}
	if len(lines) < 2 {
		return nil, nil, nil, newUsageError("key file %s must contain a key-derivation key line followed by at least one source line", path)
	}

	kdk, destroyKDK = decodeKDKLine(lines[0])
	sources = make([][]byte, len(lines)-1)
	for i, l := range lines[1:] {
		sources[i] = []byte(l)
	}
	return kdk, destroyKDK, sources, nil
}

// decodeKDKLine decodes a key file's KDK line into a memguard-backed
// buffer, mirroring derive-kdk's hex encoding of the KDK it prints.
func decodeKDKLine(line string) (kdk []byte, destroy func()) {
	decoded, err := hex.DecodeString(line)
	if err != nil {
		raw := []byte(line)
		return raw, func() { container.Zero(raw) }
	}
	buf := memguard.NewBuffer(len(decoded))
	buf.Move(decoded)
	return buf.Bytes(), buf.Destroy
}

func newEngine(keyFile string) (*envelope.Engine, error) {
	kdk, destroyKDK, sources, err := loadKeyFile(keyFile)
	if err != nil {
		return nil, err
	}
	defer destroyKDK()
	defer zeroSources(sources)
	return envelope.NewEngine(container.NewSecureRandom(), kdk, sources...)
}

func zeroSources(sources [][]byte) {
	for _, s := range sources {
		container.Zero(s)
	}
}

// readItem resolves the <item> | - command-line argument: a literal
// value, or stdin (capped at maxStdinBytes) when the argument is "-".
func readItem(arg string) ([]byte, error) {
	if arg != "-" {
		return []byte(arg), nil
	}
	limited := io.LimitReader(os.Stdin, maxStdinBytes+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	if len(data) > maxStdinBytes {
		return nil, newUsageError("stdin item exceeds the %d byte limit", maxStdinBytes)
	}
	return data, nil
}

// promptForSubject asks for a subject on the terminal through
// internal/iox. No command calls it: encrypt and decrypt fall back to
// the configured default subject when none is given.
func promptForSubject() (string, error) {
	return iox.ReadLine("subject (optional, press enter to skip): ")
}
