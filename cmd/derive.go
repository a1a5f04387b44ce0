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
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/awnumar/memguard"
	"github.com/spf13/cobra"
	"github.com/xformerfhs/tupw/internal/container"
	"github.com/xformerfhs/tupw/internal/iox"
	"github.com/xformerfhs/tupw/internal/tupwerr"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
)

// kdkLength is the length of the key-derivation key the engine
// requires (§3: 14 to 32 bytes; derive-kdk always produces the
// maximum).
const kdkLength = 32

var (
	deriveKDF        string
	deriveSaltHex    string
	derivePBKDF2Iter int
	deriveOut        string
)

// deriveKDKCmd implements §12's derive-kdk convenience: turn a
// human-memorable passphrase into a key-derivation key of the length
// the engine expects, using a password hardening KDF rather than
// feeding the passphrase to HMAC directly.
var deriveKDKCmd = &cobra.Command{
	Use:   "derive-kdk",
	Short: "Derive a key-derivation key from a passphrase",
	Long: `
derive-kdk hardens an interactively entered passphrase into a 32-byte
key-derivation key using Argon2id (default) or PBKDF2-HMAC-SHA256,
and prints it hex-encoded, optionally writing a ready-to-use key file.`,
	Args: cobra.NoArgs,
	RunE: func(c *cobra.Command, args []string) error {
		passphrase, err := iox.GetSecret("tupw", "Enter the passphrase to harden into a key-derivation key", "Passphrase:")
		if err != nil {
			return err
		}
		defer container.Zero(passphrase)

		salt, err := resolveSalt(deriveSaltHex)
		if err != nil {
			return err
		}

		var stretched []byte
		switch deriveKDF {
		case "argon2id", "":
			stretched = argon2.IDKey(passphrase, salt, 3, 64*1024, 4, kdkLength)
		case "pbkdf2":
			stretched = pbkdf2.Key(passphrase, salt, derivePBKDF2Iter, kdkLength, sha256.New)
		default:
			return newUsageError("unknown --kdf %q, want argon2id or pbkdf2", deriveKDF)
		}

		// kdkBuf is the in-process KDK buffer: memguard-locked so the
		// stretched KDK is never paged out and is reliably wiped on exit.
		kdkBuf := memguard.NewBuffer(len(stretched))
		kdkBuf.Move(stretched)
		defer kdkBuf.Destroy()

		encoded := hex.EncodeToString(kdkBuf.Bytes())
		fmt.Printf("salt: %s\n", hex.EncodeToString(salt))
		fmt.Printf("kdk:  %s\n", encoded)

		if deriveOut != "" {
			if err := os.WriteFile(deriveOut, []byte(encoded+"\n"), 0o600); err != nil {
				return fmt.Errorf("%w: writing %s: %v", tupwerr.ErrIllegalArgument, deriveOut, err)
			}
			fmt.Fprintf(os.Stderr, "wrote %s (append at least one source line before using it with encrypt/decrypt)\n", deriveOut)
		}
		return nil
	},
}

func resolveSalt(saltHex string) ([]byte, error) {
	if saltHex == "" {
		salt := make([]byte, 16)
		if _, err := rand.Read(salt); err != nil {
			return nil, err
		}
		return salt, nil
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return nil, newUsageError("--salt is not valid hex: %v", err)
	}
	return salt, nil
}

func init() {
	deriveKDKCmd.Flags().StringVar(&deriveKDF, "kdf", "argon2id", "key hardening function: argon2id or pbkdf2")
	deriveKDKCmd.Flags().StringVar(&deriveSaltHex, "salt", "", "hex-encoded salt; a random 16-byte salt is generated and printed if omitted")
	deriveKDKCmd.Flags().IntVar(&derivePBKDF2Iter, "pbkdf2-iterations", 600_000, "PBKDF2 iteration count (--kdf pbkdf2 only)")
	deriveKDKCmd.Flags().StringVar(&deriveOut, "out", "", "also write the hex-encoded KDK as the first line of this key file")
}
