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

// Package cmd implements the command surface of §6: encrypt, decrypt,
// plus the inspect and derive-kdk conveniences of §12.
package cmd

import (
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/xformerfhs/tupw/internal/config"
)

var (
	cfg         *config.Config
	correlation string
	logger      *log.Logger
)

var rootCmd = &cobra.Command{
	Use:   "tupw",
	Short: "Deterministic, keyless-looking credential encryption",
	Long: `
tupw encrypts and decrypts short secrets into a self-describing printable
token, and back. It derives an AES and an HMAC key from a caller-supplied
key-derivation key and source byte arrays and keeps the derived keys
masked in process memory for the engine's lifetime.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.New()
		if err := cfg.Load(); err != nil {
			return err
		}
		correlation = uuid.NewString()
		logger = log.New(os.Stderr, "tupw["+correlation[:8]+"] ", log.LstdFlags)
		return nil
	},
}

// Execute adds all child commands to the root command and runs it. It
// is called by main.main.
//
// Exit codes: 0 on success, 2 when the failure is a usageError (an
// unreadable or malformed key file, an oversized stdin item, an invalid
// derive-kdk --kdf or --salt value), 1 for everything else (decryption
// failure, tampered token, entropy rejection). Cobra's own argument
// count and unknown-flag errors are not usageErrors and exit with 1.
func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}
	if _, ok := err.(usageError); ok {
		os.Exit(2)
	}
	os.Exit(1)
}

func init() {
	rootCmd.AddCommand(encryptCmd, decryptCmd, inspectCmd, deriveKDKCmd)
}
