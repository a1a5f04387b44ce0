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
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xformerfhs/tupw/internal/container"
)

var decryptCmd = &cobra.Command{
	Use:   "decrypt <key-file> [subject] <item>|-",
	Short: "Decrypt a token back into its original item",
	Long: `
decrypt derives an engine from key-file and recovers the plaintext
carried by the token in item. item may be "-" to read the token from
stdin. Any of the six historical format ids decrypts; only format 6 is
ever produced by encrypt.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(c *cobra.Command, args []string) error {
		keyFile := args[0]
		var subject, item string
		if len(args) == 3 {
			subject, item = args[1], args[2]
		} else {
			subject = cfg.DefaultSubject
			item = args[1]
		}

		tokenBytes, err := readItem(item)
		if err != nil {
			return err
		}

		e, err := newEngine(keyFile)
		if err != nil {
			return err
		}
		defer e.Destroy()

		plaintext, err := e.DecryptBytes(string(tokenBytes), subject)
		if err != nil {
			return err
		}
		defer container.Zero(plaintext)

		fmt.Println(string(plaintext))
		return nil
	},
}
