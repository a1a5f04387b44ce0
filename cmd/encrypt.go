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
)

var encryptCmd = &cobra.Command{
	Use:   "encrypt <key-file> [subject] <item>|-",
	Short: "Encrypt item into a printable token",
	Long: `
encrypt derives an engine from key-file and produces a format-6 token
for item. item may be "-" to read up to 50,000,000 bytes from stdin.
subject is optional and binds the token to that context; omitting it
uses the default (empty) subject.`,
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

		plaintext, err := readItem(item)
		if err != nil {
			return err
		}

		e, err := newEngine(keyFile)
		if err != nil {
			return err
		}
		defer e.Destroy()

		logger.Printf("encrypting %d bytes (subject set: %t)", len(plaintext), subject != "")

		tok, err := e.EncryptBytes(plaintext, subject)
		if err != nil {
			return err
		}
		fmt.Println(tok)
		return nil
	},
}
