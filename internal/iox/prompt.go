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

// Package iox provides interactive terminal entry of secret material
// for the CLI; derive-kdk reads its passphrase through GetSecret.
package iox

import (
	"fmt"
	"os"
	"strings"

	"github.com/peterh/liner"
	"github.com/twpayne/go-pinentry"
)

// ReadLine reads a single line of plain text from the user via stdin.
func ReadLine(prompt string) (string, error) {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	defer line.Close()

	text, err := line.Prompt(prompt)
	if err != nil {
		if err == liner.ErrPromptAborted {
			line.Close()
			os.Exit(0)
		}
		return "", err
	}
	return text, nil
}

// ReadSecret reads a secret (the KDK, typically) via stdin with input
// echo suppressed.
func ReadSecret(prompt string) ([]byte, error) {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	defer line.Close()

	text, err := line.PasswordPrompt(prompt)
	if err != nil {
		if err == liner.ErrPromptAborted {
			line.Close()
			os.Exit(0)
		}
		return nil, err
	}
	return []byte(text), nil
}

// GetSecret asks the user for a secret using pinentry if a pinentry
// binary is available, and falls back to a suppressed-echo terminal
// prompt otherwise.
//
// This is a mockable entry point for testing and wraps secret.
var GetSecret func(title, description, prompt string) ([]byte, error) = secret

func secret(title, description, prompt string) ([]byte, error) {
	client, err := GetPinentry(
		pinentry.WithBinaryNameFromGnuPGAgentConf(),
		pinentry.WithDesc(description),
		pinentry.WithGPGTTY(),
		pinentry.WithPrompt(prompt),
		pinentry.WithTitle(title),
	)
	if err != nil {
		b, err := ReadSecret(prompt)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	defer client.Close()

	value, _, err := client.GetPIN()
	if pinentry.IsCancelled(err) {
		return nil, fmt.Errorf("cancelled")
	}
	if err != nil {
		return nil, err
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("no value provided")
	}
	return []byte(value), nil
}

// GetPinentry is a mockable entry point for testing and wraps the
// pinentry client constructor.
var GetPinentry func(options ...pinentry.ClientOption) (*pinentry.Client, error) = func(options ...pinentry.ClientOption) (*pinentry.Client, error) {
	return pinentry.NewClient(options...)
}
