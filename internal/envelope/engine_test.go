package envelope

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/xformerfhs/tupw/internal/container"
	"github.com/xformerfhs/tupw/internal/token"
	"github.com/xformerfhs/tupw/internal/tupwerr"
)

func testSources() [][]byte {
	source := make([]byte, 200)
	for i := range source {
		source[i] = byte(i % 256)
	}
	return [][]byte{source}
}

func mustEngine(t *testing.T) *Engine {
	t.Helper()
	kdk := bytes.Repeat([]byte{0xAA}, 32)
	e, err := NewEngine(rand.Reader, kdk, testSources()...)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestEngineRoundTrip(t *testing.T) {
	e := mustEngine(t)
	defer e.Destroy()

	tok, err := e.EncryptBytes([]byte("hello"), "")
	if err != nil {
		t.Fatalf("EncryptBytes: %v", err)
	}
	got, err := e.DecryptBytes(tok, "")
	if err != nil {
		t.Fatalf("DecryptBytes: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("DecryptBytes() = %q, want %q", got, "hello")
	}
}

func TestEngineSubjectSeparation(t *testing.T) {
	e := mustEngine(t)
	defer e.Destroy()

	tok, err := e.EncryptBytes([]byte("hello"), "strangeness")
	if err != nil {
		t.Fatalf("EncryptBytes: %v", err)
	}

	if _, err := e.DecryptBytes(tok, ""); !errors.Is(err, tupwerr.ErrDataIntegrity) {
		t.Fatalf("decrypt with wrong subject: got %v, want ErrDataIntegrity", err)
	}

	got, err := e.DecryptBytes(tok, "strangeness")
	if err != nil {
		t.Fatalf("DecryptBytes with matching subject: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("DecryptBytes() = %q, want %q", got, "hello")
	}
}

func TestEngineTamperEvidence(t *testing.T) {
	e := mustEngine(t)
	defer e.Destroy()

	tok, err := e.EncryptBytes([]byte("hello"), "")
	if err != nil {
		t.Fatalf("EncryptBytes: %v", err)
	}

	tampered := []byte(tok)
	tampered[len(tampered)-1] = flipAlphabetChar(tampered[len(tampered)-1])
	if _, err := e.DecryptBytes(string(tampered), ""); !errors.Is(err, tupwerr.ErrDataIntegrity) {
		t.Fatalf("decrypt tampered token: got %v, want ErrDataIntegrity", err)
	}
}

func flipAlphabetChar(c byte) byte {
	for _, r := range "023456789ABCDEFGHJKLMNPQRSTVWXYZ" {
		if byte(r) != c {
			return byte(r)
		}
	}
	return c
}

func TestEngineIVFreshness(t *testing.T) {
	e := mustEngine(t)
	defer e.Destroy()

	tok1, err := e.EncryptBytes([]byte("hello"), "")
	if err != nil {
		t.Fatalf("EncryptBytes: %v", err)
	}
	tok2, err := e.EncryptBytes([]byte("hello"), "")
	if err != nil {
		t.Fatalf("EncryptBytes: %v", err)
	}
	if tok1 == tok2 {
		t.Fatal("expected two encryptions of the same plaintext to differ (fresh IV)")
	}
}

func TestEngineLengthHiding(t *testing.T) {
	e := mustEngine(t)
	defer e.Destroy()

	tok1, err := e.EncryptBytes([]byte("a"), "")
	if err != nil {
		t.Fatalf("EncryptBytes: %v", err)
	}
	tok2, err := e.EncryptBytes([]byte("thirteen char"), "")
	if err != nil {
		t.Fatalf("EncryptBytes: %v", err)
	}

	p1, err := token.Parse(tok1)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	p2, err := token.Parse(tok2)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(p1.Ciphertext) != len(p2.Ciphertext) {
		t.Fatalf("ciphertext lengths differ: %d vs %d, want equal (blinding floors to 2 blocks)", len(p1.Ciphertext), len(p2.Ciphertext))
	}
}

// formatLegacyToken builds a format <= 5 token string by hand: these
// formats use the '$' separator and base64, never the spell-safe
// Base32 that token.Format always emits (token.Format only ever
// produces the current format-6 encoding).
func formatLegacyToken(formatID int, iv, ciphertext, tag []byte) string {
	enc := base64.StdEncoding
	if formatID >= 4 {
		enc = base64.RawStdEncoding
	}
	return fmt.Sprintf("%d$%s$%s$%s", formatID, enc.EncodeToString(iv), enc.EncodeToString(ciphertext), enc.EncodeToString(tag))
}

// TestFormat4HMACBug exercises the documented legacy bug: format 4's
// authentication tag is computed with the default (empty-subject) auth
// key even when a subject is supplied on decrypt. The cipher key is
// NOT affected by the bug — it always follows the subject, for every
// format — so a token's authentication tag validates under any
// subject while only the matching subject actually recovers the
// plaintext; a mismatched subject passes the (bugged) tag check but
// fails to recover the data.
func TestFormat4HMACBug(t *testing.T) {
	kdk := bytes.Repeat([]byte{0xAA}, 32)
	sources := testSources()

	dataKeyBase, authKeyBase, err := deriveBaseKeys(kdk, sources)
	if err != nil {
		t.Fatalf("deriveBaseKeys: %v", err)
	}
	defer container.Zero(dataKeyBase)
	defer container.Zero(authKeyBase)

	blinded, err := blind(rand.Reader, []byte("hello"), aes.BlockSize+1)
	if err != nil {
		t.Fatalf("blind: %v", err)
	}
	plaintext, err := padRandom(rand.Reader, blinded, aes.BlockSize)
	if err != nil {
		t.Fatalf("padRandom: %v", err)
	}

	// A historical encryptor would have derived the cipher key from the
	// subject in force at the time, but always tagged with the default
	// (empty-subject) auth key, regardless of that subject.
	effectiveDataKey, _, err := subjectKeys(dataKeyBase, authKeyBase, "some-subject")
	if err != nil {
		t.Fatalf("subjectKeys: %v", err)
	}
	_, defaultAuthKey, err := subjectKeys(dataKeyBase, authKeyBase, "")
	if err != nil {
		t.Fatalf("subjectKeys: %v", err)
	}

	block, err := aes.NewCipher(effectiveDataKey)
	if err != nil {
		t.Fatalf("aes.NewCipher: %v", err)
	}
	iv := make([]byte, aes.BlockSize)
	ciphertext := make([]byte, len(plaintext))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, plaintext)

	tag := computeTag(defaultAuthKey, 4, iv, ciphertext)
	tok := formatLegacyToken(4, iv, ciphertext, tag)

	e, err := NewEngine(rand.Reader, kdk, sources...)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer e.Destroy()

	got, err := e.DecryptBytes(tok, "some-subject")
	if err != nil {
		t.Fatalf("decrypt format-4 token with matching subject: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("decrypted = %q, want %q", got, "hello")
	}

	// A different subject derives a different cipher key, so the
	// plaintext cannot be recovered -- but the tag check must still pass
	// (the bug), so the resulting error, if any, must not be
	// data-integrity.
	_, err = e.DecryptBytes(tok, "a-completely-different-subject")
	if err == nil {
		t.Fatal("expected decrypting under the wrong subject to fail to recover the plaintext")
	}
	if errors.Is(err, tupwerr.ErrDataIntegrity) {
		t.Fatalf("tag check must pass despite the wrong subject (format <= 4 bug); got ErrDataIntegrity: %v", err)
	}
}

// TestDecryptLegacyFormat1ArbitraryTailPadding exercises the other
// legacy coexisting padding variant of §4.6 (arbitrary-tail-byte
// padding, formats 1-2, CFB mode): it is never produced by EncryptBytes
// but must still decrypt.
func TestDecryptLegacyFormat1ArbitraryTailPadding(t *testing.T) {
	kdk := bytes.Repeat([]byte{0xAA}, 32)
	sources := testSources()

	dataKeyBase, authKeyBase, err := deriveBaseKeys(kdk, sources)
	if err != nil {
		t.Fatalf("deriveBaseKeys: %v", err)
	}
	defer container.Zero(dataKeyBase)
	defer container.Zero(authKeyBase)

	padded, err := padArbitraryTail(rand.Reader, []byte("hello"), aes.BlockSize)
	if err != nil {
		t.Fatalf("padArbitraryTail: %v", err)
	}

	dataKey, authKey, err := subjectKeys(dataKeyBase, authKeyBase, "")
	if err != nil {
		t.Fatalf("subjectKeys: %v", err)
	}

	block, err := aes.NewCipher(dataKey)
	if err != nil {
		t.Fatalf("aes.NewCipher: %v", err)
	}
	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		t.Fatalf("reading iv: %v", err)
	}
	ciphertext := make([]byte, len(padded))
	cipher.NewCFBEncrypter(block, iv).XORKeyStream(ciphertext, padded)

	tag := computeTag(authKey, 1, iv, ciphertext)
	tok := formatLegacyToken(1, iv, ciphertext, tag)

	e, err := NewEngine(rand.Reader, kdk, sources...)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer e.Destroy()

	got, err := e.DecryptBytes(tok, "")
	if err != nil {
		t.Fatalf("decrypt format-1 token: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("decrypted = %q, want %q", got, "hello")
	}
}
