package container

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xformerfhs/tupw/internal/tupwerr"
)

func TestMaskedByteArrayRoundTrip(t *testing.T) {
	source := []byte("a secret credential value")
	m, err := NewMaskedByteArray(rand.Reader, source, 0, len(source))
	require.NoError(t, err)

	got, err := m.GetData()
	require.NoError(t, err)
	if !bytes.Equal(got, source) {
		t.Fatalf("GetData() = %q, want %q", got, source)
	}
}

func TestMaskedByteArraySetAt(t *testing.T) {
	source := []byte("0123456789")
	m, err := NewMaskedByteArray(rand.Reader, source, 0, len(source))
	require.NoError(t, err)

	if err := m.SetAt(3, 'X'); err != nil {
		t.Fatalf("SetAt: %v", err)
	}
	b, err := m.GetAt(3)
	require.NoError(t, err)
	if b != 'X' {
		t.Fatalf("GetAt(3) = %q, want 'X'", b)
	}
}

func TestMaskedByteArrayDestroyFailsAccessors(t *testing.T) {
	m, err := NewMaskedByteArray(rand.Reader, []byte("hello"), 0, 5)
	require.NoError(t, err)

	m.Destroy()
	m.Destroy() // idempotent

	if m.IsValid() {
		t.Fatal("expected container to be invalid after Destroy")
	}
	if _, err := m.GetData(); !errors.Is(err, tupwerr.ErrDestroyed) {
		t.Fatalf("GetData() after Destroy: got %v, want ErrDestroyed", err)
	}
	if _, err := m.GetAt(0); !errors.Is(err, tupwerr.ErrDestroyed) {
		t.Fatalf("GetAt() after Destroy: got %v, want ErrDestroyed", err)
	}
}

func TestMaskedByteArrayOutOfBounds(t *testing.T) {
	m, err := NewMaskedByteArray(rand.Reader, []byte("hello"), 0, 5)
	require.NoError(t, err)

	if _, err := m.GetAt(5); !errors.Is(err, tupwerr.ErrOutOfBounds) {
		t.Fatalf("GetAt(5): got %v, want ErrOutOfBounds", err)
	}
	if _, err := m.GetAt(-1); !errors.Is(err, tupwerr.ErrOutOfBounds) {
		t.Fatalf("GetAt(-1): got %v, want ErrOutOfBounds", err)
	}
}

func TestMaskedByteArrayEquals(t *testing.T) {
	source := []byte("matching payload")
	a, err := NewMaskedByteArray(rand.Reader, source, 0, len(source))
	require.NoError(t, err)
	b, err := NewMaskedByteArray(rand.Reader, source, 0, len(source))
	require.NoError(t, err)

	eq, err := a.Equals(b)
	require.NoError(t, err)
	if !eq {
		t.Fatal("expected equal containers built from the same source bytes")
	}

	c, err := NewMaskedByteArray(rand.Reader, []byte("different payload"), 0, len("different payload"))
	require.NoError(t, err)
	eq, err = a.Equals(c)
	require.NoError(t, err)
	if eq {
		t.Fatal("expected containers built from different source bytes to differ")
	}
}

func TestConstantTimeCompare(t *testing.T) {
	if !ConstantTimeCompare([]byte("abc"), []byte("abc")) {
		t.Fatal("expected equal slices to compare equal")
	}
	if ConstantTimeCompare([]byte("abc"), []byte("abd")) {
		t.Fatal("expected differing slices to compare unequal")
	}
	if ConstantTimeCompare([]byte("abc"), []byte("ab")) {
		t.Fatal("expected differing lengths to compare unequal")
	}
}

func TestNewMaskedByteArrayRejectsNegativeAndShortSource(t *testing.T) {
	if _, err := NewMaskedByteArray(rand.Reader, []byte("hi"), -1, 2); !errors.Is(err, tupwerr.ErrIllegalArgument) {
		t.Fatalf("negative offset: got %v, want ErrIllegalArgument", err)
	}
	if _, err := NewMaskedByteArray(rand.Reader, []byte("hi"), 0, 10); !errors.Is(err, tupwerr.ErrIllegalArgument) {
		t.Fatalf("length exceeds source: got %v, want ErrIllegalArgument", err)
	}
}
