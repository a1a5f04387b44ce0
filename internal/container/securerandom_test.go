package container

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSecureRandomFillsMaskedByteArray(t *testing.T) {
	source := []byte("a secret credential value")
	m, err := NewMaskedByteArray(NewSecureRandom(), source, 0, len(source))
	require.NoError(t, err)
	defer m.Destroy()

	got, err := m.GetData()
	require.NoError(t, err)
	if string(got) != string(source) {
		t.Fatalf("GetData() = %q, want %q", got, source)
	}
}

func TestSecureRandomReadEmpty(t *testing.T) {
	n, err := NewSecureRandom().Read(nil)
	require.NoError(t, err)
	if n != 0 {
		t.Fatalf("Read(nil) = %d, want 0", n)
	}
}
