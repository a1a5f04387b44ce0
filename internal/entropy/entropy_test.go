package entropy

import (
	"errors"
	"testing"

	"github.com/xformerfhs/tupw/internal/tupwerr"
)

func TestCheckSourceBytesRejectsAllZero(t *testing.T) {
	zeros := make([]byte, 100)
	if err := CheckSourceBytes([][]byte{zeros}); !errors.Is(err, tupwerr.ErrIllegalArgument) {
		t.Fatalf("all-zero input: got %v, want ErrIllegalArgument", err)
	}
}

func TestCheckSourceBytesRejectsTooShort(t *testing.T) {
	source := make([]byte, 90)
	for i := range source {
		source[i] = byte(i)
	}
	if err := CheckSourceBytes([][]byte{source}); !errors.Is(err, tupwerr.ErrIllegalArgument) {
		t.Fatalf("90-byte input: got %v, want ErrIllegalArgument", err)
	}
}

func TestCheckSourceBytesRejectsTooLong(t *testing.T) {
	source := make([]byte, 16_000_000)
	for i := range source {
		source[i] = byte(i)
	}
	if err := CheckSourceBytes([][]byte{source}); !errors.Is(err, tupwerr.ErrIllegalArgument) {
		t.Fatalf("16_000_000-byte input: got %v, want ErrIllegalArgument", err)
	}
}

func TestCheckSourceBytesRejectsEmptyArray(t *testing.T) {
	source := make([]byte, 200)
	if err := CheckSourceBytes([][]byte{source, {}}); !errors.Is(err, tupwerr.ErrIllegalArgument) {
		t.Fatalf("empty array among sources: got %v, want ErrIllegalArgument", err)
	}
}

func TestCheckSourceBytesAcceptsVariedInput(t *testing.T) {
	source := make([]byte, 200)
	for i := range source {
		source[i] = byte(i)
	}
	if err := CheckSourceBytes([][]byte{source}); err != nil {
		t.Fatalf("varied 200-byte input: unexpected error %v", err)
	}
}

func TestCalculatorEntropyOfUniformBytes(t *testing.T) {
	c := NewCalculator()
	source := make([]byte, 256)
	for i := range source {
		source[i] = byte(i)
	}
	c.Add(source)
	h := c.Entropy()
	if h < 7.9 || h > 8.0 {
		t.Fatalf("Entropy() of a full byte-value sweep = %v, want ~8.0", h)
	}
}
