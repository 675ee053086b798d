package bitbuf

import (
	"testing"
)

func TestBuffer_AppendBit_PackingOrder(t *testing.T) {
	tests := []struct {
		name     string
		bits     []bool
		expected []byte
	}{
		{"all zeros", []bool{false, false, false, false, false, false, false, false}, []byte{0x00}},
		{"all ones", []bool{true, true, true, true, true, true, true, true}, []byte{0xFF}},
		{"alternating 10101010", []bool{true, false, true, false, true, false, true, false}, []byte{0xAA}},
		{"high nibble set", []bool{true, true, true, true, false, false, false, false}, []byte{0xF0}},
		{"two bytes", []bool{true, false, false, false, false, false, false, false, false, false, false, false, false, false, false, true}, []byte{0x80, 0x01}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuffer(len(tt.bits))
			for _, bit := range tt.bits {
				b.AppendBit(bit)
			}
			if got := b.Bytes(); !bytesEqual(got, tt.expected) {
				t.Errorf("Bytes() = %v, want %v", got, tt.expected)
			}
			if b.Len() != len(tt.bits) {
				t.Errorf("Len() = %d, want %d", b.Len(), len(tt.bits))
			}
		})
	}
}

func TestBuffer_PadToByte(t *testing.T) {
	b := NewBuffer(8)
	b.AppendBit(true)
	b.AppendBit(true)
	b.AppendBit(true)
	b.PadToByte()
	if b.Len() != 8 {
		t.Fatalf("Len() after pad = %d, want 8", b.Len())
	}
	if got, want := b.Bytes(), []byte{0xE0}; !bytesEqual(got, want) {
		t.Errorf("Bytes() = %v, want %v", got, want)
	}

	// Already byte-aligned: PadToByte is a no-op.
	before := b.Len()
	b.PadToByte()
	if b.Len() != before {
		t.Errorf("PadToByte() on aligned buffer changed length: %d -> %d", before, b.Len())
	}
}

func TestRoundTrip(t *testing.T) {
	bits := []bool{true, false, true, true, false, false, true, false, true, true, true, false, false, false, true, true, true}

	b := NewBuffer(len(bits))
	for _, bit := range bits {
		b.AppendBit(bit)
	}

	r := NewReader(b.Bytes(), b.Len(), b.Len())
	for i, want := range bits {
		got, err := r.Bit()
		if err != nil {
			t.Fatalf("Bit() at %d returned error: %v", i, err)
		}
		if got != want {
			t.Errorf("Bit() at %d = %v, want %v", i, got, want)
		}
	}
}

func TestReader_BudgetExceeded(t *testing.T) {
	b := NewBuffer(8)
	for i := 0; i < 8; i++ {
		b.AppendBit(true)
	}
	r := NewReader(b.Bytes(), b.Len(), 3)
	for i := 0; i < 3; i++ {
		if _, err := r.Bit(); err != nil {
			t.Fatalf("Bit() at %d returned error: %v", i, err)
		}
	}
	if !r.BudgetMet() {
		t.Error("BudgetMet() = false after consuming the full budget")
	}
	if _, err := r.Bit(); err != ErrBudgetExceeded {
		t.Errorf("Bit() past budget error = %v, want ErrBudgetExceeded", err)
	}
}

func TestReader_BudgetClampedToAvailableBits(t *testing.T) {
	b := NewBuffer(4)
	for i := 0; i < 4; i++ {
		b.AppendBit(false)
	}
	r := NewReader(b.Bytes(), b.Len(), 100)
	if r.Budget() != 4 {
		t.Errorf("Budget() = %d, want 4 (clamped to nbit)", r.Budget())
	}
}

func TestFromBytes(t *testing.T) {
	b := FromBytes([]byte{0xAA}, 8)
	if b.Len() != 8 {
		t.Errorf("Len() = %d, want 8", b.Len())
	}
	r := NewReader(b.Bytes(), b.Len(), b.Len())
	want := []bool{true, false, true, false, true, false, true, false}
	for i, w := range want {
		got, err := r.Bit()
		if err != nil {
			t.Fatalf("Bit() at %d: %v", i, err)
		}
		if got != w {
			t.Errorf("Bit() at %d = %v, want %v", i, got, w)
		}
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
