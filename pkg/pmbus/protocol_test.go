package pmbus

import (
	"bytes"
	"errors"
	"testing"
)

func TestNewFramerClampsMaxBlock(t *testing.T) {
	if f := NewFramer(0x40, false, 0); f.MaxBlock != BlockMax {
		t.Fatalf("MaxBlock = %d, want %d", f.MaxBlock, BlockMax)
	}
	if f := NewFramer(0x40, false, 1000); f.MaxBlock != BlockMax {
		t.Fatalf("MaxBlock = %d, want %d", f.MaxBlock, BlockMax)
	}
	if f := NewFramer(0x40, false, 32); f.MaxBlock != 32 {
		t.Fatalf("MaxBlock = %d, want 32", f.MaxBlock)
	}
}

func TestEncodeBlockRead(t *testing.T) {
	f := NewFramer(0x40, false, 32)
	w, n := f.EncodeBlockRead(0xEA)
	if !bytes.Equal(w, []byte{0xEA}) || n != 33 {
		t.Fatalf("EncodeBlockRead = %X/%d, want EA/33", w, n)
	}

	f.PEC = true
	if _, n := f.EncodeBlockRead(0xEA); n != 34 {
		t.Fatalf("read length with PEC = %d, want 34", n)
	}
}

func TestEncodeBlockWriteRead(t *testing.T) {
	f := NewFramer(0x40, false, 4)
	w, n, err := f.EncodeBlockWriteRead(0xD4, []byte{0xFF})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(w, []byte{0xD4, 0x01, 0xFF}) || n != 5 {
		t.Fatalf("EncodeBlockWriteRead = %X/%d", w, n)
	}

	if _, _, err := f.EncodeBlockWriteRead(0xD4, make([]byte, 5)); !errors.Is(err, ErrBlockLength) {
		t.Fatalf("expected ErrBlockLength for oversized request, got %v", err)
	}
}

func TestDecodeBlock(t *testing.T) {
	f := NewFramer(0x40, false, 4)
	data, err := f.DecodeBlock([]byte{0xEA}, []byte{0x02, 0x34, 0x12, 0xFF, 0xFF})
	if err != nil {
		t.Fatalf("DecodeBlock returned error: %v", err)
	}
	if !bytes.Equal(data, []byte{0x34, 0x12}) {
		t.Fatalf("data = %X, want 3412", data)
	}

	tests := []struct {
		name string
		resp []byte
		want error
	}{
		{"empty", nil, ErrShortResponse},
		{"length beyond max", []byte{0x05, 0, 0, 0, 0}, ErrBlockLength},
		{"length beyond buffer", []byte{0x03, 0, 0}, ErrBlockLength},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.DecodeBlock([]byte{0xEA}, tt.resp); !errors.Is(err, tt.want) {
				t.Fatalf("DecodeBlock error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecodeBlockPEC(t *testing.T) {
	f := NewFramer(0x40, true, 4)
	w := []byte{0xEA}
	payload := []byte{0x02, 0x34, 0x12}
	pec := f.ExpectedPEC(w, payload)

	resp := append(append([]byte(nil), payload...), pec, 0xFF, 0xFF)
	if _, err := f.DecodeBlock(w, resp); err != nil {
		t.Fatalf("valid PEC rejected: %v", err)
	}

	resp[3] ^= 0x01
	if _, err := f.DecodeBlock(w, resp); !errors.Is(err, ErrPEC) {
		t.Fatalf("expected ErrPEC, got %v", err)
	}
}

func TestDecodeWord(t *testing.T) {
	f := NewFramer(0x40, false, BlockMax)
	v, err := f.DecodeWord([]byte{0xD9}, []byte{0x34, 0x12})
	if err != nil || v != 0x1234 {
		t.Fatalf("DecodeWord = 0x%04X, %v; want 0x1234", v, err)
	}
	if _, err := f.DecodeWord([]byte{0xD9}, []byte{0x34}); !errors.Is(err, ErrShortResponse) {
		t.Fatalf("expected ErrShortResponse, got %v", err)
	}

	f.PEC = true
	w := []byte{0xD9}
	pec := f.ExpectedPEC(w, []byte{0x34, 0x12})
	if v, err := f.DecodeWord(w, []byte{0x34, 0x12, pec}); err != nil || v != 0x1234 {
		t.Fatalf("DecodeWord with PEC = 0x%04X, %v", v, err)
	}
	if _, err := f.DecodeWord(w, []byte{0x34, 0x12, pec + 1}); !errors.Is(err, ErrPEC) {
		t.Fatalf("expected ErrPEC, got %v", err)
	}
}
