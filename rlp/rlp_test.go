package rlp

import (
	"bytes"
	"errors"
	"math/big"
	"testing"
)

func TestEncodeBytes(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  []byte
	}{
		{"empty", nil, []byte{0x80}},
		{"single low byte", []byte{0x7f}, []byte{0x7f}},
		{"single high byte", []byte{0x80}, []byte{0x81, 0x80}},
		{"dog", []byte("dog"), []byte{0x83, 'd', 'o', 'g'}},
		{"55 bytes", bytes.Repeat([]byte{0xaa}, 55), append([]byte{0xb7}, bytes.Repeat([]byte{0xaa}, 55)...)},
		{"56 bytes", bytes.Repeat([]byte{0xaa}, 56), append([]byte{0xb8, 56}, bytes.Repeat([]byte{0xaa}, 56)...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeToBytes(tt.input)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Fatalf("got %x, want %x", got, tt.want)
			}
		})
	}
}

func TestEncodeUint(t *testing.T) {
	tests := []struct {
		name  string
		input uint64
		want  []byte
	}{
		{"zero", 0, []byte{0x80}},
		{"one", 1, []byte{0x01}},
		{"127", 127, []byte{0x7f}},
		{"128", 128, []byte{0x81, 0x80}},
		{"1024", 1024, []byte{0x82, 0x04, 0x00}},
		{"max", ^uint64(0), []byte{0x88, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeToBytes(tt.input)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Fatalf("got %x, want %x", got, tt.want)
			}
			if fast := EncodeUint64(tt.input); !bytes.Equal(fast, tt.want) {
				t.Fatalf("EncodeUint64 got %x, want %x", fast, tt.want)
			}
		})
	}
}

func TestEncodeBigInt(t *testing.T) {
	big56, _ := new(big.Int).SetString("10000000000000000000", 10)
	tests := []struct {
		name  string
		input *big.Int
		want  []byte
	}{
		{"zero", big.NewInt(0), []byte{0x80}},
		{"one", big.NewInt(1), []byte{0x01}},
		{"1024", big.NewInt(1024), []byte{0x82, 0x04, 0x00}},
		{"10^19", big56, []byte{0x88, 0x8a, 0xc7, 0x23, 0x04, 0x89, 0xe8, 0x00, 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeToBytes(tt.input)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Fatalf("got %x, want %x", got, tt.want)
			}
		})
	}
}

func TestEncodeNegativeBigInt(t *testing.T) {
	if _, err := EncodeToBytes(big.NewInt(-1)); !errors.Is(err, ErrNegativeBigInt) {
		t.Fatalf("got %v, want ErrNegativeBigInt", err)
	}
	if _, err := EncodeToBytes(-1); !errors.Is(err, ErrNegativeBigInt) {
		t.Fatalf("got %v, want ErrNegativeBigInt", err)
	}
}

func TestEncodeNilPointer(t *testing.T) {
	var p *big.Int
	got, err := EncodeToBytes(p)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte{0x80}) {
		t.Fatalf("got %x, want 80", got)
	}
}

func TestEncodeStruct(t *testing.T) {
	type pair struct {
		A uint64
		B []byte
	}
	got, err := EncodeToBytes(pair{A: 1, B: []byte("cat")})
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0xc5, 0x01, 0x83, 'c', 'a', 't'}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %x, want %x", got, want)
	}
}

func TestEncodeSliceOfSlices(t *testing.T) {
	// [ [], [[]], [ [], [[]] ] ] is the canonical set-theoretic example.
	input := []interface{}{
		[]interface{}{},
		[]interface{}{[]interface{}{}},
		[]interface{}{[]interface{}{}, []interface{}{[]interface{}{}}},
	}
	got, err := EncodeToBytes(input)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0xc7, 0xc0, 0xc1, 0xc0, 0xc3, 0xc0, 0xc1, 0xc0}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %x, want %x", got, want)
	}
}

func TestDecodeRoundTripStruct(t *testing.T) {
	type record struct {
		Nonce uint64
		Price *big.Int
		Data  []byte
		Flag  bool
	}
	in := record{Nonce: 42, Price: big.NewInt(1_000_000_007), Data: []byte{0xde, 0xad}, Flag: true}
	enc, err := EncodeToBytes(in)
	if err != nil {
		t.Fatal(err)
	}
	var out record
	if err := DecodeBytes(enc, &out); err != nil {
		t.Fatal(err)
	}
	if out.Nonce != in.Nonce || out.Price.Cmp(in.Price) != 0 ||
		!bytes.Equal(out.Data, in.Data) || out.Flag != in.Flag {
		t.Fatalf("round trip mismatch: %+v != %+v", out, in)
	}
}

func TestDecodeTrailingBytes(t *testing.T) {
	var got uint64
	err := DecodeBytes([]byte{0x01, 0x02}, &got)
	if !errors.Is(err, ErrTrailingBytes) {
		t.Fatalf("got %v, want ErrTrailingBytes", err)
	}
}

func TestDecodeNonCanonical(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  error
	}{
		{"single byte with string header", []byte{0x81, 0x01}, ErrCanonSize},
		{"leading zero int", []byte{0x82, 0x00, 0x01}, ErrCanonInt},
		{"long form for short string", append([]byte{0xb8, 0x02}, 1, 2), ErrNonCanonicalSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got uint64
			err := DecodeBytes(tt.input, &got)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecodeBoolStrict(t *testing.T) {
	var b bool
	if err := DecodeBytes([]byte{0x80}, &b); err != nil || b {
		t.Fatalf("empty should decode to false, got %v %v", b, err)
	}
	if err := DecodeBytes([]byte{0x01}, &b); err != nil || !b {
		t.Fatalf("0x01 should decode to true, got %v %v", b, err)
	}
	if err := DecodeBytes([]byte{0x02}, &b); !errors.Is(err, ErrCanonInt) {
		t.Fatalf("got %v, want ErrCanonInt", err)
	}
}

func TestDecodeByteArray(t *testing.T) {
	var arr [4]byte
	enc, _ := EncodeToBytes([]byte{1, 2, 3, 4})
	if err := DecodeBytes(enc, &arr); err != nil {
		t.Fatal(err)
	}
	if arr != [4]byte{1, 2, 3, 4} {
		t.Fatalf("got %v", arr)
	}
	short, _ := EncodeToBytes([]byte{1, 2})
	if err := DecodeBytes(short, &arr); !errors.Is(err, ErrValueTooLarge) {
		t.Fatalf("got %v, want ErrValueTooLarge", err)
	}
}

func TestDecodeSliceReset(t *testing.T) {
	got := []uint64{9, 9, 9, 9}
	enc, _ := EncodeToBytes([]uint64{1, 2})
	if err := DecodeBytes(enc, &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("got %v, want [1 2]", got)
	}
}

func TestStreamRaw(t *testing.T) {
	enc, _ := EncodeToBytes([]interface{}{uint64(1), []byte("dog")})
	s := NewStreamFromBytes(enc)
	raw, err := s.Raw()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(raw, enc) {
		t.Fatalf("got %x, want %x", raw, enc)
	}
}

func TestStreamListScoping(t *testing.T) {
	enc, _ := EncodeToBytes([]interface{}{uint64(7), []byte("ab")})
	s := NewStreamFromBytes(enc)
	if _, err := s.List(); err != nil {
		t.Fatal(err)
	}
	if s.AtListEnd() {
		t.Fatal("list should have items")
	}
	n, err := s.Uint64()
	if err != nil || n != 7 {
		t.Fatalf("got %d %v", n, err)
	}
	b, err := s.Bytes()
	if err != nil || string(b) != "ab" {
		t.Fatalf("got %q %v", b, err)
	}
	if !s.AtListEnd() {
		t.Fatal("list should be exhausted")
	}
	if err := s.ListEnd(); err != nil {
		t.Fatal(err)
	}
}

func TestStreamListEndEarly(t *testing.T) {
	enc, _ := EncodeToBytes([]uint64{1, 2})
	s := NewStreamFromBytes(enc)
	if _, err := s.List(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Uint64(); err != nil {
		t.Fatal(err)
	}
	if err := s.ListEnd(); !errors.Is(err, ErrEOL) {
		t.Fatalf("got %v, want ErrEOL", err)
	}
}

func TestAppendHelpers(t *testing.T) {
	var buf []byte
	buf = AppendUint64(buf, 0)
	buf = AppendUint64(buf, 1024)
	buf = AppendBytes(buf, []byte("dog"))
	want := []byte{0x80, 0x82, 0x04, 0x00, 0x83, 'd', 'o', 'g'}
	if !bytes.Equal(buf, want) {
		t.Fatalf("got %x, want %x", buf, want)
	}
	wrapped := WrapList(buf)
	if wrapped[0] != 0xc0+byte(len(buf)) || !bytes.Equal(wrapped[1:], buf) {
		t.Fatalf("bad list wrap %x", wrapped)
	}
}
