package statecodec

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncodeKnownValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   []byte
		want string
	}{
		{nil, "0."},
		{[]byte{0}, "1..."},
		{[]byte{0xff}, "1.+C"},
		{[]byte{1, 2, 3}, "3.AHv."},
	}
	for _, tc := range tests {
		if got := Encode(tc.in); got != tc.want {
			t.Errorf("Encode(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	for n := 0; n < 40; n++ {
		data := make([]byte, n)
		for i := range data {
			data[i] = byte(i*37 + n)
		}
		got, err := Decode(Encode(data))
		if err != nil {
			t.Fatalf("Decode(Encode(%d bytes)) error = %v", n, err)
		}
		if !bytes.Equal(got, data) {
			t.Fatalf("round trip %d bytes = %v, want %v", n, got, data)
		}
	}
}

func TestDecodeStdBase64Fallback(t *testing.T) {
	t.Parallel()

	got, err := Decode("eyJnYWluRGIiOi02fQ==")
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if string(got) != `{"gainDb":-6}` {
		t.Errorf("Decode() = %q", got)
	}
}

func TestDecodeIgnoresWhitespace(t *testing.T) {
	t.Parallel()

	got, err := Decode("  3.AH\n\tv. ")
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Errorf("Decode() = %v", got)
	}
}

func TestDecodeErrors(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"3.BI", "2.A*A", "999999999999.A", "!!!"} {
		if _, err := Decode(in); !errors.Is(err, ErrMalformed) {
			t.Errorf("Decode(%q) error = %v, want ErrMalformed", in, err)
		}
	}
}

func TestDecodeEmpty(t *testing.T) {
	t.Parallel()

	got, err := Decode("")
	if err != nil || got != nil {
		t.Errorf("Decode(\"\") = %v, %v", got, err)
	}
}
