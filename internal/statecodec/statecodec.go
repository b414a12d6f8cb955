// Package statecodec converts opaque unit state blobs to and from the text
// forms found in filter-graph documents.
//
// The primary form is the JUCE MemoryBlock encoding: the decimal byte
// count, a '.', then 6-bit groups taken least significant bit first and
// mapped through a 64 character alphabet. Plain RFC 4648 base64 is accepted
// as a fallback when decoding.
package statecodec

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const alphabet = ".ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+"

// maxSize caps the declared byte count of an encoded blob.
const maxSize = 64 << 20

// ErrMalformed is returned for text that is neither encoding.
var ErrMalformed = errors.New("malformed state encoding")

var decodeTable = func() [256]int8 {
	var t [256]int8
	for i := range t {
		t[i] = -1
	}
	for i := 0; i < len(alphabet); i++ {
		t[alphabet[i]] = int8(i)
	}
	return t
}()

// Encode returns data in the MemoryBlock form.
func Encode(data []byte) string {
	numChars := (len(data)*8 + 5) / 6

	var sb strings.Builder
	sb.Grow(numChars + 12)
	sb.WriteString(strconv.Itoa(len(data)))
	sb.WriteByte('.')
	for i := 0; i < numChars; i++ {
		sb.WriteByte(alphabet[bitRange(data, i*6, 6)])
	}
	return sb.String()
}

// Decode parses either encoding. Whitespace is ignored.
func Decode(text string) ([]byte, error) {
	text = strings.Join(strings.Fields(text), "")
	if text == "" {
		return nil, nil
	}

	if data, ok, err := decodeMemoryBlock(text); ok {
		return data, err
	}

	data, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(text)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return data, nil
}

// decodeMemoryBlock reports ok=false when text does not carry the
// "<size>." prefix.
func decodeMemoryBlock(text string) ([]byte, bool, error) {
	dot := strings.IndexByte(text, '.')
	if dot <= 0 {
		return nil, false, nil
	}
	size, err := strconv.Atoi(text[:dot])
	if err != nil {
		return nil, false, nil
	}
	if size < 0 || size > maxSize {
		return nil, true, fmt.Errorf("%w: size out of range: %d", ErrMalformed, size)
	}

	data := make([]byte, size)
	pos := 0
	for i := dot + 1; i < len(text); i++ {
		v := decodeTable[text[i]]
		if v < 0 {
			return nil, true, fmt.Errorf("%w: invalid character %q at %d", ErrMalformed, text[i], i)
		}
		setBitRange(data, pos, 6, int(v))
		pos += 6
	}
	if pos < size*8 {
		return nil, true, fmt.Errorf("%w: %d bytes declared, %d bits present", ErrMalformed, size, pos)
	}
	return data, true, nil
}

// bitRange reads n bits starting at bit start, LSB first. Bits beyond the
// end of data read as zero.
func bitRange(data []byte, start, n int) int {
	res := 0
	byteIdx := start >> 3
	offset := start & 7
	sofar := 0
	for n > 0 && byteIdx < len(data) {
		bits := min(n, 8-offset)
		mask := (0xff >> (8 - bits)) << offset
		res |= ((int(data[byteIdx]) & mask) >> offset) << sofar
		sofar += bits
		n -= bits
		byteIdx++
		offset = 0
	}
	return res
}

// setBitRange writes the low n bits of v at bit start. Bits beyond the end
// of data are discarded.
func setBitRange(data []byte, start, n, v int) {
	byteIdx := start >> 3
	offset := start & 7
	for n > 0 && byteIdx < len(data) {
		bits := min(n, 8-offset)
		mask := (0xff >> (8 - bits)) << offset
		data[byteIdx] = byte((int(data[byteIdx]) &^ mask) | ((v << offset) & mask))
		v >>= bits
		n -= bits
		byteIdx++
		offset = 0
	}
}
