package afelt

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
)

var (
	// ErrEmptyHex is returned from [ParseHex] when there are no digits to parse.
	ErrEmptyHex = errors.New("no hex digits")

	// ErrOutOfDomain is returned from [ParseHex]
	// when the value does not fit below the field modulus.
	ErrOutOfDomain = errors.New("value not below field modulus")
)

// InvalidHexDigitError is returned from [ParseHex]
// when the input contains a character that is not a hex digit.
type InvalidHexDigitError struct {
	Char rune
	Pos  int
}

func (e InvalidHexDigitError) Error() string {
	return fmt.Sprintf("invalid hex digit %q at position %d", e.Char, e.Pos)
}

// ParseHex parses s as a hexadecimal field element.
// An optional "0x" or "0X" prefix is accepted.
// Leading zeros are permitted, but signs, separators, and whitespace are not.
func ParseHex(s string) (fp.Element, error) {
	digits := s
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		digits = digits[2:]
	}
	if digits == "" {
		return fp.Element{}, ErrEmptyHex
	}

	offset := len(s) - len(digits)
	for i, c := range digits {
		if !isHexDigit(c) {
			return fp.Element{}, InvalidHexDigitError{Char: c, Pos: offset + i}
		}
	}

	var v big.Int
	if _, ok := v.SetString(digits, 16); !ok {
		// Every character was already checked.
		panic(fmt.Errorf("BUG: big.Int rejected validated hex digits %q", digits))
	}

	if v.Cmp(fp.Modulus()) >= 0 {
		return fp.Element{}, ErrOutOfDomain
	}

	var e fp.Element
	e.SetBigInt(&v)
	return e, nil
}

func isHexDigit(c rune) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

// FromUint64 embeds v as the low 8 bytes of a 32-byte big-endian buffer.
// Any uint64 is below the modulus, so this never fails.
func FromUint64(v uint64) fp.Element {
	var buf [fp.Bytes]byte
	binary.BigEndian.PutUint64(buf[fp.Bytes-8:], v)

	var e fp.Element
	e.SetBytes(buf[:])
	return e
}

// Hex renders e as a "0x"-prefixed lowercase hex string without leading zeros.
// Zero renders as "0x0".
func Hex(e *fp.Element) string {
	return "0x" + e.Text(16)
}

// Decimal renders e in base 10.
func Decimal(e *fp.Element) string {
	return e.Text(10)
}

// Less reports whether a is numerically smaller than b.
func Less(a, b *fp.Element) bool {
	return a.Cmp(b) < 0
}

// Uint64 returns e as a uint64, and whether e fits in 64 bits.
func Uint64(e *fp.Element) (uint64, bool) {
	var v big.Int
	e.BigInt(&v)
	if !v.IsUint64() {
		return 0, false
	}
	return v.Uint64(), true
}
