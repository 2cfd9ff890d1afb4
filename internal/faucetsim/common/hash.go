package common

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

const (
	HashLength    = 32
	AddressLength = 20
)

type Hash [HashLength]byte

func BytesToHash(b []byte) Hash {
	var h Hash
	h.SetBytes(b)
	return h
}

// BigToHash sets byte representation of b to hash.
// If b is larger than len(h), b will be cropped from the left.
func BigToHash(b *big.Int) Hash { return BytesToHash(b.Bytes()) }

// HexToHash sets byte representation of s to hash.
func HexToHash(s string) Hash { return BytesToHash(FromHex(s)) }

func (h *Hash) SetBytes(b []byte) {
	if len(b) > len(h) {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
}

func (h Hash) Bytes() []byte { return h[:] }

// Big converts a hash to a big integer.
func (h Hash) Big() *big.Int { return new(big.Int).SetBytes(h[:]) }

func (h Hash) Hex() string {
	enc := make([]byte, len(h)*2+2)
	copy(enc, "0x")
	hex.Encode(enc[2:], h[:])
	return string(enc)
}

func (h Hash) String() string { return h.Hex() }

// TerminalString returns a shortened hash for log output.
func (h Hash) TerminalString() string {
	return fmt.Sprintf("%x..%x", h[:3], h[29:])
}

func (h Hash) IsZero() bool { return h == Hash{} }

// MarshalText returns the hex representation of h.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.Hex()), nil
}

// UnmarshalText parses a hash in hex syntax.
func (h *Hash) UnmarshalText(input []byte) error {
	return unmarshalFixedText("Hash", input, h[:])
}

type Address [AddressLength]byte

func BytesToAddress(b []byte) Address {
	var a Address
	a.SetBytes(b)
	return a
}

func HexToAddress(s string) Address { return BytesToAddress(FromHex(s)) }

// BigToAddress returns the address held in the low 20 bytes of a VM word.
func BigToAddress(b *big.Int) Address { return BytesToAddress(b.Bytes()) }

// IsHexAddress reports whether s is a 20 byte hex encoded address
// with or without the 0x prefix.
func IsHexAddress(s string) bool {
	if has0xPrefix(s) {
		s = s[2:]
	}
	if len(s) != 2*AddressLength {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

func (a *Address) SetBytes(b []byte) {
	if len(b) > len(a) {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
}

func (a Address) Bytes() []byte { return a[:] }

// Big returns the address as a VM word.
func (a Address) Big() *big.Int { return new(big.Int).SetBytes(a[:]) }

// Hash left-pads the address to a 32 byte word, as used for indexed topics.
func (a Address) Hash() Hash { return BytesToHash(a[:]) }

func (a Address) Hex() string {
	enc := make([]byte, len(a)*2+2)
	copy(enc, "0x")
	hex.Encode(enc[2:], a[:])
	return string(enc)
}

func (a Address) String() string { return a.Hex() }

func (a Address) IsZero() bool { return a == Address{} }

func (a Address) Cmp(other Address) int { return bytes.Compare(a[:], other[:]) }

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.Hex()), nil
}

func (a *Address) UnmarshalText(input []byte) error {
	return unmarshalFixedText("Address", input, a[:])
}

// FromHex returns the bytes represented by the hexadecimal string s.
// s may be prefixed with "0x".
func FromHex(s string) []byte {
	if has0xPrefix(s) {
		s = s[2:]
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	h, _ := hex.DecodeString(s)
	return h
}

// Bytes2Hex returns the hexadecimal encoding of d without prefix.
func Bytes2Hex(d []byte) string { return hex.EncodeToString(d) }

// CopyBytes returns an exact copy of the provided bytes.
func CopyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}

// LeftPadBytes zero-pads slice to the left up to length l.
func LeftPadBytes(slice []byte, l int) []byte {
	if l <= len(slice) {
		return slice
	}
	padded := make([]byte, l)
	copy(padded[l-len(slice):], slice)
	return padded
}

func has0xPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

func unmarshalFixedText(typname string, input []byte, out []byte) error {
	s := strings.TrimSpace(string(input))
	if !has0xPrefix(s) {
		return fmt.Errorf("%s: hex string without 0x prefix", typname)
	}
	raw, err := hex.DecodeString(s[2:])
	if err != nil {
		return fmt.Errorf("%s: %w", typname, err)
	}
	if len(raw) != len(out) {
		return fmt.Errorf("%s: hex string has length %d, want %d", typname, len(raw)*2, len(out)*2)
	}
	copy(out, raw)
	return nil
}
