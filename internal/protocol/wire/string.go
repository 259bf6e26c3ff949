package wire

import (
	"fmt"
	"unicode/utf8"

	"github.com/danmuck/pepys/internal/protocol/block"
)

// MaxStringLen is the longest text a rune-encoded length can describe.
const MaxStringLen = utf8.MaxRune

// PutString writes s as a rune-encoded length followed by its bytes.
// The empty string is written as the single absent-string byte 0x00.
func PutString(b *block.Block, s string) error {
	n := len(s)
	if n == 0 {
		return PutU8(b, 0)
	}
	if n > MaxStringLen || !utf8.ValidRune(rune(n)) || rune(n) == utf8.RuneError {
		return fmt.Errorf("%w: length %d is not a rune", ErrBadEncoding, n)
	}
	var prefix [utf8.UTFMax]byte
	sz := utf8.EncodeRune(prefix[:], rune(n))
	p, err := b.Extend(sz + n)
	if err != nil {
		return err
	}
	copy(p, prefix[:sz])
	copy(p[sz:], s)
	return nil
}

// String reads a rune-encoded length and that many bytes of text. The text
// is copied out of the block.
func String(b *block.Block) (string, error) {
	head := b.Peek(utf8.UTFMax)
	if len(head) == 0 {
		return "", fmt.Errorf("%w: missing string length", ErrOutOfSpace)
	}
	if head[0] == 0 {
		_, err := b.Next(1)
		return "", err
	}
	if !utf8.FullRune(head) {
		return "", fmt.Errorf("%w: truncated string length", ErrOutOfSpace)
	}
	n, sz := utf8.DecodeRune(head)
	if n == utf8.RuneError {
		return "", ErrBadEncoding
	}
	p, err := b.Next(sz + int(n))
	if err != nil {
		return "", err
	}
	return string(p[sz:]), nil
}

// StringSize returns the number of bytes PutString writes for s.
func StringSize(s string) int {
	if len(s) == 0 {
		return 1
	}
	return utf8.RuneLen(rune(len(s))) + len(s)
}
