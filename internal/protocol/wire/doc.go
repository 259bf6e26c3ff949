// Package wire owns the three primitive wire types.
//
// Every encoder reserves space on the block before writing and every decoder
// reserves data before reading, so a failed call leaves both cursors where
// they were.
//
//   - fixed-width unsigned integers, big endian
//   - strings: rune-encoded byte length, then the UTF-8 text; 0x00 is the
//     empty/absent string
//   - data: 4-byte big-endian length, then raw bytes; decoded data aliases
//     the block
package wire
