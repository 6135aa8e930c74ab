package wire

import (
	"chat-relay/errors"
	"fmt"
	"unicode/utf16"
)

// EncodeModifiedUTF8 encodes s the way java.io.DataOutput#writeUTF does:
// UTF-16 code units, NUL as two bytes, supplementary characters as
// surrogate pairs of three bytes each.
func EncodeModifiedUTF8(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, 0, len(units))
	for _, c := range units {
		switch {
		case c >= 0x0001 && c <= 0x007F:
			out = append(out, byte(c))
		case c <= 0x07FF:
			out = append(out,
				0xC0|byte(c>>6),
				0x80|byte(c&0x3F))
		default:
			out = append(out,
				0xE0|byte(c>>12),
				0x80|byte((c>>6)&0x3F),
				0x80|byte(c&0x3F))
		}
	}
	return out
}

// DecodeModifiedUTF8 is the inverse of EncodeModifiedUTF8. Unpaired
// surrogates decode to U+FFFD.
func DecodeModifiedUTF8(b []byte) (string, error) {
	units := make([]uint16, 0, len(b))
	for i := 0; i < len(b); {
		a := b[i]
		switch {
		case a&0x80 == 0:
			units = append(units, uint16(a))
			i++
		case a&0xE0 == 0xC0:
			if i+1 >= len(b) || b[i+1]&0xC0 != 0x80 {
				return "", fmt.Errorf("%w: bad 2-byte sequence at %d", errors.ErrMalformedFrame, i)
			}
			units = append(units, uint16(a&0x1F)<<6|uint16(b[i+1]&0x3F))
			i += 2
		case a&0xF0 == 0xE0:
			if i+2 >= len(b) || b[i+1]&0xC0 != 0x80 || b[i+2]&0xC0 != 0x80 {
				return "", fmt.Errorf("%w: bad 3-byte sequence at %d", errors.ErrMalformedFrame, i)
			}
			units = append(units, uint16(a&0x0F)<<12|uint16(b[i+1]&0x3F)<<6|uint16(b[i+2]&0x3F))
			i += 3
		default:
			return "", fmt.Errorf("%w: unexpected byte 0x%02x at %d", errors.ErrMalformedFrame, a, i)
		}
	}
	return string(utf16.Decode(units)), nil
}
