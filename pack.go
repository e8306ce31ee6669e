// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package pickleasm

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"strconv"
)

// In the pickle format, length and index fields are little endian. Only the
// binary float operand is big endian.

// line returns text followed by a newline, the layout of text mode operands.
func line(text string) []byte {
	return append([]byte(text), '\n')
}

// encodeLength encodes n as a little-endian unsigned length field of the
// given byte width. It reports false when n does not fit the width.
func encodeLength(n uint64, width int) ([]byte, bool) {
	switch width {
	case 1:
		if n > 1<<8-1 {
			return nil, false
		}
		return []byte{byte(n)}, true
	case 4:
		if n > 1<<32-1 {
			return nil, false
		}
		return binary.LittleEndian.AppendUint32(nil, uint32(n)), true
	case 8:
		return binary.LittleEndian.AppendUint64(nil, n), true
	}
	panic(fmt.Errorf("pickleasm: invalid length width %d", width))
}

// encodeLong encodes v as the minimal little-endian two's-complement byte
// sequence used by the LONG1 and LONG4 opcodes. Zero encodes to no bytes.
func encodeLong(v *big.Int) []byte {
	if v.Sign() == 0 {
		return nil
	}
	nbytes := v.BitLen()>>3 + 1
	result := make([]byte, nbytes)
	if v.Sign() > 0 {
		v.FillBytes(result)
		reverseBytes(result)
		return result
	}
	// two's complement of a negative value is v + 2^(8*nbytes)
	t := new(big.Int).Lsh(big.NewInt(1), uint(8*nbytes))
	t.Add(t, v)
	t.FillBytes(result)
	reverseBytes(result)
	if nbytes > 1 && result[nbytes-1] == 0xff && result[nbytes-2]&0x80 != 0 {
		result = result[:nbytes-1]
	}
	return result
}

func reverseBytes(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

// formatFloat renders v in the decimal repr form used by the text mode
// FLOAT operand.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// rawUnicodeEscape encodes s the way Python's raw-unicode-escape codec does
// for the UNICODE opcode operand. Backslash, NUL and line control characters
// are escaped as well, otherwise they would break the newline-terminated
// operand layout.
func rawUnicodeEscape(s string) []byte {
	var b []byte
	for _, r := range s {
		switch {
		case r == '\\' || r == 0 || r == '\n' || r == '\r' || r == 0x1a:
			b = appendEscaped(b, r)
		case r < 0x100:
			b = append(b, byte(r))
		default:
			b = appendEscaped(b, r)
		}
	}
	return b
}

func appendEscaped(b []byte, r rune) []byte {
	b = append(b, '\\')
	if r < 0x10000 {
		return append(b, fmt.Sprintf("u%04x", r)...)
	}
	return append(b, fmt.Sprintf("U%08x", r)...)
}
