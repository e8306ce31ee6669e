package pickleasm_test

import (
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	. "github.com/ozanh/pickleasm"
)

func TestUtilPushScalars(t *testing.T) {
	testCases := []struct {
		name  string
		proto int
		value interface{}
		want  string
	}{
		{"nil", 1, nil, "N"},
		{"true text", 0, true, "I01\n"},
		{"false text", 1, false, "I00\n"},
		{"true", 2, true, "\x88"},
		{"false", 2, false, "\x89"},
		{"int text", 0, 300, "I300\n"},
		{"int u8", 2, 255, "K\xff"},
		{"int u16", 1, 300, "M\x2c\x01"},
		{"int s32", 2, 70000, "J\x70\x11\x01\x00"},
		{"int negative", 2, -1, "J\xff\xff\xff\xff"},
		{"int wide text", 1, int64(1) << 40, "I1099511627776\n"},
		{"int wide", 2, int64(1) << 40, "\x8a\x06\x00\x00\x00\x00\x00\x01"},
		{"uint64 wide", 2, uint64(1) << 63, "\x8a\x09\x00\x00\x00\x00\x00\x00\x00\x80\x00"},
		{"float text", 0, 1.5, "F1.5\n"},
		{"float", 1, 1.5, "G\x3f\xf8\x00\x00\x00\x00\x00\x00"},
		{"string text", 0, "hi", "Vhi\n"},
		{"string", 2, "ab", "X\x02\x00\x00\x00ab"},
		{"string short", 4, "ab", "\x8c\x02ab"},
		{"bytes short", 3, []byte{0xcc}, "C\x01\xcc"},
	}
	for _, tC := range testCases {
		t.Run(tC.name, func(t *testing.T) {
			require.Equal(t, []byte(tC.want),
				emitBody(t, tC.proto, func(pa *Assembler) error {
					return pa.UtilPush(tC.value)
				}))
		})
	}
}

func TestUtilPushBigInt(t *testing.T) {
	big70 := new(big.Int).Lsh(big.NewInt(1), 70)

	testCases := []struct {
		name  string
		proto int
		value *big.Int
		want  string
	}{
		{"fits binint1", 2, big.NewInt(7), "K\x07"},
		{"text long", 0, big70, "L1180591620717411303424\n"},
		{"long1", 2, big70, "\x8a\x09\x00\x00\x00\x00\x00\x00\x00\x00\x40"},
	}
	for _, tC := range testCases {
		t.Run(tC.name, func(t *testing.T) {
			require.Equal(t, []byte(tC.want),
				emitBody(t, tC.proto, func(pa *Assembler) error {
					return pa.UtilPushBigInt(tC.value)
				}))
		})
	}

	// a magnitude needing 256+ bytes must fall back to LONG4
	huge := new(big.Int).Lsh(big.NewInt(1), 2048)
	body := emitBody(t, 2, func(pa *Assembler) error {
		return pa.UtilPushBigInt(huge)
	})
	require.Equal(t, OpLong4, body[0])
	require.Equal(t, []byte{0x01, 0x01, 0x00, 0x00}, body[1:5]) // 257 bytes
	require.Equal(t, 5+257, len(body))

	pa, err := NewAssembler(2)
	require.NoError(t, err)
	require.ErrorIs(t, pa.UtilPushBigInt(nil), ErrInvalidValue)
}

func TestUtilPushContainers(t *testing.T) {
	testCases := []struct {
		name  string
		proto int
		value interface{}
		want  string
	}{
		{"empty tuple text", 0, Tuple{}, "(t"},
		{"empty tuple", 2, Tuple{}, ")"},
		{"tuple1", 2, Tuple{1}, "K\x01\x85"},
		{"tuple2", 2, Tuple{1, "ab"}, "K\x01X\x02\x00\x00\x00ab\x86"},
		{"tuple3", 2, Tuple{1, 2, 3}, "K\x01K\x02K\x03\x87"},
		{"tuple4", 2, Tuple{1, 2, 3, 4}, "(K\x01K\x02K\x03K\x04t"},
		{"tuple marked", 1, Tuple{1, 2}, "(K\x01K\x02t"},
		{"empty list text", 0, []interface{}{}, "(l"},
		{"empty list", 1, []interface{}{}, "]"},
		{"list", 2, []interface{}{1, nil}, "(K\x01Nl"},
		{"empty dict text", 0, map[interface{}]interface{}{}, "(d"},
		{"empty dict", 1, map[interface{}]interface{}{}, "}"},
		{"dict", 2, map[interface{}]interface{}{"a": 1}, "(X\x01\x00\x00\x00aK\x01d"},
		{"nested", 2, Tuple{[]interface{}{true}}, "(\x88l\x85"},
	}
	for _, tC := range testCases {
		t.Run(tC.name, func(t *testing.T) {
			require.Equal(t, []byte(tC.want),
				emitBody(t, tC.proto, func(pa *Assembler) error {
					return pa.UtilPush(tC.value)
				}))
		})
	}
}

func TestUtilPushErrors(t *testing.T) {
	pa, err := NewAssembler(2)
	require.NoError(t, err)

	err = pa.UtilPush(struct{}{})
	require.ErrorIs(t, err, ErrType)
	require.Contains(t, err.Error(), "struct {}")

	// bytes objects do not exist below protocol 3
	err = pa.UtilPushBytes([]byte("x"))
	require.ErrorIs(t, err, ErrProtocolMismatch)
}

func TestUtilPushStringWidths(t *testing.T) {
	long := strings.Repeat("a", 256)

	body := emitBody(t, 4, func(pa *Assembler) error {
		return pa.UtilPushString(long)
	})
	require.Equal(t, OpBinUnicode, body[0])
	require.Equal(t, []byte{0x00, 0x01, 0x00, 0x00}, body[1:5])

	body = emitBody(t, 1, func(pa *Assembler) error {
		return pa.UtilPushString("x")
	})
	require.Equal(t, OpBinUnicode, body[0])
}

func TestUtilMemo(t *testing.T) {
	// text forms at protocol 0
	body := emitBody(t, 0, func(pa *Assembler) error {
		if err := pa.UtilMemoPut(); err != nil {
			return err
		}
		return pa.UtilMemoGet(3)
	})
	require.Equal(t, []byte("p0\ng3\n"), body)

	// binary forms elsewhere, width chosen by magnitude
	body = emitBody(t, 1, func(pa *Assembler) error {
		if err := pa.UtilMemoPut(); err != nil {
			return err
		}
		if err := pa.UtilMemoGet(5); err != nil {
			return err
		}
		return pa.UtilMemoGet(300)
	})
	require.Equal(t, []byte("q\x00h\x05j\x2c\x01\x00\x00"), body)

	pa, err := NewAssembler(1)
	require.NoError(t, err)
	require.ErrorIs(t, pa.UtilMemoGet(-1), ErrOutOfRange)
}
