package pickleasm_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	. "github.com/ozanh/pickleasm"
)

func TestOpcodeTags(t *testing.T) {
	// spot check tag bytes against the reference opcode table
	require.Equal(t, Opcode('('), OpMark)
	require.Equal(t, Opcode('.'), OpStop)
	require.Equal(t, Opcode('I'), OpInt)
	require.Equal(t, Opcode('J'), OpBinInt)
	require.Equal(t, Opcode('G'), OpBinFloat)
	require.Equal(t, Opcode('i'), OpInst)
	require.Equal(t, Opcode(0x80), OpProto)
	require.Equal(t, Opcode(0x8a), OpLong1)
	require.Equal(t, Opcode(0x8c), OpShortBinUnicode)
	require.Equal(t, Opcode(0x94), OpMemoize)
	require.Equal(t, Opcode(0x96), OpByteArray8)
}

func TestOpcodeTables(t *testing.T) {
	seen := make(map[string]Opcode)
	var count int
	for i := 0; i < 256; i++ {
		op := Opcode(i)
		if !IsOpcode(op) {
			continue
		}
		count++
		name := OpcodeName(op)
		require.NotEmpty(t, name)
		prev, ok := seen[name]
		require.False(t, ok, "name %s reused by 0x%02x and 0x%02x", name, prev, op)
		seen[name] = op

		proto := OpcodeProto(op)
		require.GreaterOrEqual(t, proto, 0, "opcode %s", name)
		require.LessOrEqual(t, proto, HighestProtocol, "opcode %s", name)

		kind := OpcodeOperandKind(op)
		require.GreaterOrEqual(t, int(kind), int(OperandNone), "opcode %s", name)
		require.LessOrEqual(t, int(kind), int(OperandBytes8), "opcode %s", name)
	}
	require.Equal(t, 60, count)
}

func TestOperandKinds(t *testing.T) {
	require.Equal(t, OperandNone, OpcodeOperandKind(OpMark))
	require.Equal(t, OperandUint1, OpcodeOperandKind(OpBinInt1))
	require.Equal(t, OperandUint2, OpcodeOperandKind(OpBinInt2))
	require.Equal(t, OperandInt4, OpcodeOperandKind(OpBinInt))
	require.Equal(t, OperandUint4, OpcodeOperandKind(OpLongBinGet))
	require.Equal(t, OperandFloat8, OpcodeOperandKind(OpBinFloat))
	require.Equal(t, OperandLine, OpcodeOperandKind(OpInt))
	require.Equal(t, OperandLinePair, OpcodeOperandKind(OpGlobal))
	require.Equal(t, OperandBytes1, OpcodeOperandKind(OpShortBinBytes))
	require.Equal(t, OperandBytes4, OpcodeOperandKind(OpBinUnicode))
	require.Equal(t, OperandBytes8, OpcodeOperandKind(OpBinBytes8))
}

func TestUnimplementedOpcodes(t *testing.T) {
	// persistent-id, extension registry, framing and out-of-band buffer
	// families are deliberately absent from the table
	for _, op := range []Opcode{'P', 'Q', 0x82, 0x83, 0x84, 0x95, 0x97, 0x98} {
		require.False(t, IsOpcode(op), "opcode 0x%02x", op)
		require.Panics(t, func() { OpcodeName(op) })
		require.Panics(t, func() { OpcodeProto(op) })
		require.Panics(t, func() { OpcodeOperandKind(op) })
	}
}
