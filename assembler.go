// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package pickleasm

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Assembler assembles a pickle payload opcode by opcode. One Assembler owns
// one growing payload; it is not safe for concurrent use.
//
// Emitter methods append a complete instruction or nothing: when a call
// returns an error the payload is unchanged and the session stays usable.
type Assembler struct {
	proto        int
	noVerify     bool
	trace        io.Writer
	payload      []byte
	marks        []int
	memoCount    int
	highestProto int
}

// AssemblerOptions represents customizable options for NewAssemblerOptions.
type AssemblerOptions struct {
	// Protocol is the pickle protocol version to generate. A PROTO header
	// is emitted if Protocol >= 2.
	Protocol int
	// NoVerify disables checking emitted opcodes against the declared
	// protocol version. Mark and operand range checks still apply.
	NoVerify bool
	// Trace is used to print a trace of emitted instructions during
	// assembly.
	Trace io.Writer
}

// NewAssembler creates a new Assembler for the given pickle protocol
// version.
func NewAssembler(proto int) (*Assembler, error) {
	return NewAssemblerOptions(AssemblerOptions{Protocol: proto})
}

// NewAssemblerOptions creates a new Assembler with the given options.
func NewAssemblerOptions(opts AssemblerOptions) (*Assembler, error) {
	if opts.Protocol < 0 || opts.Protocol > HighestProtocol {
		return nil, ErrUnsupportedProtocol
	}
	a := &Assembler{
		proto:    opts.Protocol,
		noVerify: opts.NoVerify,
		trace:    opts.Trace,
	}
	if opts.Protocol >= 2 {
		_ = a.emit(OpProto, byte(opts.Protocol))
	}
	return a, nil
}

// Protocol returns the declared protocol version.
func (a *Assembler) Protocol() int { return a.proto }

// HighestProtocolUsed returns the maximum of the minimum protocol versions
// of all opcodes emitted so far.
func (a *Assembler) HighestProtocolUsed() int { return a.highestProto }

// MemoCount returns the next free memo index.
func (a *Assembler) MemoCount() int { return a.memoCount }

// MarkDepth returns the number of open MARKs. A nonzero depth at assembly
// time usually signals a caller error, but Assemble does not enforce
// balance; deliberately unbalanced payloads are legal.
func (a *Assembler) MarkDepth() int { return len(a.marks) }

// Len returns the current payload length in bytes.
func (a *Assembler) Len() int { return len(a.payload) }

// emit appends the opcode and its fully encoded operands as a single
// instruction. Nothing is appended when protocol verification fails.
func (a *Assembler) emit(op Opcode, operands ...byte) error {
	if !a.noVerify && OpcodeProto(op) > a.proto {
		return NewProtocolMismatchError(op, a.proto)
	}
	pos := len(a.payload)
	a.payload = append(a.payload, op)
	a.payload = append(a.payload, operands...)
	if p := OpcodeProtos[op]; p > a.highestProto {
		a.highestProto = p
	}
	if a.trace != nil {
		a.printTrace(pos, op, operands)
	}
	return nil
}

// emitFromMark emits an opcode that consumes everything back to the last
// open MARK, popping it from the mark stack.
func (a *Assembler) emitFromMark(op Opcode, operands ...byte) error {
	if len(a.marks) == 0 {
		return NewMarkUnderflowError(op)
	}
	if err := a.emit(op, operands...); err != nil {
		return err
	}
	a.marks = a.marks[:len(a.marks)-1]
	return nil
}

// emitPrefixed emits an opcode whose operand is data preceded by a length
// field. The field width comes from the opcode's operand layout.
func (a *Assembler) emitPrefixed(op Opcode, data []byte) error {
	var width int
	switch kind := OpcodeOperandKind(op); kind {
	case OperandBytes1:
		width = 1
	case OperandBytes4:
		width = 4
	case OperandBytes8:
		width = 8
	default:
		panic(fmt.Errorf("pickleasm: opcode %s has no length-prefixed operand",
			OpcodeName(op)))
	}
	prefix, ok := encodeLength(uint64(len(data)), width)
	if !ok {
		return NewOutOfRangeError("length", op)
	}
	operands := make([]byte, 0, len(prefix)+len(data))
	operands = append(operands, prefix...)
	operands = append(operands, data...)
	return a.emit(op, operands...)
}

func (a *Assembler) printTrace(pos int, op Opcode, operands []byte) {
	if len(operands) == 0 {
		fmt.Fprintf(a.trace, "EMIT  %04d %s\n", pos, OpcodeName(op))
		return
	}
	fmt.Fprintf(a.trace, "EMIT  %04d %-16s %x\n", pos, OpcodeName(op), operands)
}

// AppendRaw appends pre-encoded raw opcode data to the payload. It bypasses
// every check the emitters perform: no protocol verification, no mark or
// memo bookkeeping, no operand validation. The caller is on its own.
func (a *Assembler) AppendRaw(data []byte) {
	a.payload = append(a.payload, data...)
}

// Assemble appends the STOP opcode and returns a copy of the payload along
// with the highest protocol version required by the emitted opcodes.
//
// Assemble does not reset the session. Calling it again appends another
// STOP, so the second result differs from the first only by the duplicated
// terminator.
func (a *Assembler) Assemble() ([]byte, int) {
	_ = a.emit(OpStop)
	out := make([]byte, len(a.payload))
	copy(out, a.payload)
	return out, a.highestProto
}

// Push family. Each method corresponds to one opcode that places a value on
// the virtual machine stack.

// PushNone emits the NONE opcode.
func (a *Assembler) PushNone() error { return a.emit(OpNone) }

// PushTrue emits the NEWTRUE opcode.
func (a *Assembler) PushTrue() error { return a.emit(OpNewTrue) }

// PushFalse emits the NEWFALSE opcode.
func (a *Assembler) PushFalse() error { return a.emit(OpNewFalse) }

// PushBool emits the INT opcode with the 01/00 text form that the reference
// format uses for booleans in text mode.
func (a *Assembler) PushBool(value bool) error {
	if value {
		return a.emit(OpInt, '0', '1', '\n')
	}
	return a.emit(OpInt, '0', '0', '\n')
}

// PushInt emits the INT opcode with a decimal text operand.
func (a *Assembler) PushInt(value int64) error {
	return a.emit(OpInt, line(strconv.FormatInt(value, 10))...)
}

// PushBinInt emits the BININT opcode with a 4-byte signed operand.
func (a *Assembler) PushBinInt(value int64) error {
	if value < math.MinInt32 || value > math.MaxInt32 {
		return NewOutOfRangeError("integer", OpBinInt)
	}
	return a.emit(OpBinInt,
		binary.LittleEndian.AppendUint32(nil, uint32(int32(value)))...)
}

// PushBinInt1 emits the BININT1 opcode with a 1-byte unsigned operand.
func (a *Assembler) PushBinInt1(value int64) error {
	if value < 0 || value > math.MaxUint8 {
		return NewOutOfRangeError("integer", OpBinInt1)
	}
	return a.emit(OpBinInt1, byte(value))
}

// PushBinInt2 emits the BININT2 opcode with a 2-byte unsigned operand.
func (a *Assembler) PushBinInt2(value int64) error {
	if value < 0 || value > math.MaxUint16 {
		return NewOutOfRangeError("integer", OpBinInt2)
	}
	return a.emit(OpBinInt2,
		binary.LittleEndian.AppendUint16(nil, uint16(value))...)
}

// PushLong emits the LONG opcode with a decimal text operand.
func (a *Assembler) PushLong(value *big.Int) error {
	if value == nil {
		return ErrInvalidValue.NewError("value must not be nil")
	}
	return a.emit(OpLong, line(value.String())...)
}

// PushLong1 emits the LONG1 opcode, encoding value as a little-endian
// two's-complement byte sequence of fewer than 256 bytes.
func (a *Assembler) PushLong1(value *big.Int) error {
	if value == nil {
		return ErrInvalidValue.NewError("value must not be nil")
	}
	return a.emitPrefixed(OpLong1, encodeLong(value))
}

// PushLong4 emits the LONG4 opcode, encoding value as a little-endian
// two's-complement byte sequence with a 4-byte length prefix.
func (a *Assembler) PushLong4(value *big.Int) error {
	if value == nil {
		return ErrInvalidValue.NewError("value must not be nil")
	}
	data := encodeLong(value)
	if uint64(len(data)) > math.MaxInt32 {
		return NewOutOfRangeError("integer", OpLong4)
	}
	return a.emitPrefixed(OpLong4, data)
}

// PushFloat emits the FLOAT opcode with a decimal text operand.
func (a *Assembler) PushFloat(value float64) error {
	return a.emit(OpFloat, line(formatFloat(value))...)
}

// PushBinFloat emits the BINFLOAT opcode with an 8-byte big-endian IEEE-754
// operand.
func (a *Assembler) PushBinFloat(value float64) error {
	return a.emit(OpBinFloat,
		binary.BigEndian.AppendUint64(nil, math.Float64bits(value))...)
}

// PushString emits the STRING opcode with a quoted, newline-terminated text
// operand.
func (a *Assembler) PushString(value string) error {
	return a.emit(OpString, line(strconv.QuoteToASCII(value))...)
}

// PushBinString emits the BINSTRING opcode with a 4-byte length prefix.
func (a *Assembler) PushBinString(value string) error {
	if uint64(len(value)) > math.MaxInt32 {
		return NewOutOfRangeError("string", OpBinString)
	}
	return a.emitPrefixed(OpBinString, []byte(value))
}

// PushShortBinString emits the SHORT_BINSTRING opcode; the string must be
// shorter than 256 bytes.
func (a *Assembler) PushShortBinString(value string) error {
	return a.emitPrefixed(OpShortBinString, []byte(value))
}

// PushBinBytes emits the BINBYTES opcode with a 4-byte length prefix.
func (a *Assembler) PushBinBytes(value []byte) error {
	return a.emitPrefixed(OpBinBytes, value)
}

// PushBinBytes8 emits the BINBYTES8 opcode with an 8-byte length prefix.
func (a *Assembler) PushBinBytes8(value []byte) error {
	return a.emitPrefixed(OpBinBytes8, value)
}

// PushShortBinBytes emits the SHORT_BINBYTES opcode; the value must be
// shorter than 256 bytes.
func (a *Assembler) PushShortBinBytes(value []byte) error {
	return a.emitPrefixed(OpShortBinBytes, value)
}

// PushByteArray8 emits the BYTEARRAY8 opcode with an 8-byte length prefix.
func (a *Assembler) PushByteArray8(value []byte) error {
	return a.emitPrefixed(OpByteArray8, value)
}

// PushUnicode emits the UNICODE opcode with a raw-unicode-escaped,
// newline-terminated operand.
func (a *Assembler) PushUnicode(value string) error {
	return a.emit(OpUnicode, line(string(rawUnicodeEscape(value)))...)
}

// PushBinUnicode emits the BINUNICODE opcode with a 4-byte length prefix
// and UTF-8 content.
func (a *Assembler) PushBinUnicode(value string) error {
	return a.emitPrefixed(OpBinUnicode, []byte(value))
}

// PushBinUnicode8 emits the BINUNICODE8 opcode with an 8-byte length
// prefix.
func (a *Assembler) PushBinUnicode8(value string) error {
	return a.emitPrefixed(OpBinUnicode8, []byte(value))
}

// PushShortBinUnicode emits the SHORT_BINUNICODE opcode; the UTF-8 content
// must be shorter than 256 bytes.
func (a *Assembler) PushShortBinUnicode(value string) error {
	return a.emitPrefixed(OpShortBinUnicode, []byte(value))
}

// PushEmptyTuple emits the EMPTY_TUPLE opcode.
func (a *Assembler) PushEmptyTuple() error { return a.emit(OpEmptyTuple) }

// PushEmptyList emits the EMPTY_LIST opcode.
func (a *Assembler) PushEmptyList() error { return a.emit(OpEmptyList) }

// PushEmptyDict emits the EMPTY_DICT opcode.
func (a *Assembler) PushEmptyDict() error { return a.emit(OpEmptyDict) }

// PushEmptySet emits the EMPTY_SET opcode.
func (a *Assembler) PushEmptySet() error { return a.emit(OpEmptySet) }

// PushGlobal emits the GLOBAL opcode with module and name as two
// newline-terminated operands.
func (a *Assembler) PushGlobal(module, name string) error {
	if err := checkLineOperand(module, "module"); err != nil {
		return err
	}
	if err := checkLineOperand(name, "name"); err != nil {
		return err
	}
	operands := append(line(module), line(name)...)
	return a.emit(OpGlobal, operands...)
}

// PushMark emits the MARK opcode and records the pre-append payload offset
// on the mark stack.
func (a *Assembler) PushMark() error {
	pos := len(a.payload)
	if err := a.emit(OpMark); err != nil {
		return err
	}
	a.marks = append(a.marks, pos)
	return nil
}

// Build family. Each method corresponds to one opcode that replaces already
// pushed values with one constructed value, or mutates a built container.

// BuildTuple emits the TUPLE opcode, consuming the last open MARK.
func (a *Assembler) BuildTuple() error { return a.emitFromMark(OpTuple) }

// BuildTuple1 emits the TUPLE1 opcode.
func (a *Assembler) BuildTuple1() error { return a.emit(OpTuple1) }

// BuildTuple2 emits the TUPLE2 opcode.
func (a *Assembler) BuildTuple2() error { return a.emit(OpTuple2) }

// BuildTuple3 emits the TUPLE3 opcode.
func (a *Assembler) BuildTuple3() error { return a.emit(OpTuple3) }

// BuildList emits the LIST opcode, consuming the last open MARK.
func (a *Assembler) BuildList() error { return a.emitFromMark(OpList) }

// BuildDict emits the DICT opcode, consuming the last open MARK.
func (a *Assembler) BuildDict() error { return a.emitFromMark(OpDict) }

// BuildFrozenSet emits the FROZENSET opcode, consuming the last open MARK.
func (a *Assembler) BuildFrozenSet() error { return a.emitFromMark(OpFrozenSet) }

// BuildAppend emits the APPEND opcode.
func (a *Assembler) BuildAppend() error { return a.emit(OpAppend) }

// BuildAppends emits the APPENDS opcode, consuming the last open MARK.
func (a *Assembler) BuildAppends() error { return a.emitFromMark(OpAppends) }

// BuildSetItem emits the SETITEM opcode.
func (a *Assembler) BuildSetItem() error { return a.emit(OpSetItem) }

// BuildSetItems emits the SETITEMS opcode, consuming the last open MARK.
func (a *Assembler) BuildSetItems() error { return a.emitFromMark(OpSetItems) }

// BuildAddItems emits the ADDITEMS opcode, consuming the last open MARK.
func (a *Assembler) BuildAddItems() error { return a.emitFromMark(OpAddItems) }

// BuildInst emits the INST opcode with module and name as two
// newline-terminated ASCII operands, consuming the last open MARK.
func (a *Assembler) BuildInst(module, name string) error {
	if err := checkInstOperand(module, "module"); err != nil {
		return err
	}
	if err := checkInstOperand(name, "name"); err != nil {
		return err
	}
	operands := append(line(module), line(name)...)
	return a.emitFromMark(OpInst, operands...)
}

// BuildObj emits the OBJ opcode, consuming the last open MARK.
func (a *Assembler) BuildObj() error { return a.emitFromMark(OpObj) }

// BuildNewObj emits the NEWOBJ opcode.
func (a *Assembler) BuildNewObj() error { return a.emit(OpNewObj) }

// BuildNewObjEx emits the NEWOBJ_EX opcode.
func (a *Assembler) BuildNewObjEx() error { return a.emit(OpNewObjEx) }

// BuildStackGlobal emits the STACK_GLOBAL opcode.
func (a *Assembler) BuildStackGlobal() error { return a.emit(OpStackGlobal) }

// BuildReduce emits the REDUCE opcode.
func (a *Assembler) BuildReduce() error { return a.emit(OpReduce) }

// BuildBuild emits the BUILD opcode.
func (a *Assembler) BuildBuild() error { return a.emit(OpBuild) }

// Dup emits the DUP opcode.
func (a *Assembler) Dup() error { return a.emit(OpDup) }

// Pop family.

// Pop emits the POP opcode.
func (a *Assembler) Pop() error { return a.emit(OpPop) }

// PopMark emits the POP_MARK opcode, consuming the last open MARK.
func (a *Assembler) PopMark() error { return a.emitFromMark(OpPopMark) }

// Memo family. Store emitters encode the next free memo index and advance
// it; fetch emitters take a caller supplied index and leave the counter
// untouched.

// MemoGet emits the GET opcode with a decimal text index operand.
func (a *Assembler) MemoGet(index int) error {
	if index < 0 {
		return NewOutOfRangeError("memo index", OpGet)
	}
	return a.emit(OpGet, line(strconv.Itoa(index))...)
}

// MemoBinGet emits the BINGET opcode with a 1-byte index operand.
func (a *Assembler) MemoBinGet(index int) error {
	if index < 0 || index > math.MaxUint8 {
		return NewOutOfRangeError("memo index", OpBinGet)
	}
	return a.emit(OpBinGet, byte(index))
}

// MemoLongBinGet emits the LONG_BINGET opcode with a 4-byte index operand.
func (a *Assembler) MemoLongBinGet(index int) error {
	if index < 0 || uint64(index) > math.MaxUint32 {
		return NewOutOfRangeError("memo index", OpLongBinGet)
	}
	return a.emit(OpLongBinGet,
		binary.LittleEndian.AppendUint32(nil, uint32(index))...)
}

// MemoPut emits the PUT opcode with the next free memo index as a decimal
// text operand and advances the index.
func (a *Assembler) MemoPut() error {
	if err := a.emit(OpPut, line(strconv.Itoa(a.memoCount))...); err != nil {
		return err
	}
	a.memoCount++
	return nil
}

// MemoBinPut emits the BINPUT opcode with the next free memo index as a
// 1-byte operand and advances the index.
func (a *Assembler) MemoBinPut() error {
	if a.memoCount > math.MaxUint8 {
		return NewOutOfRangeError("memo index", OpBinPut)
	}
	if err := a.emit(OpBinPut, byte(a.memoCount)); err != nil {
		return err
	}
	a.memoCount++
	return nil
}

// MemoLongBinPut emits the LONG_BINPUT opcode with the next free memo index
// as a 4-byte operand and advances the index.
func (a *Assembler) MemoLongBinPut() error {
	if uint64(a.memoCount) > math.MaxUint32 {
		return NewOutOfRangeError("memo index", OpLongBinPut)
	}
	idx := binary.LittleEndian.AppendUint32(nil, uint32(a.memoCount))
	if err := a.emit(OpLongBinPut, idx...); err != nil {
		return err
	}
	a.memoCount++
	return nil
}

// Memoize emits the MEMOIZE opcode, which stores the stack top at the next
// free memo index, and advances the index.
func (a *Assembler) Memoize() error {
	if err := a.emit(OpMemoize); err != nil {
		return err
	}
	a.memoCount++
	return nil
}

func checkLineOperand(value, what string) error {
	if strings.ContainsRune(value, '\n') {
		return ErrInvalidValue.NewError(what + " must not contain newline characters")
	}
	return nil
}

func checkInstOperand(value, what string) error {
	if err := checkLineOperand(value, what); err != nil {
		return err
	}
	for _, r := range value {
		if r > 0x7f {
			return ErrInvalidValue.NewError(what + " must be ASCII")
		}
	}
	return nil
}
