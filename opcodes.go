// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package pickleasm

import "fmt"

// Opcode represents a single byte pickle operation code.
type Opcode = byte

// List of supported opcodes with their tag byte values from the reference
// pickle opcode table. The persistent-id, extension registry, out-of-band
// buffer and framing families are deliberately not implemented and have no
// constants here.
const (
	// Protocol 0 (text mode)
	OpMark    Opcode = '(' // push special markobject on stack
	OpStop    Opcode = '.' // every pickle ends with STOP
	OpPop     Opcode = '0' // discard topmost stack item
	OpDup     Opcode = '2' // duplicate top stack item
	OpFloat   Opcode = 'F' // push float object; decimal string argument
	OpInt     Opcode = 'I' // push integer or bool; decimal string argument
	OpLong    Opcode = 'L' // push long; decimal string argument
	OpNone    Opcode = 'N' // push None
	OpReduce  Opcode = 'R' // apply callable to argtuple, both on stack
	OpString  Opcode = 'S' // push string; NL-terminated string argument
	OpUnicode Opcode = 'V' // push Unicode string; raw-unicode-escaped argument
	OpAppend  Opcode = 'a' // append stack top to list below it
	OpBuild   Opcode = 'b' // call __setstate__ or __dict__.update()
	OpGlobal  Opcode = 'c' // push self.find_class(modname, name); 2 string args
	OpDict    Opcode = 'd' // build a dict from stack items
	OpGet     Opcode = 'g' // push item from memo on stack; index is string arg
	OpInst    Opcode = 'i' // build & push class instance
	OpList    Opcode = 'l' // build list from topmost stack items
	OpPut     Opcode = 'p' // store stack top in memo; index is string arg
	OpSetItem Opcode = 's' // add key+value pair to dict
	OpTuple   Opcode = 't' // build tuple from topmost stack items

	// Protocol 1
	OpPopMark        Opcode = '1' // discard stack top through topmost markobject
	OpBinInt         Opcode = 'J' // push four-byte signed int
	OpBinInt1        Opcode = 'K' // push 1-byte unsigned int
	OpBinInt2        Opcode = 'M' // push 2-byte unsigned int
	OpBinString      Opcode = 'T' // push string; counted binary string argument
	OpShortBinString Opcode = 'U' // ditto, but length fits one byte
	OpBinUnicode     Opcode = 'X' // push Unicode string; counted UTF-8 argument
	OpEmptyDict      Opcode = '}' // push empty dict
	OpAppends        Opcode = 'e' // extend list on stack by topmost stack slice
	OpBinGet         Opcode = 'h' // push item from memo on stack; 1-byte index
	OpLongBinGet     Opcode = 'j' // ditto, but 4-byte index
	OpEmptyList      Opcode = ']' // push empty list
	OpObj            Opcode = 'o' // build & push class instance
	OpBinPut         Opcode = 'q' // store stack top in memo; 1-byte index
	OpLongBinPut     Opcode = 'r' // ditto, but 4-byte index
	OpEmptyTuple     Opcode = ')' // push empty tuple
	OpSetItems       Opcode = 'u' // modify dict by adding topmost key+value pairs
	OpBinFloat       Opcode = 'G' // push float; arg is 8-byte float encoding

	// Protocol 2
	OpProto    Opcode = 0x80 // identify pickle protocol
	OpNewObj   Opcode = 0x81 // build object by applying cls.__new__ to argtuple
	OpTuple1   Opcode = 0x85 // build 1-tuple from stack top
	OpTuple2   Opcode = 0x86 // build 2-tuple from two topmost stack items
	OpTuple3   Opcode = 0x87 // build 3-tuple from three topmost stack items
	OpNewTrue  Opcode = 0x88 // push True
	OpNewFalse Opcode = 0x89 // push False
	OpLong1    Opcode = 0x8a // push long from < 256 bytes
	OpLong4    Opcode = 0x8b // push really big long

	// Protocol 3
	OpBinBytes      Opcode = 'B' // push bytes; counted binary string argument
	OpShortBinBytes Opcode = 'C' // ditto, but length fits one byte

	// Protocol 4
	OpShortBinUnicode Opcode = 0x8c // push short string; UTF-8 length fits one byte
	OpBinUnicode8     Opcode = 0x8d // push very long string
	OpBinBytes8       Opcode = 0x8e // push very long bytes string
	OpEmptySet        Opcode = 0x8f // push empty set on the stack
	OpAddItems        Opcode = 0x90 // modify set by adding topmost stack items
	OpFrozenSet       Opcode = 0x91 // build frozenset from topmost stack items
	OpNewObjEx        Opcode = 0x92 // like NEWOBJ but with keyword only arguments
	OpStackGlobal     Opcode = 0x93 // same as GLOBAL but using names on the stacks
	OpMemoize         Opcode = 0x94 // store top of the stack in memo

	// Protocol 5
	OpByteArray8 Opcode = 0x96 // push bytearray
)

// OpcodeNames are string representation of opcodes, using the names of the
// reference pickle opcode table. An empty entry means the tag byte is not a
// supported opcode.
var OpcodeNames = [...]string{
	OpMark:            "MARK",
	OpStop:            "STOP",
	OpPop:             "POP",
	OpDup:             "DUP",
	OpFloat:           "FLOAT",
	OpInt:             "INT",
	OpLong:            "LONG",
	OpNone:            "NONE",
	OpReduce:          "REDUCE",
	OpString:          "STRING",
	OpUnicode:         "UNICODE",
	OpAppend:          "APPEND",
	OpBuild:           "BUILD",
	OpGlobal:          "GLOBAL",
	OpDict:            "DICT",
	OpGet:             "GET",
	OpInst:            "INST",
	OpList:            "LIST",
	OpPut:             "PUT",
	OpSetItem:         "SETITEM",
	OpTuple:           "TUPLE",
	OpPopMark:         "POP_MARK",
	OpBinInt:          "BININT",
	OpBinInt1:         "BININT1",
	OpBinInt2:         "BININT2",
	OpBinString:       "BINSTRING",
	OpShortBinString:  "SHORT_BINSTRING",
	OpBinUnicode:      "BINUNICODE",
	OpEmptyDict:       "EMPTY_DICT",
	OpAppends:         "APPENDS",
	OpBinGet:          "BINGET",
	OpLongBinGet:      "LONG_BINGET",
	OpEmptyList:       "EMPTY_LIST",
	OpObj:             "OBJ",
	OpBinPut:          "BINPUT",
	OpLongBinPut:      "LONG_BINPUT",
	OpEmptyTuple:      "EMPTY_TUPLE",
	OpSetItems:        "SETITEMS",
	OpBinFloat:        "BINFLOAT",
	OpProto:           "PROTO",
	OpNewObj:          "NEWOBJ",
	OpTuple1:          "TUPLE1",
	OpTuple2:          "TUPLE2",
	OpTuple3:          "TUPLE3",
	OpNewTrue:         "NEWTRUE",
	OpNewFalse:        "NEWFALSE",
	OpLong1:           "LONG1",
	OpLong4:           "LONG4",
	OpBinBytes:        "BINBYTES",
	OpShortBinBytes:   "SHORT_BINBYTES",
	OpShortBinUnicode: "SHORT_BINUNICODE",
	OpBinUnicode8:     "BINUNICODE8",
	OpBinBytes8:       "BINBYTES8",
	OpEmptySet:        "EMPTY_SET",
	OpAddItems:        "ADDITEMS",
	OpFrozenSet:       "FROZENSET",
	OpNewObjEx:        "NEWOBJ_EX",
	OpStackGlobal:     "STACK_GLOBAL",
	OpMemoize:         "MEMOIZE",
	OpByteArray8:      "BYTEARRAY8",
}

// OpcodeProtos are the minimum protocol versions required by opcodes.
var OpcodeProtos = [...]int{
	OpPopMark:         1,
	OpBinInt:          1,
	OpBinInt1:         1,
	OpBinInt2:         1,
	OpBinString:       1,
	OpShortBinString:  1,
	OpBinUnicode:      1,
	OpEmptyDict:       1,
	OpAppends:         1,
	OpBinGet:          1,
	OpLongBinGet:      1,
	OpEmptyList:       1,
	OpObj:             1,
	OpBinPut:          1,
	OpLongBinPut:      1,
	OpEmptyTuple:      1,
	OpSetItems:        1,
	OpBinFloat:        1,
	OpProto:           2,
	OpNewObj:          2,
	OpTuple1:          2,
	OpTuple2:          2,
	OpTuple3:          2,
	OpNewTrue:         2,
	OpNewFalse:        2,
	OpLong1:           2,
	OpLong4:           2,
	OpBinBytes:        3,
	OpShortBinBytes:   3,
	OpShortBinUnicode: 4,
	OpBinUnicode8:     4,
	OpBinBytes8:       4,
	OpEmptySet:        4,
	OpAddItems:        4,
	OpFrozenSet:       4,
	OpNewObjEx:        4,
	OpStackGlobal:     4,
	OpMemoize:         4,
	OpByteArray8:      5,
}

// OperandKind describes the operand layout that follows an opcode tag byte.
type OperandKind int

// List of operand layouts. Length and index fields are little endian, the
// binary float field is big endian.
const (
	OperandNone     OperandKind = iota
	OperandUint1                // 1-byte unsigned value
	OperandUint2                // 2-byte unsigned value
	OperandInt4                 // 4-byte signed value
	OperandUint4                // 4-byte unsigned value
	OperandFloat8               // 8-byte IEEE-754 double, big endian
	OperandLine                 // newline-terminated text
	OperandLinePair             // two newline-terminated texts
	OperandBytes1               // bytes with 1-byte length prefix
	OperandBytes4               // bytes with 4-byte length prefix
	OperandBytes8               // bytes with 8-byte length prefix
)

// OpcodeOperandKinds are the operand layouts of opcodes.
var OpcodeOperandKinds = [...]OperandKind{
	OpFloat:           OperandLine,
	OpInt:             OperandLine,
	OpLong:            OperandLine,
	OpString:          OperandLine,
	OpUnicode:         OperandLine,
	OpGlobal:          OperandLinePair,
	OpGet:             OperandLine,
	OpInst:            OperandLinePair,
	OpPut:             OperandLine,
	OpBinInt:          OperandInt4,
	OpBinInt1:         OperandUint1,
	OpBinInt2:         OperandUint2,
	OpBinString:       OperandBytes4,
	OpShortBinString:  OperandBytes1,
	OpBinUnicode:      OperandBytes4,
	OpBinGet:          OperandUint1,
	OpLongBinGet:      OperandUint4,
	OpBinPut:          OperandUint1,
	OpLongBinPut:      OperandUint4,
	OpBinFloat:        OperandFloat8,
	OpProto:           OperandUint1,
	OpLong1:           OperandBytes1,
	OpLong4:           OperandBytes4,
	OpBinBytes:        OperandBytes4,
	OpShortBinBytes:   OperandBytes1,
	OpShortBinUnicode: OperandBytes1,
	OpBinUnicode8:     OperandBytes8,
	OpBinBytes8:       OperandBytes8,
	OpByteArray8:      OperandBytes8,
}

// IsOpcode reports whether the given tag byte is a supported opcode.
func IsOpcode(op Opcode) bool {
	return int(op) < len(OpcodeNames) && OpcodeNames[op] != ""
}

// OpcodeName returns the name of the opcode. It panics if the opcode is not
// supported, unknown opcodes are a programming error not a runtime input.
func OpcodeName(op Opcode) string {
	if !IsOpcode(op) {
		panic(fmt.Errorf("pickleasm: unknown opcode 0x%02x", op))
	}
	return OpcodeNames[op]
}

// OpcodeProto returns the minimum protocol version required by the opcode.
// It panics if the opcode is not supported.
func OpcodeProto(op Opcode) int {
	if !IsOpcode(op) {
		panic(fmt.Errorf("pickleasm: unknown opcode 0x%02x", op))
	}
	return OpcodeProtos[op]
}

// OpcodeOperandKind returns the operand layout of the opcode. It panics if
// the opcode is not supported.
func OpcodeOperandKind(op Opcode) OperandKind {
	if !IsOpcode(op) {
		panic(fmt.Errorf("pickleasm: unknown opcode 0x%02x", op))
	}
	if int(op) >= len(OpcodeOperandKinds) {
		return OperandNone
	}
	return OpcodeOperandKinds[op]
}
