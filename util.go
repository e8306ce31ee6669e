// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package pickleasm

import (
	"fmt"
	"math"
	"math/big"
)

// Tuple represents a Python tuple value for UtilPush. Plain
// []interface{} values are pushed as lists.
type Tuple []interface{}

// UtilPush pushes a value with the narrowest opcodes permitted by the
// declared protocol. The value may be any nested structure of
//
//	nil, bool, signed and unsigned integers, *big.Int, float32, float64,
//	[]byte, string, Tuple, []interface{}, map[interface{}]interface{}
//
// Unlike the single-opcode emitters, compound values emit several
// instructions; an error in the middle of a container leaves the
// instructions emitted so far in the payload.
func (a *Assembler) UtilPush(value interface{}) error {
	switch v := value.(type) {
	case nil:
		return a.PushNone()
	case bool:
		return a.UtilPushBool(v)
	case int:
		return a.UtilPushInt(int64(v))
	case int8:
		return a.UtilPushInt(int64(v))
	case int16:
		return a.UtilPushInt(int64(v))
	case int32:
		return a.UtilPushInt(int64(v))
	case int64:
		return a.UtilPushInt(v)
	case uint:
		return a.UtilPushBigInt(new(big.Int).SetUint64(uint64(v)))
	case uint8:
		return a.UtilPushInt(int64(v))
	case uint16:
		return a.UtilPushInt(int64(v))
	case uint32:
		return a.UtilPushInt(int64(v))
	case uint64:
		return a.UtilPushBigInt(new(big.Int).SetUint64(v))
	case *big.Int:
		return a.UtilPushBigInt(v)
	case float32:
		return a.UtilPushFloat(float64(v))
	case float64:
		return a.UtilPushFloat(v)
	case []byte:
		return a.UtilPushBytes(v)
	case string:
		return a.UtilPushString(v)
	case Tuple:
		return a.utilPushTuple(v)
	case []interface{}:
		return a.utilPushList(v)
	case map[interface{}]interface{}:
		return a.utilPushDict(v)
	}
	return ErrType.NewError(
		fmt.Sprintf("value of type %T is unsupported by UtilPush", value))
}

// UtilPushBool pushes a boolean using NEWTRUE/NEWFALSE when the protocol
// permits, and the text mode INT form otherwise.
func (a *Assembler) UtilPushBool(value bool) error {
	if a.proto < 2 {
		return a.PushBool(value)
	}
	if value {
		return a.PushTrue()
	}
	return a.PushFalse()
}

// UtilPushInt pushes an integer using the narrowest encoding whose range
// covers the value and whose opcode is permitted by the protocol.
func (a *Assembler) UtilPushInt(value int64) error {
	switch {
	case a.proto == 0:
		return a.PushInt(value)
	case value >= 0 && value <= math.MaxUint8:
		return a.PushBinInt1(value)
	case value >= 0 && value <= math.MaxUint16:
		return a.PushBinInt2(value)
	case value >= math.MinInt32 && value <= math.MaxInt32:
		return a.PushBinInt(value)
	case a.proto == 1:
		return a.PushInt(value)
	}
	return a.PushLong1(big.NewInt(value))
}

// UtilPushBigInt pushes an arbitrary precision integer, via UtilPushInt
// when the value fits int64, the text LONG form below protocol 2, and the
// shortest of LONG1/LONG4 otherwise.
func (a *Assembler) UtilPushBigInt(value *big.Int) error {
	if value == nil {
		return ErrInvalidValue.NewError("value must not be nil")
	}
	if value.IsInt64() {
		return a.UtilPushInt(value.Int64())
	}
	if a.proto < 2 {
		return a.PushLong(value)
	}
	if len(encodeLong(value)) <= math.MaxUint8 {
		return a.PushLong1(value)
	}
	return a.PushLong4(value)
}

// UtilPushFloat pushes a float using BINFLOAT when the protocol permits,
// and the text mode FLOAT form otherwise.
func (a *Assembler) UtilPushFloat(value float64) error {
	if a.proto == 0 {
		return a.PushFloat(value)
	}
	return a.PushBinFloat(value)
}

// UtilPushBytes pushes a byte string with the narrowest length prefix. The
// protocol must be at least 3, bytes objects do not exist below it.
func (a *Assembler) UtilPushBytes(value []byte) error {
	if a.proto < 3 {
		return ErrProtocolMismatch.NewError(
			"must use at least protocol 3 to push bytes")
	}
	switch n := uint64(len(value)); {
	case n <= math.MaxUint8:
		return a.PushShortBinBytes(value)
	case n <= math.MaxUint32:
		return a.PushBinBytes(value)
	case a.proto < 4:
		return NewOutOfRangeError("bytes", OpBinBytes)
	}
	return a.PushBinBytes8(value)
}

// UtilPushString pushes a text string with the narrowest Unicode opcode the
// protocol permits.
func (a *Assembler) UtilPushString(value string) error {
	if a.proto == 0 {
		return a.PushUnicode(value)
	}
	switch n := uint64(len(value)); {
	case a.proto < 4:
		if n <= math.MaxUint32 {
			return a.PushBinUnicode(value)
		}
		return a.PushUnicode(value)
	case n <= math.MaxUint8:
		return a.PushShortBinUnicode(value)
	case n <= math.MaxUint32:
		return a.PushBinUnicode(value)
	}
	return a.PushBinUnicode8(value)
}

func (a *Assembler) utilPushTuple(value Tuple) error {
	if len(value) == 0 {
		if a.proto == 0 {
			if err := a.PushMark(); err != nil {
				return err
			}
			return a.BuildTuple()
		}
		return a.PushEmptyTuple()
	}
	short := a.proto >= 2 && len(value) <= 3
	if !short {
		if err := a.PushMark(); err != nil {
			return err
		}
	}
	for _, item := range value {
		if err := a.UtilPush(item); err != nil {
			return err
		}
	}
	switch {
	case !short:
		return a.BuildTuple()
	case len(value) == 1:
		return a.BuildTuple1()
	case len(value) == 2:
		return a.BuildTuple2()
	}
	return a.BuildTuple3()
}

func (a *Assembler) utilPushList(value []interface{}) error {
	if len(value) == 0 && a.proto > 0 {
		return a.PushEmptyList()
	}
	if err := a.PushMark(); err != nil {
		return err
	}
	for _, item := range value {
		if err := a.UtilPush(item); err != nil {
			return err
		}
	}
	return a.BuildList()
}

func (a *Assembler) utilPushDict(value map[interface{}]interface{}) error {
	if len(value) == 0 && a.proto > 0 {
		return a.PushEmptyDict()
	}
	if err := a.PushMark(); err != nil {
		return err
	}
	for k, v := range value {
		if err := a.UtilPush(k); err != nil {
			return err
		}
		if err := a.UtilPush(v); err != nil {
			return err
		}
	}
	return a.BuildDict()
}

// UtilMemoPut stores the stack top in the memo at the next free index,
// choosing the text PUT form at protocol 0 and the narrowest of
// BINPUT/LONG_BINPUT otherwise.
func (a *Assembler) UtilMemoPut() error {
	switch {
	case a.proto == 0:
		return a.MemoPut()
	case a.memoCount <= math.MaxUint8:
		return a.MemoBinPut()
	}
	return a.MemoLongBinPut()
}

// UtilMemoGet fetches the memo value at index back onto the stack, choosing
// the text GET form at protocol 0 and the narrowest of BINGET/LONG_BINGET
// otherwise.
func (a *Assembler) UtilMemoGet(index int) error {
	switch {
	case index < 0:
		return NewOutOfRangeError("memo index", OpGet)
	case a.proto == 0:
		return a.MemoGet(index)
	case index <= math.MaxUint8:
		return a.MemoBinGet(index)
	}
	return a.MemoLongBinGet(index)
}
