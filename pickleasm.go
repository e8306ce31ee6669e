// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

// Package pickleasm provides a low-level assembler for Python's pickle
// virtual machine bytecode.
//
// Unlike a serializer, pickleasm gives the caller instruction-level control
// over the generated byte stream: one method per opcode, explicit operand
// encodings, and no object graph in between. A typical session creates an
// Assembler for a protocol version, issues a sequence of Push/Build/Pop/Memo
// calls, and finishes with Assemble which appends the STOP opcode and
// returns the payload:
//
//	pa, err := pickleasm.NewAssembler(4)
//	if err != nil {
//		// ...
//	}
//	pa.PushMark()
//	pa.PushShortBinUnicode("cat /etc/passwd")
//	pa.BuildInst("os", "system")
//	payload, used := pa.Assemble()
//
// The assembler only emits bytes, it never interprets them; whether the
// resulting program is meaningful, or safe to load, is up to the caller.
package pickleasm

// HighestProtocol is the highest pickle protocol version the assembler can
// generate.
const HighestProtocol = 5
