// Package frame implements the Stack-frame Layout Planner (spec.md §2,
// component 3): deterministic bp-relative placement of a function's return
// slot, parameters, and locals (spec.md §3 "Stack-frame layout", §4.3
// "Call Convention").
//
// No single teacher file does this: the teacher's VM (lang/machine.go)
// allocates one flat []Value slice per call with no bp-relative addressing
// at all, because its values are never pinned to a fixed byte offset. This
// package is new code, grounded on the *shape* of the teacher's
// lang/compiler/compiled.go Funcode.Locals []Binding — an ordered, named
// list of a function's locals, parameters first — generalized to carry a
// word-width and a byte offset instead of just a name.
package frame

import (
	"fmt"

	"github.com/mna/comptimec/lang/bytecode"
	"github.com/mna/comptimec/lang/symbols"
	"github.com/mna/comptimec/lang/types"
)

// ParamSlot is a single parameter's resolved bp-relative offset.
type ParamSlot struct {
	Name   string
	Type   types.Type
	Offset bytecode.Quarter
}

// Layout is the bp-relative placement of one function's return slot and
// parameters, plus the running allocator for its locals (spec.md §3):
//
//	[ return-slot (N words, >=0) ]
//	[ parameter 0 ]
//	[ parameter k-1 ]
//	[ saved return pc ]
//	[ saved caller bp ]          <- bp points just above here
//	[ locals of outer block ]
//	[ locals of nested block ]
//	...
type Layout struct {
	// ReturnOffset is the bp-relative byte offset of the return slot: -S
	// where S = 2*word + paramsSize + returnSize (spec.md §4.3).
	ReturnOffset bytecode.Quarter

	// Params holds each parameter's resolved offset, in declaration order.
	Params []ParamSlot

	frameSize  int // S: bytes below bp (saved pc + saved bp + params + return)
	localsHigh int // next free bp-relative offset for a local, grows upward from 0
}

// savedRegsSize is the size, in bytes, of the saved return pc and saved
// caller bp that sit directly below bp (spec.md §3).
const savedRegsSize = 2 * types.WordSize

// NewLayout computes the bp-relative frame layout for a function with the
// given signature (spec.md §4.3 step 2: "Body is lowered with an
// environment pre-populated so the return slot sits at bp-relative offset
// -S and each parameter at increasing offsets up to the saved bp").
func NewLayout(sig *symbols.FuncSig) *Layout {
	returnSize := types.WordAlign(sig.ReturnByteSize())

	paramSizes := make([]int, len(sig.Params))
	paramsSize := 0
	for i, p := range sig.Params {
		sz := types.WordAlign(p.Type.ByteSize())
		paramSizes[i] = sz
		paramsSize += sz
	}

	s := savedRegsSize + paramsSize + returnSize
	l := &Layout{
		ReturnOffset: bytecode.Quarter(-s),
		frameSize:    s,
	}

	// Parameters occupy the bytes between the return slot and the saved
	// pc, in declaration order from low address to high: param 0 sits
	// immediately above the return slot.
	offset := -s + returnSize
	for i, p := range sig.Params {
		l.Params = append(l.Params, ParamSlot{
			Name:   p.Name,
			Type:   p.Type,
			Offset: bytecode.Quarter(offset),
		})
		offset += paramSizes[i]
	}

	return l
}

// FrameSize returns S: the total bytes below bp reserved for the saved
// return pc, saved caller bp, parameters, and return slot.
func (l *Layout) FrameSize() int { return l.frameSize }

// Mark is an opaque snapshot of the local-allocation high-water mark,
// returned by EnterBlock and consumed by ExitBlock, so that a nested
// block's locals are released when the block exits (spec.md §3 "nested
// blocks extend the frame upward and pop exactly what they pushed").
type Mark int

// EnterBlock records the current high-water mark before a nested block
// allocates its own locals.
func (l *Layout) EnterBlock() Mark { return Mark(l.localsHigh) }

// ExitBlock restores the high-water mark to the value returned by the
// matching EnterBlock and returns the number of bytes released (the
// difference between the two marks).
func (l *Layout) ExitBlock(mark Mark) (poppedBytes int) {
	poppedBytes = l.localsHigh - int(mark)
	if poppedBytes < 0 {
		panic(fmt.Sprintf("frame: ExitBlock mark %d is ahead of current high-water mark %d", mark, l.localsHigh))
	}
	l.localsHigh = int(mark)
	return poppedBytes
}

// AllocLocal reserves byteSize bytes (word-aligned) for a new local
// variable declared in the current block and returns its bp-relative
// offset and word count. Every local's offset is fixed for its entire
// scope (spec.md §3 invariant).
func (l *Layout) AllocLocal(byteSize int) (offset bytecode.Quarter, words int) {
	aligned := types.WordAlign(byteSize)
	offset = bytecode.Quarter(l.localsHigh)
	l.localsHigh += aligned
	return offset, aligned / types.WordSize
}
