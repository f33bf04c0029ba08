package record

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// Op identifies the operation of a command.
type Op uint8

const (
	// Resource operations
	OpCreateBuffer Op = iota
	OpDestroyBuffer
	OpWriteBuffer
	OpCreateProgram
	OpDestroyProgram
	OpCreatePipeline
	OpDestroyPipeline
	OpCreateSampler
	OpDestroySampler
	OpCreateBindings
	OpDestroyBindings
	OpCreateTarget
	OpDestroyTarget

	// Pass operations
	OpBeginPass
	OpSetPipeline
	OpSetBindings
	OpSetVertexBuffer
	OpSetIndexBuffer
	OpDraw
	OpDrawIndexed
	OpEndPass

	// Frame operations
	OpSubmit
	OpPresent

	numOps
)

var opNames = [...]string{
	OpCreateBuffer:    "CreateBuffer",
	OpDestroyBuffer:   "DestroyBuffer",
	OpWriteBuffer:     "WriteBuffer",
	OpCreateProgram:   "CreateProgram",
	OpDestroyProgram:  "DestroyProgram",
	OpCreatePipeline:  "CreatePipeline",
	OpDestroyPipeline: "DestroyPipeline",
	OpCreateSampler:   "CreateSampler",
	OpDestroySampler:  "DestroySampler",
	OpCreateBindings:  "CreateBindings",
	OpDestroyBindings: "DestroyBindings",
	OpCreateTarget:    "CreateTarget",
	OpDestroyTarget:   "DestroyTarget",
	OpBeginPass:       "BeginPass",
	OpSetPipeline:     "SetPipeline",
	OpSetBindings:     "SetBindings",
	OpSetVertexBuffer: "SetVertexBuffer",
	OpSetIndexBuffer:  "SetIndexBuffer",
	OpDraw:            "Draw",
	OpDrawIndexed:     "DrawIndexed",
	OpEndPass:         "EndPass",
	OpSubmit:          "Submit",
	OpPresent:         "Present",
}

func (o Op) String() string {
	if o < numOps {
		return opNames[o]
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// Command is one logged device operation.
type Command struct {
	Op Op

	// ID is the resource the operation creates, destroys or binds.
	// For BeginPass it is the target.
	ID uint64

	Label string

	// Load is the load operation of a BeginPass.
	Load gputypes.LoadOp

	// Args holds operation arguments in declaration order: slot and
	// offset for SetVertexBuffer, offset and size for WriteBuffer, the
	// draw parameters for Draw and DrawIndexed.
	Args []int64
}

func (c Command) String() string {
	switch {
	case c.Label != "" && len(c.Args) > 0:
		return fmt.Sprintf("%s #%d %q %v", c.Op, c.ID, c.Label, c.Args)
	case c.Label != "":
		return fmt.Sprintf("%s #%d %q", c.Op, c.ID, c.Label)
	case len(c.Args) > 0:
		return fmt.Sprintf("%s #%d %v", c.Op, c.ID, c.Args)
	}
	return fmt.Sprintf("%s #%d", c.Op, c.ID)
}

// Write records one buffer write.
type Write struct {
	Buffer uint64
	Offset uint64
	Size   uint64
}

// Kind is a resource kind tracked by the device counters.
type Kind uint8

// Resource kinds.
const (
	KindBuffer Kind = iota
	KindProgram
	KindPipeline
	KindSampler
	KindBindings
	KindTarget

	numKinds
)

var kindNames = [numKinds]string{"buffer", "program", "pipeline", "sampler", "bindings", "target"}

func (k Kind) String() string {
	if k < numKinds {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}
