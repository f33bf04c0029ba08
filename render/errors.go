// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"strings"
)

// Render errors.
var (
	// ErrUseAfterDestroy is returned when a cache, graph, pool or manager
	// is used after Destroy. It indicates a lifecycle bug in the caller.
	ErrUseAfterDestroy = errors.New("render: use after destroy")

	// ErrUnbalancedTemplateStack is reported when templates are still
	// pushed at the end of a frame, and is the panic value when a template
	// guard is popped out of order.
	ErrUnbalancedTemplateStack = errors.New("render: unbalanced template stack")

	// ErrGraphCycle is returned when render pass dependencies form a cycle.
	ErrGraphCycle = errors.New("render: render graph has a dependency cycle")

	// ErrIncompleteInst is returned by Submit when an inst resolves
	// without a program or draw parameters.
	ErrIncompleteInst = errors.New("render: inst is missing required fields")

	// ErrUnknownResource is returned when a pass names a resource the
	// graph does not know.
	ErrUnknownResource = errors.New("render: unknown graph resource")

	// ErrNilDevice is returned when a component is created without a device.
	ErrNilDevice = errors.New("render: device is nil")
)

// CycleError reports the passes on a dependency cycle, in dependency
// order. It unwraps to ErrGraphCycle.
type CycleError struct {
	Passes []string
}

func (e *CycleError) Error() string {
	if len(e.Passes) == 0 {
		return ErrGraphCycle.Error()
	}
	path := append(append([]string(nil), e.Passes...), e.Passes[0])
	return ErrGraphCycle.Error() + ": " + strings.Join(path, " -> ")
}

func (e *CycleError) Unwrap() error { return ErrGraphCycle }
