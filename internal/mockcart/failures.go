package mockcart

import (
	"fmt"
	"sync"
)

// Operation names a cart service endpoint for failure injection
type Operation string

// Injectable operations. OpAll applies to every endpoint without its own setting.
const (
	OpFetch  Operation = "fetch"
	OpAdd    Operation = "add"
	OpRemove Operation = "remove"
	OpClear  Operation = "clear"
	OpAll    Operation = "*"
)

// Failure is how an endpoint misbehaves
type Failure string

const (
	// FailNone serves normally
	FailNone Failure = ""
	// FailUnavailable answers 503 with an error envelope
	FailUnavailable Failure = "unavailable"
	// FailRejected answers 200 with success:false
	FailRejected Failure = "rejected"
	// FailMalformed answers 200 with a body that is not JSON
	FailMalformed Failure = "malformed"
)

// ParseFailure validates a failure mode name
func ParseFailure(s string) (Failure, error) {
	switch f := Failure(s); f {
	case FailNone, FailUnavailable, FailRejected, FailMalformed:
		return f, nil
	default:
		return FailNone, fmt.Errorf("unknown failure mode %q", s)
	}
}

// ParseOperation validates an operation name
func ParseOperation(s string) (Operation, error) {
	switch op := Operation(s); op {
	case OpFetch, OpAdd, OpRemove, OpClear, OpAll:
		return op, nil
	default:
		return "", fmt.Errorf("unknown operation %q", s)
	}
}

type failureSet struct {
	mu    sync.RWMutex
	modes map[Operation]Failure
}

func newFailureSet() *failureSet {
	return &failureSet{modes: make(map[Operation]Failure)}
}

func (f *failureSet) set(op Operation, mode Failure) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if mode == FailNone {
		delete(f.modes, op)
		return
	}
	f.modes[op] = mode
}

func (f *failureSet) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	clear(f.modes)
}

func (f *failureSet) get(op Operation) Failure {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if mode, ok := f.modes[op]; ok {
		return mode
	}
	return f.modes[OpAll]
}

func (f *failureSet) snapshot() map[Operation]Failure {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make(map[Operation]Failure, len(f.modes))
	for k, v := range f.modes {
		out[k] = v
	}
	return out
}
