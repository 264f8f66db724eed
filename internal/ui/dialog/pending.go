// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dialog

import (
	"context"
	"sync"
)

// Pending is a result that can be resolved at most once.
// The first Resolve wins; later calls are ignored.
type Pending struct {
	once  sync.Once
	done  chan struct{}
	value any
}

// NewPending creates an unresolved result.
func NewPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

// Resolve stores v and wakes every waiter. It reports whether this call
// was the one that resolved the result. Thread-safe.
func (p *Pending) Resolve(v any) bool {
	resolved := false
	p.once.Do(func() {
		p.value = v
		close(p.done)
		resolved = true
	})
	return resolved
}

// Done is closed once the result is resolved.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// IsResolved reports whether Resolve has been called.
func (p *Pending) IsResolved() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the result is resolved or ctx ends.
func (p *Pending) Wait(ctx context.Context) (any, error) {
	select {
	case <-p.done:
		return p.value, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
