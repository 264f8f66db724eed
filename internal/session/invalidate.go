// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// invalidateMsg makes the program redraw.
type invalidateMsg struct{}

// invalidator coalesces redraw requests from any goroutine into at most one
// invalidateMsg per interval. Invalidate never blocks, so it is safe to call
// from the Update goroutine and under the display lock.
type invalidator struct {
	wake    chan struct{}
	limiter *rate.Limiter
}

func newInvalidator(interval time.Duration) *invalidator {
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}
	return &invalidator{
		wake:    make(chan struct{}, 1),
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Invalidate requests a redraw.
func (i *invalidator) Invalidate() {
	select {
	case i.wake <- struct{}{}:
	default:
	}
}

// run forwards coalesced requests to h until ctx ends.
func (i *invalidator) run(ctx context.Context, h host) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-i.wake:
		}
		if err := i.limiter.Wait(ctx); err != nil {
			return
		}
		h.Send(invalidateMsg{})
	}
}
