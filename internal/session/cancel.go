// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"sync"
)

// =============================================================================
// TURN CANCELLATION (THREAD-SAFE)
// =============================================================================

// cancelManager holds the cancel function of the handler call in flight.
// The Update loop cancels it on Ctrl+C while the input loop sets and clears
// it, so every access goes through the mutex. Keep it behind a pointer.
type cancelManager struct {
	mu         sync.Mutex
	cancelFunc context.CancelFunc
}

func newCancelManager() *cancelManager {
	return &cancelManager{}
}

// set stores the cancel function for a new handler call.
func (cm *cancelManager) set(fn context.CancelFunc) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.cancelFunc = fn
}

// cancel cancels the handler call in flight, if any. It reports whether
// there was one. Safe to call repeatedly.
func (cm *cancelManager) cancel() bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.cancelFunc == nil {
		return false
	}
	cm.cancelFunc()
	cm.cancelFunc = nil
	return true
}

// clear releases the context of a finished handler call.
func (cm *cancelManager) clear() {
	cm.cancel()
}
