package gateway

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Result is the terminal outcome of one dispatched command: either the raw
// reply frame or an error, never both.
type Result struct {
	Reply json.RawMessage
	Err   error
}

type pendingCall struct {
	deviceID string
	ch       chan Result
	timer    *time.Timer
}

// PendingTable tracks outstanding commands by correlation id. Each entry is
// resolved exactly once: by the first matching reply, by its deadline timer,
// by a send failure, or by disconnect cleanup, whichever happens first.
type PendingTable struct {
	mu    sync.Mutex
	calls map[string]*pendingCall
}

// NewPendingTable creates an empty table.
func NewPendingTable() *PendingTable {
	return &PendingTable{calls: make(map[string]*pendingCall)}
}

// Add registers an outstanding command and arms its deadline. The returned
// channel delivers exactly one Result.
func (p *PendingTable) Add(correlationID, deviceID string, timeout time.Duration) (<-chan Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.calls[correlationID]; exists {
		return nil, fmt.Errorf("%w: %s", ErrCorrelationInUse, correlationID)
	}

	call := &pendingCall{
		deviceID: deviceID,
		// Buffered so resolution never blocks on a slow caller
		ch: make(chan Result, 1),
	}
	call.timer = time.AfterFunc(timeout, func() {
		p.Resolve(correlationID, Result{Err: fmt.Errorf("%w after %s", ErrTimeout, timeout)})
	})

	p.calls[correlationID] = call

	return call.ch, nil
}

// Resolve completes the entry for correlationID and removes it. Returns
// false when no such entry exists (late or duplicate replies are no-ops),
// which also makes resolution idempotent.
func (p *PendingTable) Resolve(correlationID string, res Result) bool {
	p.mu.Lock()

	call, ok := p.calls[correlationID]
	if !ok {
		p.mu.Unlock()

		return false
	}

	delete(p.calls, correlationID)
	p.mu.Unlock()

	call.timer.Stop()
	call.ch <- res

	return true
}

// FailDevice resolves every outstanding command for deviceID with err,
// without waiting for the individual deadlines. Returns how many commands
// were failed.
func (p *PendingTable) FailDevice(deviceID string, err error) int {
	p.mu.Lock()

	var ids []string

	for id, call := range p.calls {
		if call.deviceID == deviceID {
			ids = append(ids, id)
		}
	}
	p.mu.Unlock()

	n := 0

	for _, id := range ids {
		if p.Resolve(id, Result{Err: err}) {
			n++
		}
	}

	return n
}

// Len returns the number of outstanding commands.
func (p *PendingTable) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.calls)
}
