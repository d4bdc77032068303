package gateway

import (
	"context"
	"encoding/json"
	"net"
	"sync"
)

// fakeTransport is an in-memory Transport for exercising the registry,
// session manager and dispatcher without sockets.
type fakeTransport struct {
	in chan []byte

	mu          sync.Mutex
	sent        []map[string]any
	pings       int
	closed      bool
	closeReason string
	sendErr     error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{in: make(chan []byte, 16)}
}

// push feeds one inbound frame to the read loop.
func (t *fakeTransport) push(frame string) {
	t.in <- []byte(frame)
}

func (t *fakeTransport) Receive() ([]byte, error) {
	data, ok := <-t.in
	if !ok {
		return nil, net.ErrClosed
	}

	return data, nil
}

func (t *fakeTransport) Send(v any) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sendErr != nil {
		return t.sendErr
	}

	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}

	t.sent = append(t.sent, m)

	return nil
}

func (t *fakeTransport) Ping() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sendErr != nil {
		return t.sendErr
	}

	t.pings++

	return nil
}

func (t *fakeTransport) Close(reason string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}

	t.closed = true
	t.closeReason = reason
	close(t.in)

	return nil
}

func (t *fakeTransport) RemoteAddr() string { return "fake:0" }

func (t *fakeTransport) setSendErr(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sendErr = err
}

func (t *fakeTransport) sentFrames() []map[string]any {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]map[string]any, len(t.sent))
	copy(out, t.sent)

	return out
}

func (t *fakeTransport) pingCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.pings
}

func (t *fakeTransport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.closed
}

func (t *fakeTransport) closedWith() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.closeReason
}

// recordingSink captures telemetry forwards for assertions.
type recordingSink struct {
	mu       sync.Mutex
	playLogs map[string][][]RawLog
	fixes    map[string][]RawFix
}

func newRecordingSink() *recordingSink {
	return &recordingSink{
		playLogs: make(map[string][][]RawLog),
		fixes:    make(map[string][]RawFix),
	}
}

func (s *recordingSink) PlayLogs(_ context.Context, deviceID string, logs []RawLog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playLogs[deviceID] = append(s.playLogs[deviceID], logs)
}

func (s *recordingSink) GPS(_ context.Context, deviceID string, fix RawFix) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fixes[deviceID] = append(s.fixes[deviceID], fix)
}

func (s *recordingSink) playLogBatches(deviceID string) [][]RawLog {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([][]RawLog(nil), s.playLogs[deviceID]...)
}

func (s *recordingSink) gpsFixes(deviceID string) []RawFix {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]RawFix(nil), s.fixes[deviceID]...)
}
