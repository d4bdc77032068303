package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionFixture struct {
	mgr      *SessionManager
	registry *Registry
	pending  *PendingTable
	sink     *recordingSink
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()

	registry := NewRegistry(testLogger(), time.Hour)
	pending := NewPendingTable()
	sink := newRecordingSink()

	return &sessionFixture{
		mgr:      NewSessionManager(testLogger(), registry, pending, sink),
		registry: registry,
		pending:  pending,
		sink:     sink,
	}
}

// start runs one connection and returns when its read loop has exited.
func (f *sessionFixture) start(ctx context.Context, tr *fakeTransport) <-chan struct{} {
	done := make(chan struct{})

	go func() {
		defer close(done)
		f.mgr.Run(ctx, tr)
	}()

	return done
}

func TestSessionRegistration(t *testing.T) {
	t.Parallel()

	f := newSessionFixture(t)
	tr := newFakeTransport()
	f.start(context.Background(), tr)

	tr.push(`{"id":"taxi-1","fw":"2.4.1"}`)

	require.Eventually(t, func() bool {
		_, ok := f.registry.Lookup("taxi-1")
		return ok
	}, time.Second, time.Millisecond)

	info, ok := f.registry.Get("taxi-1")
	require.True(t, ok)
	assert.True(t, info.Online)
	assert.Equal(t, "2.4.1", info.Metadata["fw"])
}

func TestSessionLegacyTokenRegistration(t *testing.T) {
	t.Parallel()

	f := newSessionFixture(t)
	tr := newFakeTransport()
	f.start(context.Background(), tr)

	tr.push("taxi-9")

	require.Eventually(t, func() bool {
		_, ok := f.registry.Lookup("taxi-9")
		return ok
	}, time.Second, time.Millisecond)
}

func TestSessionReplyResolvesPending(t *testing.T) {
	t.Parallel()

	f := newSessionFixture(t)
	tr := newFakeTransport()
	f.start(context.Background(), tr)

	tr.push(`{"id":"taxi-1"}`)

	ch, err := f.pending.Add("c-1", "taxi-1", time.Minute)
	require.NoError(t, err)

	tr.push(`{"correlationId":"c-1","brightness":55}`)

	select {
	case res := <-ch:
		require.NoError(t, res.Err)
		assert.Contains(t, string(res.Reply), `"brightness":55`)
	case <-time.After(time.Second):
		t.Fatal("reply never resolved the pending command")
	}
}

func TestSessionErrorReply(t *testing.T) {
	t.Parallel()

	f := newSessionFixture(t)
	tr := newFakeTransport()
	f.start(context.Background(), tr)

	tr.push(`{"id":"taxi-1"}`)

	ch, err := f.pending.Add("c-1", "taxi-1", time.Minute)
	require.NoError(t, err)

	tr.push(`{"correlationId":"c-1","type":"error","message":"unsupported command"}`)

	select {
	case res := <-ch:
		var devErr *DeviceError
		require.ErrorAs(t, res.Err, &devErr)
		assert.Equal(t, "unsupported command", devErr.Message)
	case <-time.After(time.Second):
		t.Fatal("error reply never resolved the pending command")
	}
}

func TestSessionPlayLogs(t *testing.T) {
	t.Parallel()

	f := newSessionFixture(t)
	tr := newFakeTransport()
	f.start(context.Background(), tr)

	tr.push(`{"id":"taxi-1"}`)
	tr.push(`{"logs":[{"ad":"a1"},{"ad":"a2"}],"correlationId":"b-1"}`)

	// Ack goes out on the device connection regardless of the collector
	require.Eventually(t, func() bool {
		return len(tr.sentFrames()) > 0
	}, time.Second, time.Millisecond)

	ack := tr.sentFrames()[0]
	assert.Equal(t, "ack", ack["type"])
	assert.Equal(t, true, ack["success"])
	assert.Equal(t, "b-1", ack["correlationId"])

	require.Eventually(t, func() bool {
		return len(f.sink.playLogBatches("taxi-1")) == 1
	}, time.Second, time.Millisecond)

	batches := f.sink.playLogBatches("taxi-1")
	require.Len(t, batches[0], 2)
	assert.JSONEq(t, `{"ad":"a1"}`, string(batches[0][0]))
}

func TestSessionPlayLogsUnregistered(t *testing.T) {
	t.Parallel()

	f := newSessionFixture(t)
	tr := newFakeTransport()
	f.start(context.Background(), tr)

	tr.push(`{"logs":[{"ad":"a1"}]}`)

	// Still acked so the device stops retransmitting
	require.Eventually(t, func() bool {
		return len(tr.sentFrames()) > 0
	}, time.Second, time.Millisecond)

	// But nothing is forwarded without a device identity
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, f.sink.playLogBatches(""))
}

func TestSessionGPS(t *testing.T) {
	t.Parallel()

	f := newSessionFixture(t)
	tr := newFakeTransport()
	f.start(context.Background(), tr)

	tr.push(`{"id":"taxi-1"}`)
	tr.push(`{"lat":41.7151,"lng":44.8271}`)

	require.Eventually(t, func() bool {
		return len(f.sink.gpsFixes("taxi-1")) == 1
	}, time.Second, time.Millisecond)

	fix := f.sink.gpsFixes("taxi-1")[0]
	assert.JSONEq(t, `{"lat":41.7151,"lng":44.8271}`, string(fix))
}

func TestSessionDisconnectFailsPending(t *testing.T) {
	t.Parallel()

	f := newSessionFixture(t)
	tr := newFakeTransport()
	done := f.start(context.Background(), tr)

	tr.push(`{"id":"taxi-1"}`)

	require.Eventually(t, func() bool {
		_, ok := f.registry.Lookup("taxi-1")
		return ok
	}, time.Second, time.Millisecond)

	ch, err := f.pending.Add("c-1", "taxi-1", time.Minute)
	require.NoError(t, err)

	require.NoError(t, tr.Close("connection lost"))
	<-done

	select {
	case res := <-ch:
		require.ErrorIs(t, res.Err, ErrDeviceUnreachable)
	case <-time.After(time.Second):
		t.Fatal("pending command survived the disconnect")
	}

	info, ok := f.registry.Get("taxi-1")
	require.True(t, ok)
	assert.False(t, info.Online)
}

func TestSessionSupersededTeardownLeavesReplacementAlone(t *testing.T) {
	t.Parallel()

	f := newSessionFixture(t)

	old := newFakeTransport()
	oldDone := f.start(context.Background(), old)
	old.push(`{"id":"taxi-1"}`)

	require.Eventually(t, func() bool {
		_, ok := f.registry.Lookup("taxi-1")
		return ok
	}, time.Second, time.Millisecond)

	replacement := newFakeTransport()
	f.start(context.Background(), replacement)
	replacement.push(`{"id":"taxi-1"}`)

	// Registration closes the old transport, its read loop winds down
	<-oldDone
	assert.Equal(t, CloseReasonSuperseded, old.closedWith())

	// Commands issued against the replacement stay pending
	ch, err := f.pending.Add("c-1", "taxi-1", time.Minute)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	select {
	case res := <-ch:
		t.Fatalf("pending command failed by stale teardown: %+v", res)
	default:
	}

	got, ok := f.registry.Lookup("taxi-1")
	require.True(t, ok)
	assert.Same(t, Transport(replacement), got)
}

func TestSessionUnknownAndInvalidFramesIgnored(t *testing.T) {
	t.Parallel()

	f := newSessionFixture(t)
	tr := newFakeTransport()
	done := f.start(context.Background(), tr)

	tr.push(`{"id":"taxi-1"}`)
	tr.push("\x16\x03\x01 tls probe")
	tr.push(`{"something":"else"}`)
	tr.push(`{"type":"restart"}`)

	// The connection survives all of it
	time.Sleep(20 * time.Millisecond)

	select {
	case <-done:
		t.Fatal("read loop exited on a malformed frame")
	default:
	}

	_, ok := f.registry.Lookup("taxi-1")
	assert.True(t, ok)
}
