package gateway

import (
	"log/slog"
	"maps"
	"sync"
	"time"

	"led-fleet-gateway/internal/observability/metrics"
)

// CloseReasonSuperseded is sent to a transport displaced by a newer
// connection for the same device id.
const CloseReasonSuperseded = "superseded"

// session is one device's registry record. A record outlives its transport:
// after a disconnect it lingers (transport nil) until the eviction grace
// period passes, so "last seen" stays answerable.
type session struct {
	deviceID    string
	transport   Transport
	connectedAt time.Time
	lastSeenAt  time.Time
	metadata    map[string]any

	evict *time.Timer
}

// SessionInfo is an immutable snapshot of one session.
type SessionInfo struct {
	DeviceID    string
	Online      bool
	ConnectedAt time.Time
	LastSeenAt  time.Time
	Metadata    map[string]any
}

// LiveConn pairs a device id with its live transport.
type LiveConn struct {
	DeviceID  string
	Transport Transport
}

// Registry maps device ids to their live transports and liveness metadata.
// At most one live transport exists per device id: registering over a live
// session closes the previous transport first. All methods are safe for
// concurrent use; connections are handled on independent goroutines.
type Registry struct {
	l          *slog.Logger
	evictAfter time.Duration

	mu       sync.Mutex
	sessions map[string]*session
}

// NewRegistry creates an empty registry. Sessions with no reconnection for
// evictAfter after a disconnect are deleted entirely.
func NewRegistry(l *slog.Logger, evictAfter time.Duration) *Registry {
	return &Registry{
		l:          l.With(slog.String("component", "registry")),
		evictAfter: evictAfter,
		sessions:   make(map[string]*session),
	}
}

// Register installs t as the live transport for deviceID, superseding and
// closing any prior live transport. A pending eviction is canceled. The
// newest connection always wins; duplicate ids happen when firmware reboots
// race the old socket's teardown.
func (r *Registry) Register(deviceID string, t Transport) {
	var superseded Transport

	r.mu.Lock()

	s, ok := r.sessions[deviceID]
	if !ok {
		s = &session{deviceID: deviceID, metadata: map[string]any{}}
		r.sessions[deviceID] = s
	}

	if s.evict != nil {
		s.evict.Stop()
		s.evict = nil
	}

	wasLive := s.transport != nil

	if s.transport != nil && s.transport != t {
		superseded = s.transport
	}

	if s.transport != t {
		now := time.Now()
		s.transport = t
		s.connectedAt = now
		s.lastSeenAt = now
	}

	r.mu.Unlock()

	if !wasLive {
		metrics.SessionsLive.Inc()
	}

	if superseded != nil {
		r.l.Info("superseding live session",
			slog.String("device_id", deviceID),
			slog.String("old_addr", superseded.RemoteAddr()),
			slog.String("new_addr", t.RemoteAddr()),
		)
		_ = superseded.Close(CloseReasonSuperseded)
	}
}

// Lookup returns the live transport for deviceID. Absence is a normal
// outcome, not a failure.
func (r *Registry) Lookup(deviceID string) (Transport, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[deviceID]
	if !ok || s.transport == nil {
		return nil, false
	}

	return s.transport, true
}

// MarkSeen bumps the liveness timestamp for deviceID.
func (r *Registry) MarkSeen(deviceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[deviceID]; ok {
		s.lastSeenAt = time.Now()
	}
}

// SetMetadata replaces the session's device info wholesale.
func (r *Registry) SetMetadata(deviceID string, metadata map[string]any) {
	if metadata == nil {
		metadata = map[string]any{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[deviceID]; ok {
		s.metadata = metadata
	}
}

// Disconnect clears the transport for deviceID and schedules eviction,
// but only if t is still the session's current transport: a superseded
// connection's teardown must not touch the session that replaced it.
// Returns whether the session actually transitioned to disconnected.
func (r *Registry) Disconnect(deviceID string, t Transport) bool {
	r.mu.Lock()

	s, ok := r.sessions[deviceID]
	if !ok || s.transport != t {
		r.mu.Unlock()

		return false
	}

	s.transport = nil
	s.lastSeenAt = time.Now()
	s.evict = time.AfterFunc(r.evictAfter, func() {
		r.evictIfStillDown(deviceID)
	})

	r.mu.Unlock()

	metrics.SessionsLive.Dec()

	return true
}

// evictIfStillDown removes the session record unless the device reconnected
// since the timer was armed.
func (r *Registry) evictIfStillDown(deviceID string) {
	r.mu.Lock()

	s, ok := r.sessions[deviceID]
	if !ok || s.transport != nil {
		r.mu.Unlock()

		return
	}

	delete(r.sessions, deviceID)
	r.mu.Unlock()

	r.l.Info("session evicted", slog.String("device_id", deviceID))
}

// Drop deletes the session record outright, closing its transport if live.
func (r *Registry) Drop(deviceID string) {
	r.mu.Lock()

	s, ok := r.sessions[deviceID]
	if ok {
		if s.evict != nil {
			s.evict.Stop()
		}

		delete(r.sessions, deviceID)
	}
	r.mu.Unlock()

	if ok && s.transport != nil {
		metrics.SessionsLive.Dec()
		_ = s.transport.Close("dropped")
	}
}

// List returns a snapshot copy of all sessions; iterating it never races
// with concurrent registration or eviction.
func (r *Registry) List() []SessionInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]SessionInfo, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, snapshot(s))
	}

	return out
}

// Get returns a snapshot of one session.
func (r *Registry) Get(deviceID string) (SessionInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[deviceID]
	if !ok {
		return SessionInfo{}, false
	}

	return snapshot(s), true
}

// Live returns all sessions that currently hold a live transport.
func (r *Registry) Live() []LiveConn {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]LiveConn, 0, len(r.sessions))
	for _, s := range r.sessions {
		if s.transport != nil {
			out = append(out, LiveConn{DeviceID: s.deviceID, Transport: s.transport})
		}
	}

	return out
}

// LiveCount returns the number of live sessions.
func (r *Registry) LiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, s := range r.sessions {
		if s.transport != nil {
			n++
		}
	}

	return n
}

// CloseAll closes every live transport with the given reason. Session
// records stay; the read loops observe the close and disconnect normally.
func (r *Registry) CloseAll(reason string) {
	for _, lc := range r.Live() {
		_ = lc.Transport.Close(reason)
	}
}

func snapshot(s *session) SessionInfo {
	return SessionInfo{
		DeviceID:    s.deviceID,
		Online:      s.transport != nil,
		ConnectedAt: s.connectedAt,
		LastSeenAt:  s.lastSeenAt,
		Metadata:    maps.Clone(s.metadata),
	}
}
