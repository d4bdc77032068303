package gateway

import (
	"bufio"
	"net"
	"sync"
	"time"

	"led-fleet-gateway/pkg/utils"
)

// Frame size limit for a single inbound line. Play-log batches are the
// largest frames devices send and stay well under this.
const maxFrameSize = 1 << 20

const writeTimeout = 10 * time.Second

// Transport is one device's persistent bidirectional connection. Receive and
// Send are safe to use from different goroutines; Send, Ping and Close may be
// called concurrently.
type Transport interface {
	// Receive blocks until the next inbound frame or a terminal error.
	Receive() ([]byte, error)
	// Send writes v as a single JSON frame.
	Send(v any) error
	// Ping sends a transport-level keepalive.
	Ping() error
	// Close tears the connection down. reason is best-effort diagnostic
	// info; closing twice is a no-op.
	Close(reason string) error
	// RemoteAddr describes the peer for logging.
	RemoteAddr() string
}

// pingFrame is the keepalive sent on transports without a control-frame ping.
type pingFrame struct {
	Type string `json:"type"`
}

// tcpTransport speaks newline-delimited JSON over a raw TCP connection.
// Legacy controllers also send a bare identifier token as their first line,
// which is handed up unparsed.
type tcpTransport struct {
	conn    net.Conn
	scanner *bufio.Scanner

	writeMu sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

// NewTCPTransport wraps an accepted TCP connection.
func NewTCPTransport(conn net.Conn) Transport {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), maxFrameSize)

	return &tcpTransport{
		conn:    conn,
		scanner: scanner,
	}
}

func (t *tcpTransport) Receive() ([]byte, error) {
	if !t.scanner.Scan() {
		if err := t.scanner.Err(); err != nil {
			return nil, err
		}

		return nil, net.ErrClosed
	}

	// The scanner reuses its buffer; callers keep frames across reads.
	line := make([]byte, len(t.scanner.Bytes()))
	copy(line, t.scanner.Bytes())

	return line, nil
}

func (t *tcpTransport) Send(v any) error {
	data, err := utils.ToJSON(v)
	if err != nil {
		return err
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if err := t.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}

	_, err = t.conn.Write(append(data, '\n'))

	return err
}

func (t *tcpTransport) Ping() error {
	return t.Send(pingFrame{Type: "ping"})
}

func (t *tcpTransport) Close(_ string) error {
	t.closeOnce.Do(func() {
		t.closeErr = t.conn.Close()
	})

	return t.closeErr
}

func (t *tcpTransport) RemoteAddr() string {
	return t.conn.RemoteAddr().String()
}
