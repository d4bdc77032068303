package gateway

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// wsTransport speaks one JSON frame per websocket message. The keepalive
// uses a real ping control frame instead of an in-band JSON frame.
type wsTransport struct {
	conn *websocket.Conn

	writeMu sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

// NewWSTransport wraps an upgraded websocket connection.
func NewWSTransport(conn *websocket.Conn) Transport {
	conn.SetReadLimit(maxFrameSize)

	return &wsTransport{conn: conn}
}

func (t *wsTransport) Receive() ([]byte, error) {
	for {
		msgType, data, err := t.conn.ReadMessage()
		if err != nil {
			return nil, err
		}

		// Binary frames are transport noise from misbehaving clients;
		// the classifier drops them but we can skip the round trip.
		if msgType != websocket.TextMessage {
			continue
		}

		return data, nil
	}
}

func (t *wsTransport) Send(v any) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if err := t.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}

	return t.conn.WriteJSON(v)
}

func (t *wsTransport) Ping() error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	return t.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

func (t *wsTransport) Close(reason string) error {
	t.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
		_ = t.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		t.closeErr = t.conn.Close()
	})

	return t.closeErr
}

func (t *wsTransport) RemoteAddr() string {
	return t.conn.RemoteAddr().String()
}
