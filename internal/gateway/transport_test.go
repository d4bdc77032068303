package gateway

import (
	"bufio"
	"encoding/json"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTCPTransportReceive(t *testing.T) {
	t.Parallel()

	client, server := net.Pipe()
	defer client.Close()

	tr := NewTCPTransport(server)
	defer tr.Close("test done")

	go func() {
		_, _ = client.Write([]byte("{\"id\":\"taxi-1\"}\n{\"lat\":1,\"lng\":2}\n"))
	}()

	first, err := tr.Receive()
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"taxi-1"}`, string(first))

	second, err := tr.Receive()
	require.NoError(t, err)
	assert.JSONEq(t, `{"lat":1,"lng":2}`, string(second))
}

func TestTCPTransportReceiveAfterPeerClose(t *testing.T) {
	t.Parallel()

	client, server := net.Pipe()

	tr := NewTCPTransport(server)
	defer tr.Close("test done")

	require.NoError(t, client.Close())

	_, err := tr.Receive()
	require.Error(t, err)
}

func TestTCPTransportSendAppendsNewline(t *testing.T) {
	t.Parallel()

	client, server := net.Pipe()
	defer client.Close()

	tr := NewTCPTransport(server)
	defer tr.Close("test done")

	go func() {
		_ = tr.Send(map[string]any{"type": "info", "correlationId": "c-1"})
	}()

	line, err := bufio.NewReader(client).ReadBytes('\n')
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(line, &m))
	assert.Equal(t, "info", m["type"])
	assert.Equal(t, "c-1", m["correlationId"])
}

func TestTCPTransportPingFrame(t *testing.T) {
	t.Parallel()

	client, server := net.Pipe()
	defer client.Close()

	tr := NewTCPTransport(server)
	defer tr.Close("test done")

	go func() {
		_ = tr.Ping()
	}()

	line, err := bufio.NewReader(client).ReadBytes('\n')
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"ping"}`, string(line))
}

func TestTCPTransportCloseIdempotent(t *testing.T) {
	t.Parallel()

	client, server := net.Pipe()
	defer client.Close()

	tr := NewTCPTransport(server)

	require.NoError(t, tr.Close("first"))
	require.NoError(t, tr.Close("second"))
}
