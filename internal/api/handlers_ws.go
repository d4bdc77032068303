package api

import (
	"net/http"

	"github.com/gorilla/websocket"

	"led-fleet-gateway/internal/gateway"
	"led-fleet-gateway/pkg/router"
	"led-fleet-gateway/pkg/utils"
)

//nolint:gochecknoglobals // Upgrader is stateless configuration
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Devices are not browsers; origin checks do not apply.
	CheckOrigin: func(_ *http.Request) bool { return true },
}

// DeviceWS upgrades the connection and hands it to the session manager.
// The handler blocks for the lifetime of the device connection.
func (h *Handler) DeviceWS(w http.ResponseWriter, r *http.Request) {
	l := GetLoggerFromContext(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		l.Warn("websocket upgrade failed", utils.ErrAttr(err))
		return
	}

	h.sessions.Run(r.Context(), gateway.NewWSTransport(conn))
}

func (h *Handler) RegisterDeviceWS(path string, rb *router.RouteBuilder) {
	rb.MustGet(path, router.RouteSpec{
		OperationID: "deviceWS",
		Summary:     "Device websocket endpoint",
		Description: "Upgrade to a websocket device session",
		Group:       DeviceGroup,
		Handler:     h.DeviceWS,
	})
}
