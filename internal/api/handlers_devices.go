package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"led-fleet-gateway/internal/apitypes"
	"led-fleet-gateway/internal/gateway"
	"led-fleet-gateway/pkg/router"
	"led-fleet-gateway/pkg/utils"
)

func (h *Handler) ListDevices(w http.ResponseWriter, r *http.Request) error {
	infos := h.registry.List()

	devices := make([]apitypes.Device, 0, len(infos))
	for _, info := range infos {
		devices = append(devices, toDevice(info))
	}

	RespondJSON(w, r, http.StatusOK, apitypes.DeviceListResponse{
		Devices: devices,
		Count:   len(devices),
	})

	return nil
}

func (h *Handler) GetDevice(w http.ResponseWriter, r *http.Request) error {
	deviceID := chi.URLParam(r, "deviceID")

	info, ok := h.registry.Get(deviceID)
	if !ok {
		return NewError(http.StatusNotFound, "Device not found")
	}

	RespondJSON(w, r, http.StatusOK, toDevice(info))

	return nil
}

func toDevice(info gateway.SessionInfo) apitypes.Device {
	d := apitypes.Device{
		ID:       info.DeviceID,
		Online:   info.Online,
		Metadata: info.Metadata,
	}
	if !info.ConnectedAt.IsZero() {
		d.ConnectedAt = utils.Ptr(info.ConnectedAt.UTC())
	}
	if !info.LastSeenAt.IsZero() {
		d.LastSeen = utils.Ptr(info.LastSeenAt.UTC())
	}
	if d.Metadata == nil {
		d.Metadata = map[string]any{}
	}

	return d
}

func (h *Handler) RegisterDevices(rb *router.RouteBuilder) {
	rb.MustGet("/devices", router.RouteSpec{
		OperationID: "listDevices",
		Summary:     "List devices",
		Description: "Snapshot of every registered device, live or pending eviction",
		Group:       DeviceGroup,
		Handler:     ErrorHandler(h.ListDevices),
	})

	rb.MustGet("/devices/{deviceID}", router.RouteSpec{
		OperationID: "getDevice",
		Summary:     "Get one device",
		Description: "Registry entry for a single device id",
		Group:       DeviceGroup,
		Handler:     ErrorHandler(h.GetDevice),
	})
}
