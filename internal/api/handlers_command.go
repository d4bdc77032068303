package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"led-fleet-gateway/internal/apitypes"
	"led-fleet-gateway/internal/gateway"
	"led-fleet-gateway/pkg/router"
)

func (h *Handler) SendCommand(w http.ResponseWriter, r *http.Request) error {
	payload, err := DecodeJSON[map[string]any](r)
	if err != nil {
		return err
	}
	if len(payload) == 0 {
		return NewError(http.StatusBadRequest, "Command payload must not be empty")
	}

	return h.dispatch(w, r, payload)
}

func (h *Handler) SetBrightness(w http.ResponseWriter, r *http.Request) error {
	req, err := DecodeJSON[apitypes.BrightnessRequest](r)
	if err != nil {
		return err
	}
	if req.Level == nil {
		return NewError(http.StatusBadRequest, "Validation failed").AddError("level", "level is required")
	}
	if *req.Level < 0 || *req.Level > 100 {
		return NewError(http.StatusBadRequest, "Validation failed").AddError("level", "level must be between 0 and 100")
	}

	return h.dispatch(w, r, map[string]any{"type": "brightness", "level": *req.Level})
}

func (h *Handler) SetScreen(w http.ResponseWriter, r *http.Request) error {
	req, err := DecodeJSON[apitypes.ScreenRequest](r)
	if err != nil {
		return err
	}
	if req.On == nil {
		return NewError(http.StatusBadRequest, "Validation failed").AddError("on", "on is required")
	}

	return h.dispatch(w, r, map[string]any{"type": "screen", "on": *req.On})
}

func (h *Handler) GetInfo(w http.ResponseWriter, r *http.Request) error {
	return h.dispatch(w, r, map[string]any{"type": "info"})
}

// PushProgram forwards the request body to the device as-is, only forcing
// the command type. The program format is the panel's business.
func (h *Handler) PushProgram(w http.ResponseWriter, r *http.Request) error {
	payload, err := DecodeJSON[map[string]any](r)
	if err != nil {
		return err
	}
	// A bare `null` body decodes to a nil map without error
	if len(payload) == 0 {
		return NewError(http.StatusBadRequest, "Program payload must not be empty")
	}
	payload["type"] = "program"

	return h.dispatch(w, r, payload)
}

func (h *Handler) ClearProgram(w http.ResponseWriter, r *http.Request) error {
	return h.dispatch(w, r, map[string]any{"type": "clear"})
}

func (h *Handler) Reboot(w http.ResponseWriter, r *http.Request) error {
	return h.dispatch(w, r, map[string]any{"type": "reboot"})
}

// dispatch sends the payload to the device named in the URL and writes
// either the device's reply or the mapped dispatch error.
func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request, payload map[string]any) error {
	deviceID := chi.URLParam(r, "deviceID")

	reply, err := h.dispatcher.Send(r.Context(), deviceID, payload, h.commandTimeout)
	if err != nil {
		return mapDispatchError(err)
	}

	RespondJSON(w, r, http.StatusOK, apitypes.CommandResponse{
		DeviceID: deviceID,
		Reply:    reply,
	})

	return nil
}

func mapDispatchError(err error) error {
	var devErr *gateway.DeviceError

	switch {
	case errors.Is(err, gateway.ErrDeviceUnreachable):
		return NewError(http.StatusBadGateway, "Device is not connected")

	case errors.Is(err, gateway.ErrSendFailed):
		return NewError(http.StatusBadGateway, "Failed to deliver command to device")

	case errors.Is(err, gateway.ErrTimeout):
		return NewError(http.StatusGatewayTimeout, "Device did not reply in time")

	case errors.As(err, &devErr):
		return NewError(http.StatusBadGateway, "Device reported an error: "+devErr.Message)

	default:
		return err
	}
}

func (h *Handler) RegisterCommands(rb *router.RouteBuilder) {
	rb.Route("/command/{deviceID}", func(rb *router.RouteBuilder) {
		rb.MustPost("/", router.RouteSpec{
			OperationID: "sendCommand",
			Summary:     "Send a raw command",
			Description: "Dispatch an arbitrary JSON command to a device and wait for its reply",
			Group:       CommandGroup,
			Handler:     ErrorHandler(h.SendCommand),
		})

		rb.MustPost("/brightness", router.RouteSpec{
			OperationID: "setBrightness",
			Summary:     "Set panel brightness",
			Group:       CommandGroup,
			Handler:     ErrorHandler(h.SetBrightness),
		})

		rb.MustPost("/screen", router.RouteSpec{
			OperationID: "setScreen",
			Summary:     "Switch the panel on or off",
			Group:       CommandGroup,
			Handler:     ErrorHandler(h.SetScreen),
		})

		rb.MustPost("/info", router.RouteSpec{
			OperationID: "getDeviceInfo",
			Summary:     "Query device info",
			Group:       CommandGroup,
			Handler:     ErrorHandler(h.GetInfo),
		})

		rb.MustPost("/program", router.RouteSpec{
			OperationID: "pushProgram",
			Summary:     "Push a program",
			Description: "Forward an opaque program document to the device",
			Group:       CommandGroup,
			Handler:     ErrorHandler(h.PushProgram),
		})

		rb.MustPost("/clear", router.RouteSpec{
			OperationID: "clearProgram",
			Summary:     "Clear the current program",
			Group:       CommandGroup,
			Handler:     ErrorHandler(h.ClearProgram),
		})

		rb.MustPost("/reboot", router.RouteSpec{
			OperationID: "rebootDevice",
			Summary:     "Reboot the device",
			Group:       CommandGroup,
			Handler:     ErrorHandler(h.Reboot),
		})
	})
}
