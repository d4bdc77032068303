package api

import (
	"net/http"
	"time"

	"led-fleet-gateway/internal/apitypes"
	"led-fleet-gateway/pkg/router"
	"led-fleet-gateway/pkg/utils"
)

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) error {
	RespondJSON(w, r, http.StatusOK, apitypes.HealthResponse{
		Status:   "ok",
		Sessions: h.registry.LiveCount(),
		Uptime:   time.Since(h.startedAt).Round(time.Second).String(),
		Version:  utils.GetVersionShort(),
	})

	return nil
}

func (h *Handler) RegisterHealth(path string, rb *router.RouteBuilder) {
	rb.MustGet(path, router.RouteSpec{
		OperationID: "health",
		Summary:     "Check server health",
		Description: "Report liveness, live session count, uptime and version",
		Group:       CoreGroup,
		Handler:     ErrorHandler(h.Health),
	})
}
