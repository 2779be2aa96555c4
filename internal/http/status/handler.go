package status

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/customcraft/internal/fulfillment"
	"github.com/MrJamesThe3rd/customcraft/internal/http/render"
)

var endpoints = map[string]string{
	"test_rcon":      "/api/test-rcon",
	"paypal_webhook": "/api/paypal-webhook",
	"redeem_voucher": "/api/redeem-voucher",
	"create_voucher": "/api/create-voucher",
	"transactions":   "/api/transactions",
	"vouchers":       "/api/vouchers",
}

type Handler struct {
	svc     *fulfillment.Service
	name    string
	version string
}

func NewHandler(svc *fulfillment.Service, name, version string) *Handler {
	return &Handler{svc: svc, name: name, version: version}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.index)
}

// AdminRoutes must be mounted behind middleware.RequireAdmin.
func (h *Handler) AdminRoutes(r chi.Router) {
	r.Get("/test-rcon", h.testRCON)
}

type indexResponse struct {
	Status    string            `json:"status"`
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

func (h *Handler) index(w http.ResponseWriter, _ *http.Request) {
	render.JSON(w, http.StatusOK, indexResponse{
		Status:    "online",
		Message:   h.name + " backend is running",
		Version:   h.version,
		Endpoints: endpoints,
	})
}

type probeResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Response string `json:"response"`
}

func (h *Handler) testRCON(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Probe(r.Context())
	if err != nil {
		render.Error(w, err)
		return
	}

	render.JSON(w, http.StatusOK, probeResponse{
		Success:  true,
		Message:  "RCON connection works",
		Response: resp,
	})
}
