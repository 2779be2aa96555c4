package payment

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/customcraft/internal/fulfillment"
	"github.com/MrJamesThe3rd/customcraft/internal/http/render"
	"github.com/MrJamesThe3rd/customcraft/internal/ledger"
)

type Handler struct {
	svc *fulfillment.Service
}

func NewHandler(svc *fulfillment.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/paypal-webhook", h.webhook)
}

type webhookRequest struct {
	TransactionID string          `json:"transaction_id" validate:"required"`
	MinecraftNick string          `json:"minecraft_nick" validate:"required"`
	ItemType      ledger.ItemType `json:"item_type" validate:"required"`
	Quantity      int             `json:"quantity" validate:"gte=0"`
	Amount        decimal.Decimal `json:"amount"`
	PayerEmail    string          `json:"payer_email" validate:"omitempty,email"`
	Details       any             `json:"details,omitempty"`
}

type webhookResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	MinecraftNick string `json:"minecraft_nick"`
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	Reward        string `json:"reward"`
	Replayed      bool   `json:"replayed,omitempty"`
}

func (h *Handler) webhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if err := render.Decode(r, &req); err != nil {
		render.Error(w, err)
		return
	}

	out, err := h.svc.HandlePayment(r.Context(), fulfillment.PaymentRequest{
		TransactionID: req.TransactionID,
		MinecraftNick: req.MinecraftNick,
		ItemType:      req.ItemType,
		Quantity:      req.Quantity,
		Amount:        req.Amount,
		PayerEmail:    req.PayerEmail,
	})
	if err != nil {
		render.Error(w, err)
		return
	}

	resp := webhookResponse{
		Success:       out.State == fulfillment.StateFulfilled,
		Message:       "Payment processed",
		MinecraftNick: out.Transaction.MinecraftNick,
		TransactionID: out.Transaction.TransactionID,
		Status:        string(out.Transaction.Status),
		Reward:        out.Label,
		Replayed:      out.Replayed,
	}

	if out.Replayed {
		resp.Message = "Payment already processed"
	}

	if !resp.Success {
		resp.Message = "Payment recorded but the reward could not be delivered"
	}

	render.JSON(w, http.StatusOK, resp)
}
