package transaction

import (
	"net/http"

	"github.com/go-chi/chi/v5"

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

// Routes must be mounted behind middleware.RequireAdmin.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/transactions", h.list)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	txs, err := h.svc.ListTransactions(r.Context())
	if err != nil {
		render.Error(w, err)
		return
	}

	if s := r.URL.Query().Get("status"); s != "" {
		txs = filterStatus(txs, ledger.Status(s))
	}

	render.JSON(w, http.StatusOK, toResponseList(txs))
}

func filterStatus(txs []*ledger.Transaction, status ledger.Status) []*ledger.Transaction {
	out := make([]*ledger.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Status == status {
			out = append(out, tx)
		}
	}

	return out
}
