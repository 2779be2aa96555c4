package voucher

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/customcraft/internal/fulfillment"
	"github.com/MrJamesThe3rd/customcraft/internal/http/middleware"
	"github.com/MrJamesThe3rd/customcraft/internal/http/render"
	"github.com/MrJamesThe3rd/customcraft/internal/ledger"
	"github.com/MrJamesThe3rd/customcraft/internal/voucher"
)

type Handler struct {
	svc *fulfillment.Service
}

func NewHandler(svc *fulfillment.Service) *Handler {
	return &Handler{svc: svc}
}

// Routes registers the endpoints that do their own credential checks.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/redeem-voucher", h.redeem)
	r.Post("/create-voucher", h.create)
}

// AdminRoutes must be mounted behind middleware.RequireAdmin.
func (h *Handler) AdminRoutes(r chi.Router) {
	r.Get("/vouchers", h.list)
}

type redeemRequest struct {
	MinecraftNick string `json:"minecraft_nick" validate:"required"`
	VoucherCode   string `json:"voucher_code" validate:"required"`
}

type redeemResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	MinecraftNick string `json:"minecraft_nick,omitempty"`
	Reward        string `json:"reward,omitempty"`
}

var rejections = map[voucher.Status]string{
	voucher.StatusNotFound:        "Invalid voucher code",
	voucher.StatusAlreadyRedeemed: "This voucher has already been used",
}

func (h *Handler) redeem(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if err := render.Decode(r, &req); err != nil {
		render.Error(w, err)
		return
	}

	out, err := h.svc.HandleVoucherRedemption(r.Context(), req.VoucherCode, req.MinecraftNick)
	if err != nil {
		render.Error(w, err)
		return
	}

	if msg, rejected := rejections[out.Status]; rejected {
		render.JSON(w, http.StatusOK, redeemResponse{Message: msg})
		return
	}

	render.JSON(w, http.StatusOK, redeemResponse{
		Success:       true,
		Message:       "Voucher redeemed",
		MinecraftNick: out.Nick,
		Reward:        out.Label,
	})
}

type createRequest struct {
	ItemType ledger.ItemType `json:"item_type" validate:"required"`
	Quantity int             `json:"quantity" validate:"gte=0"`
	AdminKey string          `json:"admin_key"`
}

type createResponse struct {
	Success bool            `json:"success"`
	Voucher voucherResponse `json:"voucher"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := render.Decode(r, &req); err != nil {
		render.Error(w, err)
		return
	}

	credential := req.AdminKey
	if credential == "" {
		credential = middleware.Credential(r)
	}

	v, err := h.svc.IssueVoucher(r.Context(), req.ItemType, req.Quantity, credential)
	if err != nil {
		render.Error(w, err)
		return
	}

	render.JSON(w, http.StatusOK, createResponse{Success: true, Voucher: toResponse(v)})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	vs, err := h.svc.ListVouchers(r.Context())
	if err != nil {
		render.Error(w, err)
		return
	}

	render.JSON(w, http.StatusOK, toResponseList(vs))
}
