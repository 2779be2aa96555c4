package voucher

import (
	"time"

	"github.com/MrJamesThe3rd/customcraft/internal/ledger"
)

type voucherResponse struct {
	Code       string          `json:"code"`
	ItemType   ledger.ItemType `json:"item_type"`
	Quantity   int             `json:"quantity"`
	CreatedAt  time.Time       `json:"created_at"`
	Redeemed   bool            `json:"redeemed"`
	RedeemedBy *string         `json:"redeemed_by"`
	RedeemedAt *time.Time      `json:"redeemed_at"`
}

func toResponse(v *ledger.Voucher) voucherResponse {
	return voucherResponse{
		Code:       v.Code,
		ItemType:   v.ItemType,
		Quantity:   v.Quantity,
		CreatedAt:  v.CreatedAt,
		Redeemed:   v.Redeemed,
		RedeemedBy: v.RedeemedBy,
		RedeemedAt: v.RedeemedAt,
	}
}

func toResponseList(vs []*ledger.Voucher) []voucherResponse {
	resp := make([]voucherResponse, len(vs))
	for i, v := range vs {
		resp[i] = toResponse(v)
	}

	return resp
}
