package render_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/customcraft/internal/auth"
	"github.com/MrJamesThe3rd/customcraft/internal/fulfillment"
	"github.com/MrJamesThe3rd/customcraft/internal/http/render"
	"github.com/MrJamesThe3rd/customcraft/internal/ledger"
	"github.com/MrJamesThe3rd/customcraft/internal/reward"
)

type redeemBody struct {
	Nick string `json:"minecraft_nick" validate:"required"`
	Code string `json:"voucher_code" validate:"required"`
	Qty  int    `json:"quantity" validate:"gte=0"`
}

func TestDecode(t *testing.T) {
	type testCase struct {
		name       string
		body       string
		wantFields []string
		wantErr    bool
	}

	tests := []testCase{
		{name: "Valid", body: `{"minecraft_nick":"Sam","voucher_code":"VOUCHER-AB12CD34"}`},
		{name: "Malformed", body: `{"minecraft_nick":`, wantErr: true},
		{name: "MissingFields", body: `{}`, wantErr: true, wantFields: []string{"minecraft_nick", "voucher_code"}},
		{name: "NegativeQuantity", body: `{"minecraft_nick":"Sam","voucher_code":"V","quantity":-1}`, wantErr: true, wantFields: []string{"quantity"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))

			var dest redeemBody
			err := render.Decode(req, &dest)

			if !tt.wantErr {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.ErrorIs(t, err, reward.ErrValidation)

			var ve *render.ValidationError
			require.ErrorAs(t, err, &ve)

			for _, f := range tt.wantFields {
				assert.Contains(t, ve.Fields, f)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	type testCase struct {
		name string
		err  error
		want int
	}

	tests := []testCase{
		{name: "Validation", err: reward.ErrInvalidNick, want: http.StatusBadRequest},
		{name: "Unauthorized", err: auth.ErrUnauthorized, want: http.StatusUnauthorized},
		{name: "NotFound", err: ledger.ErrNotFound, want: http.StatusNotFound},
		{name: "InProgress", err: fulfillment.ErrFulfillmentInProgress, want: http.StatusConflict},
		{name: "Dispatch", err: &reward.DispatchError{Command: "list", Cause: reward.ErrTimeout}, want: http.StatusBadGateway},
		{name: "Storage", err: &ledger.StorageError{Op: "persisting", Err: errors.New("disk full")}, want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, render.StatusFor(tt.err))
		})
	}
}

func TestError_HidesStorageDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	render.Error(rec, &ledger.StorageError{Op: "persisting vouchers", Err: errors.New("/srv/vouchers.json: read-only")})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"internal error"}`, rec.Body.String())
}
