package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/customcraft/internal/auth"
	"github.com/MrJamesThe3rd/customcraft/internal/fulfillment"
	apihttp "github.com/MrJamesThe3rd/customcraft/internal/http"
	"github.com/MrJamesThe3rd/customcraft/internal/http/payment"
	"github.com/MrJamesThe3rd/customcraft/internal/http/status"
	"github.com/MrJamesThe3rd/customcraft/internal/http/transaction"
	voucherHandler "github.com/MrJamesThe3rd/customcraft/internal/http/voucher"
	"github.com/MrJamesThe3rd/customcraft/internal/ledger"
	"github.com/MrJamesThe3rd/customcraft/internal/ledger/filestore"
	"github.com/MrJamesThe3rd/customcraft/internal/metrics"
	"github.com/MrJamesThe3rd/customcraft/internal/reward"
	"github.com/MrJamesThe3rd/customcraft/internal/voucher"
)

const adminKey = "SpinjistuMaster"

type server struct {
	handler    http.Handler
	store      *filestore.Store
	dispatcher *fulfillment.MockDispatcher
}

func newServer(t *testing.T) *server {
	t.Helper()

	return newServerWithLedger(t, func(s *filestore.Store) fulfillment.Ledger { return s })
}

func newServerWithLedger(t *testing.T, wrap func(*filestore.Store) fulfillment.Ledger) *server {
	t.Helper()

	ctrl := gomock.NewController(t)

	store, err := filestore.New(t.TempDir())
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	authz := auth.New(adminKey, "token-secret")
	d := fulfillment.NewMockDispatcher(ctrl)

	svc := fulfillment.NewService(wrap(store), voucher.NewService(store, authz), d,
		fulfillment.WithMetrics(metrics.NewFulfillmentMetrics(reg)),
		fulfillment.WithBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} }),
	)

	h := apihttp.New(
		apihttp.Options{Authorizer: authz, AllowedOrigins: []string{"*"}, Metrics: reg},
		status.NewHandler(svc, "CustomCraft", "test"),
		payment.NewHandler(svc),
		voucherHandler.NewHandler(svc),
		transaction.NewHandler(svc),
	)

	return &server{handler: h, store: store, dispatcher: d}
}

func (s *server) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))

	return v
}

func acknowledged(commands ...string) reward.Outcome {
	return reward.Outcome{Commands: commands, Responses: make([]string, len(commands)), Succeeded: len(commands)}
}

func TestRouter_Index(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, "online", body["status"])
	assert.Contains(t, body["endpoints"], "paypal_webhook")
}

func TestRouter_PaymentWebhook(t *testing.T) {
	const vip = `{"transaction_id":"PAYID-7HX21","minecraft_nick":"Alex","item_type":"VIP","quantity":1,"amount":"19.99","payer_email":"alex@example.com"}`

	type testCase struct {
		name       string
		body       string
		setupMock  func(d *fulfillment.MockDispatcher)
		wantStatus int
		wantTx     int
	}

	tests := []testCase{
		{
			name: "GrantsVIP",
			body: vip,
			setupMock: func(d *fulfillment.MockDispatcher) {
				d.EXPECT().Dispatch(gomock.Any(), []string{"lp user Alex parent settemp vip 30d"}).
					Return(acknowledged("lp user Alex parent settemp vip 30d"), nil)
			},
			wantStatus: http.StatusOK,
			wantTx:     1,
		},
		{
			name:       "InvalidNick",
			body:       `{"transaction_id":"PAYID-1","minecraft_nick":"Alex op","item_type":"VIP"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "UnknownItem",
			body:       `{"transaction_id":"PAYID-1","minecraft_nick":"Alex","item_type":"Klucz Boski"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "MissingFields",
			body:       `{"minecraft_nick":"Alex"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "DispatchFails",
			body: vip,
			setupMock: func(d *fulfillment.MockDispatcher) {
				d.EXPECT().Dispatch(gomock.Any(), gomock.Any()).
					Return(reward.Outcome{}, &reward.DispatchError{Command: "lp user Alex parent settemp vip 30d", Cause: reward.ErrTimeout})
			},
			wantStatus: http.StatusBadGateway,
			wantTx:     1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newServer(t)
			if tt.setupMock != nil {
				tt.setupMock(s.dispatcher)
			}

			rec := s.do(http.MethodPost, "/api/paypal-webhook", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)

			body := decode[map[string]any](t, rec)
			assert.Equal(t, tt.wantStatus == http.StatusOK, body["success"])

			txs, err := s.store.ListTransactions(t.Context())
			require.NoError(t, err)
			assert.Len(t, txs, tt.wantTx)
		})
	}
}

func TestRouter_PaymentWebhook_Replay(t *testing.T) {
	s := newServer(t)
	s.dispatcher.EXPECT().Dispatch(gomock.Any(), gomock.Any()).
		Return(acknowledged("lp user Alex parent settemp vip+ 30d"), nil).Times(1)

	const body = `{"transaction_id":"PAYID-9","minecraft_nick":"Alex","item_type":"VIP+","amount":29.99}`

	first := s.do(http.MethodPost, "/api/paypal-webhook", body)
	require.Equal(t, http.StatusOK, first.Code)

	second := s.do(http.MethodPost, "/api/paypal-webhook", body)
	require.Equal(t, http.StatusOK, second.Code)

	resp := decode[map[string]any](t, second)
	assert.Equal(t, true, resp["replayed"])
	assert.Equal(t, "completed", resp["status"])
}

// brokenStatusLedger records transactions but can never close them.
type brokenStatusLedger struct {
	*filestore.Store
	updates int
}

func (l *brokenStatusLedger) UpdateTransactionStatus(context.Context, string, ledger.Status) (*ledger.Transaction, error) {
	l.updates++
	return nil, &ledger.StorageError{Op: "persisting transactions", Err: errors.New("disk full")}
}

func TestRouter_PaymentWebhook_StatusWriteFails(t *testing.T) {
	const body = `{"transaction_id":"PAYID-STUCK","minecraft_nick":"Alex","item_type":"VIP","amount":"19.99"}`

	tests := []struct {
		name       string
		dispatched error
		wantStatus int
	}{
		{name: "AfterSuccessfulDispatch", wantStatus: http.StatusInternalServerError},
		{
			name:       "AfterFailedDispatch",
			dispatched: &reward.DispatchError{Command: "lp user Alex parent settemp vip 30d", Cause: reward.ErrTimeout},
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var broken *brokenStatusLedger
			s := newServerWithLedger(t, func(fs *filestore.Store) fulfillment.Ledger {
				broken = &brokenStatusLedger{Store: fs}
				return broken
			})

			s.dispatcher.EXPECT().Dispatch(gomock.Any(), gomock.Any()).
				Return(acknowledged("lp user Alex parent settemp vip 30d"), tt.dispatched).Times(1)

			rec := s.do(http.MethodPost, "/api/paypal-webhook", body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, 3, broken.updates)

			resp := decode[map[string]any](t, rec)
			assert.Equal(t, false, resp["success"])

			tx, err := s.store.FindTransaction(t.Context(), "PAYID-STUCK")
			require.NoError(t, err)
			assert.Equal(t, ledger.StatusProcessing, tx.Status)

			// A redelivery must not grant the reward a second time.
			again := s.do(http.MethodPost, "/api/paypal-webhook", body)
			assert.Equal(t, http.StatusConflict, again.Code)
		})
	}
}

func TestRouter_PaymentWebhook_RequiresJSON(t *testing.T) {
	s := newServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/paypal-webhook", strings.NewReader("transaction_id=1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestRouter_VoucherLifecycle(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodPost, "/api/create-voucher", `{"item_type":"Klucz Epicki","quantity":3,"admin_key":"`+adminKey+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	created := decode[struct {
		Success bool `json:"success"`
		Voucher struct {
			Code     string `json:"code"`
			ItemType string `json:"item_type"`
			Quantity int    `json:"quantity"`
			Redeemed bool   `json:"redeemed"`
		} `json:"voucher"`
	}](t, rec)
	require.True(t, created.Success)
	assert.Regexp(t, `^VOUCHER-[A-Z0-9]{8}$`, created.Voucher.Code)
	assert.Equal(t, 3, created.Voucher.Quantity)

	s.dispatcher.EXPECT().Dispatch(gomock.Any(), []string{"crate give physical epic 3 Sam"}).
		Return(acknowledged("crate give physical epic 3 Sam"), nil).Times(1)

	redeem := `{"minecraft_nick":"Sam","voucher_code":"` + created.Voucher.Code + `"}`

	rec = s.do(http.MethodPost, "/api/redeem-voucher", redeem)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"Voucher redeemed","minecraft_nick":"Sam","reward":"Klucz Epicki x3"}`, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/redeem-voucher", redeem)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"This voucher has already been used"}`, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/redeem-voucher", `{"minecraft_nick":"Alex","voucher_code":"VOUCHER-ZZZZ"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Invalid voucher code"}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/vouchers", "", "X-Admin-Key", adminKey)
	require.Equal(t, http.StatusOK, rec.Code)

	list := decode[[]struct {
		Code       string  `json:"code"`
		Redeemed   bool    `json:"redeemed"`
		RedeemedBy *string `json:"redeemed_by"`
	}](t, rec)
	require.Len(t, list, 1)
	assert.True(t, list[0].Redeemed)
	require.NotNil(t, list[0].RedeemedBy)
	assert.Equal(t, "Sam", *list[0].RedeemedBy)
}

func TestRouter_CreateVoucher(t *testing.T) {
	token, err := auth.IssueToken("token-secret", time.Minute)
	require.NoError(t, err)

	type testCase struct {
		name       string
		body       string
		headers    []string
		wantStatus int
	}

	tests := []testCase{
		{name: "BodyKey", body: `{"item_type":"VIP","admin_key":"` + adminKey + `"}`, wantStatus: http.StatusOK},
		{name: "BearerToken", body: `{"item_type":"VIP"}`, headers: []string{"Authorization", "Bearer " + token}, wantStatus: http.StatusOK},
		{name: "WrongKey", body: `{"item_type":"VIP","admin_key":"guess"}`, wantStatus: http.StatusUnauthorized},
		{name: "NoKey", body: `{"item_type":"VIP"}`, wantStatus: http.StatusUnauthorized},
		{name: "UnknownItem", body: `{"item_type":"Diamond","admin_key":"` + adminKey + `"}`, wantStatus: http.StatusBadRequest},
		{name: "NegativeQuantity", body: `{"item_type":"VIP","quantity":-4,"admin_key":"` + adminKey + `"}`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newServer(t)

			rec := s.do(http.MethodPost, "/api/create-voucher", tt.body, tt.headers...)
			assert.Equal(t, tt.wantStatus, rec.Code)

			vs, err := s.store.ListVouchers(t.Context())
			require.NoError(t, err)

			if tt.wantStatus == http.StatusOK {
				assert.Len(t, vs, 1)
			} else {
				assert.Empty(t, vs)
			}
		})
	}
}

func TestRouter_AdminEndpoints(t *testing.T) {
	type testCase struct {
		name       string
		path       string
		headers    []string
		setupMock  func(d *fulfillment.MockDispatcher)
		wantStatus int
	}

	tests := []testCase{
		{name: "TransactionsNoKey", path: "/api/transactions", wantStatus: http.StatusUnauthorized},
		{name: "Transactions", path: "/api/transactions", headers: []string{"X-Admin-Key", adminKey}, wantStatus: http.StatusOK},
		{name: "TransactionsByStatus", path: "/api/transactions?status=failed", headers: []string{"Authorization", "Bearer " + adminKey}, wantStatus: http.StatusOK},
		{name: "VouchersNoKey", path: "/api/vouchers", wantStatus: http.StatusUnauthorized},
		{name: "TestRCONNoKey", path: "/api/test-rcon", wantStatus: http.StatusUnauthorized},
		{
			name:    "TestRCON",
			path:    "/api/test-rcon",
			headers: []string{"X-Admin-Key", adminKey},
			setupMock: func(d *fulfillment.MockDispatcher) {
				d.EXPECT().Probe(gomock.Any()).Return("There are 0 of a max of 20 players online:", nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:    "TestRCONUnreachable",
			path:    "/api/test-rcon",
			headers: []string{"X-Admin-Key", adminKey},
			setupMock: func(d *fulfillment.MockDispatcher) {
				d.EXPECT().Probe(gomock.Any()).Return("", &reward.DispatchError{Command: "list", Cause: errors.New("connection refused")})
			},
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newServer(t)
			if tt.setupMock != nil {
				tt.setupMock(s.dispatcher)
			}

			rec := s.do(http.MethodGet, tt.path, "", tt.headers...)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRouter_TransactionsList(t *testing.T) {
	s := newServer(t)
	ctx := t.Context()

	_, err := s.store.AppendTransaction(ctx, ledger.TransactionDraft{TransactionID: "PAYID-1", MinecraftNick: "Alex", ItemType: ledger.ItemVIP, Quantity: 1})
	require.NoError(t, err)
	_, err = s.store.AppendTransaction(ctx, ledger.TransactionDraft{TransactionID: "PAYID-2", MinecraftNick: "Sam", ItemType: ledger.ItemKeyRare, Quantity: 2})
	require.NoError(t, err)
	_, err = s.store.UpdateTransactionStatus(ctx, "PAYID-2", ledger.StatusFailed)
	require.NoError(t, err)

	rec := s.do(http.MethodGet, "/api/transactions", "", "X-Admin-Key", adminKey)
	require.Equal(t, http.StatusOK, rec.Code)

	all := decode[[]map[string]any](t, rec)
	require.Len(t, all, 2)
	assert.Equal(t, "PAYID-1", all[0]["transaction_id"])
	assert.Equal(t, "processing", all[0]["status"])

	rec = s.do(http.MethodGet, "/api/transactions?status=failed", "", "X-Admin-Key", adminKey)
	require.Equal(t, http.StatusOK, rec.Code)

	failed := decode[[]map[string]any](t, rec)
	require.Len(t, failed, 1)
	assert.Equal(t, "Sam", failed[0]["minecraft_nick"])
}

func TestRouter_Metrics(t *testing.T) {
	s := newServer(t)

	s.do(http.MethodPost, "/api/redeem-voucher", `{"minecraft_nick":"Alex","voucher_code":"VOUCHER-ZZZZ"}`)

	rec := s.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `fulfillments_total{outcome="rejected",source="voucher"} 1`)
}
