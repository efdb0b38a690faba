package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/checkout-flow/internal/checkout"
	"github.com/xenking/checkout-flow/internal/domain/customer"
	"github.com/xenking/checkout-flow/internal/domain/delivery"
	"github.com/xenking/checkout-flow/internal/domain/order"
	"github.com/xenking/checkout-flow/internal/domain/payment"
	"github.com/xenking/checkout-flow/internal/handler"
	"github.com/xenking/checkout-flow/internal/storage/session"
)

var (
	syncSecret  = []byte("sync-secret")
	asyncSecret = []byte("async-secret")
)

type ordersStub struct {
	mu    sync.Mutex
	byRef map[string]*order.Order
}

func (s *ordersStub) Save(_ context.Context, o *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *o
	s.byRef[o.Reference] = &cp
	return nil
}

func (s *ordersStub) FindByReference(_ context.Context, reference string) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.byRef[reference]
	if !ok {
		return nil, order.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *ordersStub) Confirm(_ context.Context, reference string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.byRef[reference]
	if !ok || o.Status != order.StatusOpen {
		return false, nil
	}
	o.Status = order.StatusConfirmed
	return true, nil
}

type refsStub struct {
	mu  sync.Mutex
	seq int
}

func (r *refsStub) Assign(_ context.Context, o *order.Order) error {
	if o.Reference != "" {
		return nil
	}
	r.mu.Lock()
	r.seq++
	o.Reference = fmt.Sprintf("ORD-%06d", r.seq)
	r.mu.Unlock()
	return nil
}

type txStub struct{}

func (txStub) Save(context.Context, *payment.Transaction) error { return nil }

type addressesStub struct{}

func (addressesStub) FindByCustomerAndType(_ context.Context, _ string, typ customer.AddressType) ([]customer.Address, error) {
	switch typ {
	case customer.AddressDelivery:
		return []customer.Address{{ID: "addr-d1", Type: typ, CountryCode: "FR"}}, nil
	default:
		return []customer.Address{{ID: "addr-b1", Type: typ, CountryCode: "FR"}}, nil
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	card := payment.NewCardProvider(payment.CardConfig{
		GatewayURL:     "https://bank.example.com/pay",
		Secret:         syncSecret,
		CallbackSecret: asyncSecret,
	})
	flow := checkout.New(
		checkout.Config{},
		session.NewMemoryStore(),
		addressesStub{},
		delivery.NewPool(delivery.StandardProvider{}),
		payment.NewPool(card),
		&ordersStub{byRef: make(map[string]*order.Order)},
		&refsStub{},
		txStub{},
	)

	srv := httptest.NewServer(handler.New(flow).Routes())
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func postJSON(t *testing.T, c *http.Client, url, body string) *http.Response {
	t.Helper()
	resp, err := c.Post(url, "application/json", bytes.NewReader([]byte(body)))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestCheckoutFlow_HTTP(t *testing.T) {
	srv := newTestServer(t)
	c := newClient(t)

	resp := postJSON(t, c, srv.URL+"/checkout/basket/add",
		`{"product_id":"p-1","product_name":"Waffle","unit_price":"5.50","quantity":2}`)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	resp.Body.Close()

	// Anonymous basket: delivery redirects to auth.
	resp = postJSON(t, c, srv.URL+"/checkout/delivery", `{"method_code":"STANDARD"}`)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/checkout/auth", resp.Header.Get("Location"))
	resp.Body.Close()

	resp = postJSON(t, c, srv.URL+"/checkout/auth", `{"customer_id":"cust-1","customer_name":"Ada"}`)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/checkout/delivery", resp.Header.Get("Location"))
	resp.Body.Close()

	resp = postJSON(t, c, srv.URL+"/checkout/delivery", `{"method_code":"STANDARD"}`)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/checkout/payment", resp.Header.Get("Location"))
	resp.Body.Close()

	resp = postJSON(t, c, srv.URL+"/checkout/payment", `{"method_code":"CARD"}`)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/checkout/final", resp.Header.Get("Location"))
	resp.Body.Close()

	// Review without the terms flag re-renders instead of converting.
	resp = postJSON(t, c, srv.URL+"/checkout/final", `{"tac":false}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, true, body["tac_error"])

	resp = postJSON(t, c, srv.URL+"/checkout/final", `{"tac":true}`)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), "https://bank.example.com/pay")
	body = decodeBody(t, resp)
	reference, _ := body["reference"].(string)
	require.NotEmpty(t, reference)

	// The conversion reset the session basket.
	resp, err := c.Get(srv.URL + "/checkout/basket")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	basket := body["basket"].(map[string]any)
	assert.Empty(t, basket["elements"])

	// Gateway confirms asynchronously.
	form := url.Values{
		payment.ParamBank:          {"CARD"},
		payment.ParamReference:     {reference},
		payment.ParamTransactionID: {"tx-1"},
		payment.ParamCheckCallback: {payment.Sign(reference, "tx-1", asyncSecret)},
	}
	resp, err = c.Post(srv.URL+"/payment/callback", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ack, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "ok", string(ack))

	resp, err = c.Get(srv.URL + "/payment/confirmation?reference=" + reference)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	ord := body["order"].(map[string]any)
	assert.Equal(t, string(order.StatusConfirmed), ord["status"])
}

func TestCheckoutFlow_ValidationErrors(t *testing.T) {
	srv := newTestServer(t)
	c := newClient(t)

	resp := postJSON(t, c, srv.URL+"/checkout/basket/add", `{"product_id":"","quantity":0}`)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	body := decodeBody(t, resp)
	violations := body["violations"].([]any)
	assert.Len(t, violations, 2)

	resp = postJSON(t, c, srv.URL+"/checkout/basket/add", `not json`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestGatewayEndpoints_NotFound(t *testing.T) {
	srv := newTestServer(t)
	c := newClient(t)

	resp, err := c.Get(srv.URL + "/payment/confirmation?reference=ORD-999999")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// A callback for an unknown reference is indistinguishable from a forged
	// one at the boundary.
	form := url.Values{
		payment.ParamBank:          {"CARD"},
		payment.ParamReference:     {"ORD-999999"},
		payment.ParamTransactionID: {"tx-1"},
		payment.ParamCheckCallback: {payment.Sign("ORD-999999", "tx-1", asyncSecret)},
	}
	resp, err = c.Post(srv.URL+"/payment/callback", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Unknown payment method on the error path.
	resp, err = c.Get(srv.URL + "/payment/error?bank=WIRE")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}
