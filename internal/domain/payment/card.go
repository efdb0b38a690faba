package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/xenking/checkout-flow/internal/domain/basket"
	"github.com/xenking/checkout-flow/internal/domain/customer"
	"github.com/xenking/checkout-flow/internal/domain/order"
)

// Well-known gateway parameter names shared by the provider implementations.
const (
	ParamBank          = "bank"
	ParamReference     = "reference"
	ParamTransactionID = "transaction_id"
	ParamCheck         = "check"
	ParamCheckCallback = "check_callback"
	ParamStatus        = "status"
)

// CardConfig configures the card gateway integration.
type CardConfig struct {
	// GatewayURL is the bank-hosted payment page customers are redirected to.
	GatewayURL string
	// Secret signs the synchronous browser-return channel.
	Secret []byte
	// CallbackSecret signs the asynchronous server-to-server channel. Kept
	// separate from Secret so a leaked browser-channel value cannot forge
	// callbacks.
	CallbackSecret []byte
}

// CardProvider integrates a redirect-based card gateway. The handshake on both
// channels is an HMAC-SHA256 over the order reference and the gateway
// transaction identifier.
type CardProvider struct {
	transformer
	cfg CardConfig
}

// NewCardProvider returns a CardProvider with the given gateway configuration.
func NewCardProvider(cfg CardConfig) *CardProvider {
	return &CardProvider{cfg: cfg}
}

func (*CardProvider) Code() string { return "CARD" }
func (*CardProvider) Name() string { return "Credit card" }

// IsEligible accepts any non-empty basket with a billing address.
func (*CardProvider) IsEligible(_ context.Context, b *basket.Basket, addr *customer.Address) (bool, error) {
	return b.Count() > 0 && addr != nil, nil
}

// IsBasketCompatible re-checks the basket at submission time.
func (*CardProvider) IsBasketCompatible(b *basket.Basket) bool {
	return b.Count() > 0
}

// OrderReference extracts the gateway-reported order reference.
func (*CardProvider) OrderReference(tx *Transaction) string {
	return tx.Parameters.Get(ParamReference)
}

// ApplyTransactionID records the gateway-assigned transaction identifier.
func (*CardProvider) ApplyTransactionID(tx *Transaction) {
	tx.ExternalID = tx.Parameters.Get(ParamTransactionID)
}

// IsRequestValid verifies the browser-return handshake signature.
func (p *CardProvider) IsRequestValid(tx *Transaction) bool {
	return p.checkSignature(tx, ParamCheck, p.cfg.Secret)
}

// IsCallbackValid verifies the asynchronous-channel handshake signature.
func (p *CardProvider) IsCallbackValid(tx *Transaction) bool {
	return p.checkSignature(tx, ParamCheckCallback, p.cfg.CallbackSecret)
}

func (p *CardProvider) checkSignature(tx *Transaction, param string, secret []byte) bool {
	reference := tx.Parameters.Get(ParamReference)
	transactionID := tx.Parameters.Get(ParamTransactionID)
	check := tx.Parameters.Get(ParamCheck)
	if param == ParamCheckCallback {
		check = tx.Parameters.Get(ParamCheckCallback)
	}
	if reference == "" || transactionID == "" || check == "" {
		return false
	}
	want := Sign(reference, transactionID, secret)
	return hmac.Equal([]byte(check), []byte(want))
}

// HandleError records the gateway failure on the transaction and its order.
func (*CardProvider) HandleError(_ context.Context, tx *Transaction) error {
	tx.Status = TransactionError
	if tx.Order != nil && tx.Order.Status == order.StatusOpen {
		tx.Order.Status = order.StatusError
	}
	return nil
}

// SendConfirmationReceipt acknowledges the callback with the plain-text body
// the gateway expects and marks the transaction confirmed.
func (*CardProvider) SendConfirmationReceipt(_ context.Context, tx *Transaction) (Ack, error) {
	tx.Status = TransactionConfirmed
	return Ack{ContentType: "text/plain", Body: []byte("ok")}, nil
}

// CallGateway builds the bank redirect for a persisted order, carrying a fresh
// gateway transaction identifier and the browser-channel signature.
func (p *CardProvider) CallGateway(o *order.Order) (GatewayInstruction, error) {
	u, err := url.Parse(p.cfg.GatewayURL)
	if err != nil {
		return GatewayInstruction{}, errors.Wrap(err, "parse gateway url")
	}

	transactionID := uuid.New().String()
	q := u.Query()
	q.Set(ParamBank, p.Code())
	q.Set(ParamReference, o.Reference)
	q.Set(ParamTransactionID, transactionID)
	q.Set(ParamCheck, Sign(o.Reference, transactionID, p.cfg.Secret))
	u.RawQuery = q.Encode()

	return GatewayInstruction{RedirectURL: u.String()}, nil
}

// Sign computes the hex HMAC-SHA256 handshake value over an order reference
// and gateway transaction identifier.
func Sign(reference, transactionID string, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(reference))
	mac.Write([]byte{'|'})
	mac.Write([]byte(transactionID))
	return hex.EncodeToString(mac.Sum(nil))
}
