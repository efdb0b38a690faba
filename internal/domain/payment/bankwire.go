package payment

import (
	"context"
	"crypto/hmac"
	"net/url"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/checkout-flow/internal/domain/basket"
	"github.com/xenking/checkout-flow/internal/domain/customer"
	"github.com/xenking/checkout-flow/internal/domain/order"
)

// BankwireConfig configures the bank-transfer method.
type BankwireConfig struct {
	// ConfirmationURL is the internal confirmation page the customer is sent
	// to; bank transfers have no external gateway page.
	ConfirmationURL string
	// Secret signs both handshake channels. Wire confirmations arrive through
	// a single back-office channel, so one secret serves both.
	Secret []byte
	// MaxTotal caps the basket total accepted by bank transfer. Zero means no
	// cap.
	MaxTotal decimal.Decimal
}

// BankwireProvider implements payment by bank transfer. There is no external
// redirect: the order stays open until the back office confirms the incoming
// wire through the callback endpoint.
type BankwireProvider struct {
	transformer
	cfg BankwireConfig
}

// NewBankwireProvider returns a BankwireProvider with the given configuration.
func NewBankwireProvider(cfg BankwireConfig) *BankwireProvider {
	return &BankwireProvider{cfg: cfg}
}

func (*BankwireProvider) Code() string { return "BANKWIRE" }
func (*BankwireProvider) Name() string { return "Bank transfer" }

// IsEligible accepts baskets under the configured total cap.
func (p *BankwireProvider) IsEligible(_ context.Context, b *basket.Basket, addr *customer.Address) (bool, error) {
	if b.Count() == 0 || addr == nil {
		return false, nil
	}
	if !p.cfg.MaxTotal.IsZero() && b.Total().GreaterThan(p.cfg.MaxTotal) {
		return false, nil
	}
	return true, nil
}

// IsBasketCompatible re-checks the total cap at submission time.
func (p *BankwireProvider) IsBasketCompatible(b *basket.Basket) bool {
	if b.Count() == 0 {
		return false
	}
	return p.cfg.MaxTotal.IsZero() || !b.Total().GreaterThan(p.cfg.MaxTotal)
}

// OrderReference extracts the reported order reference.
func (*BankwireProvider) OrderReference(tx *Transaction) string {
	return tx.Parameters.Get(ParamReference)
}

// ApplyTransactionID records the back-office transaction identifier.
func (*BankwireProvider) ApplyTransactionID(tx *Transaction) {
	tx.ExternalID = tx.Parameters.Get(ParamTransactionID)
}

// IsRequestValid verifies the handshake signature.
func (p *BankwireProvider) IsRequestValid(tx *Transaction) bool {
	return p.checkSignature(tx, ParamCheck)
}

// IsCallbackValid verifies the handshake signature on the callback channel.
func (p *BankwireProvider) IsCallbackValid(tx *Transaction) bool {
	return p.checkSignature(tx, ParamCheckCallback)
}

func (p *BankwireProvider) checkSignature(tx *Transaction, param string) bool {
	reference := tx.Parameters.Get(ParamReference)
	transactionID := tx.Parameters.Get(ParamTransactionID)
	check := tx.Parameters.Get(param)
	if reference == "" || transactionID == "" || check == "" {
		return false
	}
	want := Sign(reference, transactionID, p.cfg.Secret)
	return hmac.Equal([]byte(check), []byte(want))
}

// HandleError records the failure on the transaction and its order.
func (*BankwireProvider) HandleError(_ context.Context, tx *Transaction) error {
	tx.Status = TransactionError
	if tx.Order != nil && tx.Order.Status == order.StatusOpen {
		tx.Order.Status = order.StatusError
	}
	return nil
}

// SendConfirmationReceipt acknowledges the wire confirmation.
func (*BankwireProvider) SendConfirmationReceipt(_ context.Context, tx *Transaction) (Ack, error) {
	tx.Status = TransactionConfirmed
	return Ack{ContentType: "text/plain", Body: []byte("ok")}, nil
}

// CallGateway sends the customer to the internal confirmation page carrying
// the wire payment instructions.
func (p *BankwireProvider) CallGateway(o *order.Order) (GatewayInstruction, error) {
	u, err := url.Parse(p.cfg.ConfirmationURL)
	if err != nil {
		return GatewayInstruction{}, errors.Wrap(err, "parse confirmation url")
	}

	q := u.Query()
	q.Set(ParamBank, p.Code())
	q.Set(ParamReference, o.Reference)
	q.Set(ParamTransactionID, uuid.New().String())
	u.RawQuery = q.Encode()

	return GatewayInstruction{RedirectURL: u.String()}, nil
}
