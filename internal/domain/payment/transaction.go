package payment

import (
	"context"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/xenking/checkout-flow/internal/domain/order"
)

// TransactionStatus is the lifecycle state of a gateway transaction record.
type TransactionStatus string

const (
	// TransactionCreated is the initial state of a freshly built transaction.
	TransactionCreated TransactionStatus = "created"
	// TransactionValidated marks a transaction whose handshake check passed.
	TransactionValidated TransactionStatus = "validated"
	// TransactionError marks a transaction the gateway reported as failed or
	// whose handshake check did not pass.
	TransactionError TransactionStatus = "error"
	// TransactionConfirmed marks a transaction acknowledged back to the gateway.
	TransactionConfirmed TransactionStatus = "confirmed"
)

// Params is the opaque parameter bag echoed verbatim from an inbound gateway
// request. It is the sole input to handshake validation.
type Params map[string]string

// Get returns the value for key, or an empty string.
func (p Params) Get(key string) string {
	return p[key]
}

// MergeParams flattens query and body parameters into a single bag, taking the
// first value per key. On key collision the body value wins. The merged bag is
// the input to handshake validation.
func MergeParams(query, body url.Values) Params {
	merged := make(Params, len(query)+len(body))
	for key := range query {
		merged[key] = query.Get(key)
	}
	for key := range body {
		merged[key] = body.Get(key)
	}
	return merged
}

// Transaction is the audit record of one inbound gateway request. A fresh
// transaction is created for every request on both gateway paths and persisted
// after validation regardless of outcome.
type Transaction struct {
	ID          string            `json:"id"`
	PaymentCode string            `json:"payment_code"`
	ExternalID  string            `json:"external_id,omitempty"`
	Parameters  Params            `json:"parameters"`
	Order       *order.Order      `json:"-"`
	Status      TransactionStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
}

// NewTransaction builds a transaction for one inbound gateway request.
func NewTransaction(paymentCode string, params Params) *Transaction {
	return &Transaction{
		ID:          uuid.New().String(),
		PaymentCode: paymentCode,
		Parameters:  params,
		Status:      TransactionCreated,
		CreatedAt:   time.Now().UTC(),
	}
}

// TransactionRepository persists gateway transaction records.
type TransactionRepository interface {
	Save(ctx context.Context, tx *Transaction) error
}
