package basket

import "fmt"

// Validation group names. Each checkout step validates its own group; the
// final review validates all three.
const (
	GroupElements = "elements"
	GroupDelivery = "delivery"
	GroupPayment  = "payment"
)

// Violation is a structured per-field validation error. Violations are data
// surfaced back to the customer, not control flow.
type Violation struct {
	PropertyPath string `json:"property_path"`
	Message      string `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.PropertyPath, v.Message)
}

// Validate checks the basket against the named validation groups and returns
// every violation found. An empty result means the basket is valid for those
// groups.
func Validate(b *Basket, groups ...string) []Violation {
	var violations []Violation
	for _, group := range groups {
		switch group {
		case GroupElements:
			violations = append(violations, validateElements(b)...)
		case GroupDelivery:
			violations = append(violations, validateDelivery(b)...)
		case GroupPayment:
			violations = append(violations, validatePayment(b)...)
		}
	}
	return violations
}

func validateElements(b *Basket) []Violation {
	var violations []Violation
	if len(b.Elements) == 0 {
		violations = append(violations, Violation{
			PropertyPath: "elements",
			Message:      "basket is empty",
		})
	}
	for _, e := range b.Elements {
		if e.ProductID == "" {
			violations = append(violations, Violation{
				PropertyPath: fmt.Sprintf("elements[%d].product_id", e.Pos),
				Message:      "product is required",
			})
		}
		if e.Quantity <= 0 {
			violations = append(violations, Violation{
				PropertyPath: fmt.Sprintf("elements[%d].quantity", e.Pos),
				Message:      "quantity must be greater than 0",
			})
		}
	}
	return violations
}

func validateDelivery(b *Basket) []Violation {
	var violations []Violation
	if b.Customer == nil {
		violations = append(violations, Violation{
			PropertyPath: "customer",
			Message:      "customer is required",
		})
	}
	if b.DeliveryAddress == nil {
		violations = append(violations, Violation{
			PropertyPath: "delivery_address",
			Message:      "delivery address is required",
		})
	}
	if b.DeliveryMethod == "" {
		violations = append(violations, Violation{
			PropertyPath: "delivery_method",
			Message:      "delivery method is required",
		})
	}
	return violations
}

func validatePayment(b *Basket) []Violation {
	var violations []Violation
	if b.PaymentAddress == nil {
		violations = append(violations, Violation{
			PropertyPath: "payment_address",
			Message:      "payment address is required",
		})
	}
	if b.PaymentMethod == "" {
		violations = append(violations, Violation{
			PropertyPath: "payment_method",
			Message:      "payment method is required",
		})
	}
	return violations
}
