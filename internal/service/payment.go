package service

import (
	"fmt"

	"github.com/lalith-99/questboard/internal/models"
)

// PaymentPolicy decides which payment methods count as confirmed without
// the employer's explicit confirmation when a completion is reviewed.
type PaymentPolicy struct {
	autoConfirm map[models.PaymentMethod]bool
}

// NewPaymentPolicy builds a policy from configured method names. Unknown
// names are rejected so a typo in configuration fails at startup.
func NewPaymentPolicy(methods []string) (PaymentPolicy, error) {
	p := PaymentPolicy{autoConfirm: make(map[models.PaymentMethod]bool, len(methods))}
	for _, raw := range methods {
		m := models.PaymentMethod(raw)
		if !m.Valid() {
			return PaymentPolicy{}, fmt.Errorf("unknown payment method %q", raw)
		}
		p.autoConfirm[m] = true
	}
	return p, nil
}

// AutoConfirms reports whether payments made with m are treated as
// confirmed.
func (p PaymentPolicy) AutoConfirms(m models.PaymentMethod) bool {
	return p.autoConfirm[m]
}
