package payment

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-api/internal/domain/order"
)

var _ order.Gateway = (*Sandbox)(nil)

// Sandbox is the in-process gateway used when no provider URL is configured.
// It approves every charge except payment methods prefixed "declined", which
// lets local and integration tests drive both workflow outcomes.
type Sandbox struct{}

// NewSandbox creates a sandbox gateway.
func NewSandbox() *Sandbox {
	return &Sandbox{}
}

// Charge approves or declines deterministically based on the method name.
func (s *Sandbox) Charge(_ context.Context, method string, _ decimal.Decimal) (*order.ChargeResult, error) {
	if strings.HasPrefix(method, "declined") {
		return &order.ChargeResult{Approved: false, Code: "card_declined"}, nil
	}
	return &order.ChargeResult{
		Approved:  true,
		Reference: "sandbox_" + uuid.New().String(),
	}, nil
}
