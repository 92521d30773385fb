package channel

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// OptionPair is one option name/value of a variant (e.g. "size" / "11").
type OptionPair struct {
	Name  string
	Value string
}

// Variant is one live option row of a channel product.
type Variant struct {
	Code             string
	Options          []OptionPair
	AdditionalAmount decimal.Decimal
}

// OptionLabel rewrites the human-readable label of one option value.
type OptionLabel struct {
	OptionName string
	Value      string
	Label      string
}

// PushAck is the channel's answer to a price write.
type PushAck struct {
	HTTPStatus int
	// Pending means the channel accepted the write for asynchronous apply;
	// verification polling is skipped and the push counts as success
	Pending         bool
	RequestPayload  string
	ResponsePayload string
}

// Gateway is the external channel's price API as this system consumes it.
// Implementations own authentication, including the single refresh-and-retry
// on 401.
type Gateway interface {
	// GetBasePrice reads a product's current base sale price
	GetBasePrice(ctx context.Context, productNo string) (decimal.Decimal, error)

	// UpdateBasePrice writes a product's base sale price
	UpdateBasePrice(ctx context.Context, productNo string, price decimal.Decimal) (*PushAck, error)

	// GetVariantPrice reads the effective price of one variant
	GetVariantPrice(ctx context.Context, productNo, variantCode string) (decimal.Decimal, error)

	// UpdateVariantAmount writes a variant's additional amount over the base
	UpdateVariantAmount(ctx context.Context, productNo, variantCode string, additional decimal.Decimal) (*PushAck, error)

	// ListVariants enumerates the product's live option rows; an empty list
	// means the product is not option-bearing
	ListVariants(ctx context.Context, productNo string) ([]Variant, error)

	// UpdateOptionLabels rewrites option-value display labels
	UpdateOptionLabels(ctx context.Context, productNo string, labels []OptionLabel) (*PushAck, error)
}

// GatewayError carries the HTTP status and the channel's own error code so
// the orchestrator can classify platform quirks.
type GatewayError struct {
	HTTPStatus int
	Code       string
	Message    string
	Raw        string
}

// Error implements the error interface
func (e *GatewayError) Error() string {
	return fmt.Sprintf("channel: %d %s - %s", e.HTTPStatus, e.Code, e.Message)
}
