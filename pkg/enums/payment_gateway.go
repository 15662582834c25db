package enums

import "fmt"

// PaymentGateway identifies which provider minted and signs a callback.
type PaymentGateway string

const (
	PaymentGatewayIPaymu   PaymentGateway = "ipaymu"
	PaymentGatewayMidtrans PaymentGateway = "midtrans"
)

var validPaymentGateways = []PaymentGateway{
	PaymentGatewayIPaymu,
	PaymentGatewayMidtrans,
}

// String implements fmt.Stringer.
func (g PaymentGateway) String() string {
	return string(g)
}

// IsValid reports whether the value is a known gateway.
func (g PaymentGateway) IsValid() bool {
	for _, candidate := range validPaymentGateways {
		if candidate == g {
			return true
		}
	}
	return false
}

// ParsePaymentGateway converts raw input into a PaymentGateway.
func ParsePaymentGateway(value string) (PaymentGateway, error) {
	for _, candidate := range validPaymentGateways {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment gateway %q", value)
}
