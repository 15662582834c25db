package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// GatewayAck is the body returned to payment gateway callbacks. Gateways
// expect a bare acknowledgement rather than the standard envelope.
type GatewayAck struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
