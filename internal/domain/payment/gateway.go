package payment

import "context"

// GatewaySession is the client-usable handle for one payment attempt:
// an opaque tracker token plus the gateway environment the SDK must target.
type GatewaySession struct {
	Token       string
	Environment string
}

// Gateway creates payment sessions with the external provider. Amounts are
// minor currency units.
type Gateway interface {
	CreateSession(ctx context.Context, amountMinor int64, currency, orderID string) (*GatewaySession, error)
}
