package payment

import "context"

// Gateway is the pipeline's view of the payment provider: create a
// remote order for an amount, and later verify that a callback really
// came from the provider.
type Gateway interface {
	CreateIntent(ctx context.Context, amountPaise int64, currency, receipt string) (string, error)

	// VerifyCallback recomputes the signature over orderRef|paymentRef
	// and compares. Missing fields or a mismatch are a failed
	// verification, never a pass.
	VerifyCallback(orderRef, paymentRef, signature string) bool
}
