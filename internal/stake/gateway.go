// Package stake verifies ranked-mode entry stakes and issues payouts against
// an external ledger. The orchestrator treats it as an async collaborator:
// Verify may block (bounded), Payout is fire-and-forget.
package stake

import (
	"context"
	"errors"
)

// Standard amounts in lamports.
const (
	EntryFeeLamports = 100_000_000 // 0.1 SOL
	PayoutLamports   = 180_000_000 // 0.18 SOL, house keeps the difference
)

// ErrDisabled is returned by the Disabled gateway.
var ErrDisabled = errors.New("stake gateway disabled")

// Gateway is the external stake-verification contract.
//
// Verify may block and retry internally, but must eventually return; callers
// additionally cap the total wait with ctx. Payout failure is logged by the
// caller and never retried automatically.
type Gateway interface {
	Verify(ctx context.Context, signature, payer string) (bool, error)
	Payout(ctx context.Context, destination string, lamports uint64) (string, error)
}

// Disabled rejects every ranked attempt. Used when no ledger is configured so
// casual play keeps working.
type Disabled struct{}

func (Disabled) Verify(context.Context, string, string) (bool, error) {
	return false, ErrDisabled
}

func (Disabled) Payout(context.Context, string, uint64) (string, error) {
	return "", ErrDisabled
}
