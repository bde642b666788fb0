// Earnings quote shown to the driver before confirming a bid.
package pricing

import "drover/internal/types"

// PlatformCommissionBps is the platform's cut in basis points (15%).
// Display only; the bid state machine never looks at it.
const PlatformCommissionBps int64 = 1500

const Currency = "USD"

type Quote struct {
	Gross      types.Money
	Commission types.Money
	Net        types.Money
}
