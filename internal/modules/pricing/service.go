// Pricing service computes net-earnings quotes.
package pricing

import (
	"context"

	"drover/internal/types"
)

type Service struct{}

func NewService() *Service {
	return &Service{}
}

// Quote breaks a bid amount into gross, commission and net. Commission
// is rounded half-up to a cent; net absorbs the remainder so the parts
// always sum to gross.
func (s *Service) Quote(ctx context.Context, amountCents int64) (Quote, error) {
	if amountCents < 0 {
		amountCents = 0
	}
	commission := (amountCents*PlatformCommissionBps + 5000) / 10000
	return Quote{
		Gross:      types.Money{Amount: amountCents, Currency: Currency},
		Commission: types.Money{Amount: commission, Currency: Currency},
		Net:        types.Money{Amount: amountCents - commission, Currency: Currency},
	}, nil
}
