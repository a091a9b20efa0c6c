package pricing

import "github.com/shopspring/decimal"

// Allocate splits total across weights in cents. Shares are proportional,
// never negative for a non-negative total, and sum exactly to total: each
// share is the rounded cumulative target minus what was already handed out,
// and the last weighted entry takes the remainder. When every weight is zero
// all shares are zero.
func Allocate(total decimal.Decimal, weights []decimal.Decimal) []decimal.Decimal {
	shares := make([]decimal.Decimal, len(weights))
	sum := decimal.Zero
	last := -1
	for i, w := range weights {
		shares[i] = decimal.Zero
		if w.IsPositive() {
			sum = sum.Add(w)
			last = i
		}
	}
	if last < 0 || total.IsZero() {
		return shares
	}

	cumulative := decimal.Zero
	allocated := decimal.Zero
	for i, w := range weights {
		if !w.IsPositive() {
			continue
		}
		cumulative = cumulative.Add(w)
		target := total
		if i != last {
			target = Round2(total.Mul(cumulative).Div(sum))
		}
		shares[i] = target.Sub(allocated)
		allocated = target
	}
	return shares
}
