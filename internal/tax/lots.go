package tax

import (
	"time"

	"github.com/shopspring/decimal"
)

// Lot is one acquisition of a token: the amount still held from it and
// the cost basis attributable to that remainder.
type Lot struct {
	Amount     decimal.Decimal
	CostBasis  decimal.Decimal
	AcquiredAt time.Time
}

// lotBook holds one FIFO queue of lots per token address.
type lotBook struct {
	queues map[string][]*Lot
}

func newLotBook() *lotBook {
	return &lotBook{queues: make(map[string][]*Lot)}
}

// push appends a new lot to the back of the token's queue.
func (b *lotBook) push(tokenAddr string, lot *Lot) {
	b.queues[tokenAddr] = append(b.queues[tokenAddr], lot)
}

// consumption is the result of covering a disposal from the queue.
type consumption struct {
	costBasis decimal.Decimal
	// uncovered is the disposed amount left after the queue emptied.
	// It carries zero cost basis.
	uncovered decimal.Decimal
}

// consume covers a disposal of amount from the front of the token's
// queue. Lots smaller than the remaining amount are consumed whole; the
// last lot touched is split proportionally, shrinking its amount and
// cost basis by the consumed fraction.
func (b *lotBook) consume(tokenAddr string, amount decimal.Decimal) consumption {
	var c consumption
	remaining := amount
	queue := b.queues[tokenAddr]

	for len(queue) > 0 && remaining.IsPositive() {
		lot := queue[0]
		if lot.Amount.LessThanOrEqual(remaining) {
			c.costBasis = c.costBasis.Add(lot.CostBasis)
			remaining = remaining.Sub(lot.Amount)
			queue = queue[1:]
			continue
		}

		fraction := remaining.Div(lot.Amount)
		consumedBasis := lot.CostBasis.Mul(fraction)
		c.costBasis = c.costBasis.Add(consumedBasis)
		lot.CostBasis = lot.CostBasis.Sub(consumedBasis)
		lot.Amount = lot.Amount.Sub(remaining)
		remaining = decimal.Zero
	}

	b.queues[tokenAddr] = queue
	c.uncovered = remaining
	return c
}

// oldest returns the oldest remaining lot for the token, or nil when
// the queue is empty.
func (b *lotBook) oldest(tokenAddr string) *Lot {
	queue := b.queues[tokenAddr]
	if len(queue) == 0 {
		return nil
	}
	return queue[0]
}
