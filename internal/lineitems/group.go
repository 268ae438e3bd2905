package lineitems

import (
	"math"

	"billing-backend/internal/models"
)

// GroupedLine is one or more normalized lines merged under a shared group
// key. Item is nil for comment-shaped entries. ProductID is kept for the
// second-pass bucketing and dropped from the submitted payload.
type GroupedLine struct {
	Item        *models.OutputItem
	TotalAmount float64
	Description string
	ProductID   string
}

// Group merges normalized lines sharing a group key into accumulators,
// preserving first-occurrence order. Quantities are not summed: the last
// valid quantity wins. Unit amounts and totals are accumulated. NaN from a
// malformed source value is deliberately not guarded and flows into the
// sums; the submitted payload mirrors whatever the billing rows contained.
func Group(lines []NormalizedLine) *OrderedMap[*GroupedLine] {
	grouped := NewOrderedMap[*GroupedLine]()

	for _, line := range lines {
		existing, ok := grouped.Get(line.GroupKey)
		if !ok {
			g := &GroupedLine{
				TotalAmount: line.TotalAmount,
				Description: line.Description,
				ProductID:   line.ProductID,
			}
			// Lines lacking either amount seed a comment-shaped entry
			// even when product-linked.
			if line.Quantity != nil && line.UnitAmount != nil {
				g.Item = &models.OutputItem{
					ID:         derefString(line.ItemID),
					Quantity:   copyFloat(line.Quantity),
					UnitAmount: copyFloat(line.UnitAmount),
				}
			}
			grouped.Set(line.GroupKey, g)
			continue
		}

		if line.Quantity == nil || line.UnitAmount == nil {
			continue
		}

		incomingValid := !math.IsNaN(*line.Quantity)
		existingValid := existing.Item != nil && existing.Item.Quantity != nil &&
			!math.IsNaN(*existing.Item.Quantity)

		if incomingValid && !existingValid {
			if existing.Item == nil {
				existing.Item = &models.OutputItem{ID: derefString(line.ItemID)}
			}
			existing.Item.Quantity = copyFloat(line.Quantity)
		}

		if existing.Item != nil {
			sum := floatOrZero(existing.Item.UnitAmount) + *line.UnitAmount
			existing.Item.UnitAmount = &sum
			existing.TotalAmount += line.TotalAmount
		}
	}

	return grouped
}

func floatOrZero(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
