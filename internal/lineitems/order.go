package lineitems

import (
	"math"
	"sort"
	"strings"

	"billing-backend/internal/models"
)

// priceIncreasePrefix marks lines that are segregated behind the regular
// items and re-merged per item id, matched case-insensitively.
const priceIncreasePrefix = "price increase"

// Arrange produces the final submission order from the grouped lines:
// product buckets sorted by largest unit price first, price-increase lines
// pulled out and re-merged by item id, then comment lines built from raw
// productless lines, led by the purchase-order banner when one is set.
func Arrange(grouped *OrderedMap[*GroupedLine], invoice *models.Invoice) []models.OutputLine {
	flattened := sortByUnitAmount(grouped)

	var regular, priceIncrease []*GroupedLine
	for _, g := range flattened {
		if strings.HasPrefix(strings.ToLower(g.Description), priceIncreasePrefix) {
			priceIncrease = append(priceIncrease, g)
		} else {
			regular = append(regular, g)
		}
	}
	priceIncrease = mergePriceIncreases(priceIncrease)

	out := make([]models.OutputLine, 0, len(flattened)+len(invoice.LineItems)+1)
	for _, g := range regular {
		out = append(out, toOutputLine(g))
	}
	for _, g := range priceIncrease {
		out = append(out, toOutputLine(g))
	}
	return append(out, buildComments(invoice)...)
}

// sortByUnitAmount groups by product id into buckets, sorts each bucket
// descending by unit amount (a missing unit amount sorts last), orders the
// buckets by their first element's unit amount, and flattens. Multi-line
// product groups stay contiguous.
func sortByUnitAmount(grouped *OrderedMap[*GroupedLine]) []*GroupedLine {
	buckets := NewOrderedMap[[]*GroupedLine]()
	for _, g := range grouped.Values() {
		existing, _ := buckets.Get(g.ProductID)
		buckets.Set(g.ProductID, append(existing, g))
	}

	type sortedBucket struct {
		sortKey float64
		items   []*GroupedLine
	}

	sorted := make([]sortedBucket, 0, buckets.Len())
	for _, items := range buckets.Values() {
		sort.SliceStable(items, func(i, j int) bool {
			return unitAmountOf(items[i]) > unitAmountOf(items[j])
		})

		sortKey := 0.0
		if first := items[0]; first.Item != nil && first.Item.UnitAmount != nil {
			sortKey = *first.Item.UnitAmount
		}
		sorted = append(sorted, sortedBucket{sortKey: sortKey, items: items})
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].sortKey > sorted[j].sortKey
	})

	var flattened []*GroupedLine
	for _, b := range sorted {
		flattened = append(flattened, b.items...)
	}
	return flattened
}

// mergePriceIncreases re-merges price-increase lines by item id, summing
// total and unit amounts. This is independent of the group-key pass:
// distinct descriptions with the same item id collapse here. Entries
// without an item id pass out of the result entirely, matching the
// submission schema (a price increase always references an item).
func mergePriceIncreases(lines []*GroupedLine) []*GroupedLine {
	merged := NewOrderedMap[*GroupedLine]()

	for _, g := range lines {
		if g.Item == nil || g.Item.ID == "" {
			continue
		}
		existing, ok := merged.Get(g.Item.ID)
		if !ok {
			merged.Set(g.Item.ID, &GroupedLine{
				Item: &models.OutputItem{
					ID:         g.Item.ID,
					Quantity:   copyFloat(g.Item.Quantity),
					UnitAmount: copyFloat(g.Item.UnitAmount),
				},
				TotalAmount: g.TotalAmount,
				Description: g.Description,
				ProductID:   g.ProductID,
			})
			continue
		}
		existing.TotalAmount += g.TotalAmount
		existing.Item.UnitAmount = addNullable(existing.Item.UnitAmount, g.Item.UnitAmount)
	}

	return merged.Values()
}

// addNullable sums two optional amounts; a missing operand poisons the sum
// to NaN, preserving the pass-through behavior of the source data.
func addNullable(a, b *float64) *float64 {
	av, bv := math.NaN(), math.NaN()
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	sum := av + bv
	return &sum
}

// buildComments turns unsuppressed productless raw lines into zero-amount
// comment lines, prepending the purchase-order banner when the invoice
// carries a non-empty PO number.
func buildComments(invoice *models.Invoice) []models.OutputLine {
	var comments []models.OutputLine
	if po := strings.TrimSpace(invoice.PONumber); po != "" {
		comments = append(comments, models.OutputLine{TotalAmount: 0, Description: invoice.PONumber})
	}
	for _, li := range invoice.LineItems {
		if li.Suppressed || li.ProductID != nil {
			continue
		}
		comments = append(comments, models.OutputLine{TotalAmount: 0, Description: li.Description})
	}
	return comments
}

func unitAmountOf(g *GroupedLine) float64 {
	if g.Item == nil || g.Item.UnitAmount == nil {
		return math.Inf(-1)
	}
	return *g.Item.UnitAmount
}

func toOutputLine(g *GroupedLine) models.OutputLine {
	return models.OutputLine{
		Item:        g.Item,
		TotalAmount: g.TotalAmount,
		Description: g.Description,
	}
}
