package lineitems

import (
	"math"
	"strconv"
	"strings"

	"billing-backend/internal/models"
)

// keySeparator joins the parts of a group key. It never occurs in item ids.
const keySeparator = "||"

// NormalizedLine is a raw invoice line after adjustment-override
// resolution, carrying the composite identity key used for grouping.
type NormalizedLine struct {
	GroupKey     string
	ItemID       *string
	ProductID    string
	DepartmentID *string
	Description  string
	Quantity     *float64
	UnitAmount   *float64
	TotalAmount  float64
}

// Normalize computes the effective quantity, unit amount and total for one
// raw line. When adjustments exist the most recently created one overwrites
// all three values. It never fails: a missing numeric stays nil and a
// malformed one becomes NaN, both of which propagate into the output.
func Normalize(line models.LineItem, usePlatformValues bool) NormalizedLine {
	quantity := copyFloat(line.Quantity)
	unitAmount := parseDecimal(line.UnitAmount)
	totalAmount := parseDecimalOrZero(line.TotalAmount)

	if adj := latestAdjustment(line.Adjustments); adj != nil {
		quantity = copyFloat(adj.Quantity)
		unitAmount = parseDecimal(adj.UnitPrice)
		totalAmount = parseDecimalOrNaN(adj.TotalAmount)
	}

	itemID := resolveItemID(line.Product, usePlatformValues)

	return NormalizedLine{
		GroupKey:     buildGroupKey(itemID, line.Description, line.DepartmentID),
		ItemID:       itemID,
		ProductID:    derefString(line.ProductID),
		DepartmentID: line.DepartmentID,
		Description:  line.Description,
		Quantity:     quantity,
		UnitAmount:   unitAmount,
		TotalAmount:  totalAmount,
	}
}

// latestAdjustment selects the adjustment with the greatest CreatedAt using
// a strict comparison, so the first of equal timestamps wins.
func latestAdjustment(adjustments []models.Adjustment) *models.Adjustment {
	if len(adjustments) == 0 {
		return nil
	}
	latest := &adjustments[0]
	for i := 1; i < len(adjustments); i++ {
		if adjustments[i].CreatedAt.After(latest.CreatedAt) {
			latest = &adjustments[i]
		}
	}
	return latest
}

// resolveItemID picks the external item id from the line's linked product:
// the platform id when the organization uses platform values, the provider
// entity id otherwise. Nil when no product or accounting item is linked.
func resolveItemID(product *models.Product, usePlatformValues bool) *string {
	if product == nil || product.Item == nil {
		return nil
	}
	if usePlatformValues {
		return product.Item.PlatformID
	}
	return product.Item.ProviderEntityID
}

func buildGroupKey(itemID *string, description string, departmentID *string) string {
	var b strings.Builder
	b.WriteString(derefString(itemID))
	b.WriteString(keySeparator)
	b.WriteString(description)
	b.WriteString(keySeparator)
	b.WriteString(derefString(departmentID))
	return b.String()
}

// parseDecimal parses a nullable decimal column. Nil stays nil; a value
// that does not parse becomes NaN rather than an error.
func parseDecimal(s *string) *float64 {
	if s == nil {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(*s), 64)
	if err != nil {
		v = math.NaN()
	}
	return &v
}

func parseDecimalOrZero(s *string) float64 {
	if p := parseDecimal(s); p != nil {
		return *p
	}
	return 0
}

func parseDecimalOrNaN(s *string) float64 {
	if p := parseDecimal(s); p != nil {
		return *p
	}
	return math.NaN()
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
