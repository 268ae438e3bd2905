// Package lineitems reduces raw invoice line items into the canonical,
// deduplicated, ordered list submitted to accounting platforms. The
// pipeline is pure and single-pass: normalize adjustment overrides, merge
// by composite group key, then bucket, sort and segregate into the final
// submission order.
package lineitems

import "billing-backend/internal/models"

// Process runs the full pipeline for one invoice. Suppressed lines never
// appear in the output; productless lines skip normalization and surface
// only as zero-amount comments.
func Process(invoice *models.Invoice, usePlatformValues bool) []models.OutputLine {
	var normalized []NormalizedLine
	for _, li := range invoice.LineItems {
		if li.Suppressed || li.ProductID == nil {
			continue
		}
		normalized = append(normalized, Normalize(li, usePlatformValues))
	}

	return Arrange(Group(normalized), invoice)
}
