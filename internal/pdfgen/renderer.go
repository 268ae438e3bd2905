// Package pdfgen renders a fallback invoice PDF when the accounting
// platform does not expose one, and uploads it to object storage so the
// email service has a durable link to attach.
package pdfgen

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf/v2"

	"billing-backend/internal/models"
)

// Render produces a simple invoice PDF from the synced invoice and its
// submitted lines.
func Render(invoice *models.SyncedInvoice, customer *models.AccountingCustomer, lines []models.OutputLine) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	// Header
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, fmt.Sprintf("Invoice %s", invoice.DocumentNumber), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, fmt.Sprintf("Generated: %s", time.Now().Format("02-Jan-2006 03:04 PM")), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	// Customer Info Box
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Billed To", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 11)
	name := ""
	if customer != nil {
		name = customer.Name
	}
	pdf.CellFormat(95, 7, fmt.Sprintf("Customer: %s", name), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Due: %s", invoice.DueDate), "RB", 1, "L", false, 0, "")
	pdf.Ln(5)

	// Line items
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Line Items", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(100, 7, "Description", "1", 0, "L", true, 0, "")
	pdf.CellFormat(25, 7, "Qty", "1", 0, "R", true, 0, "")
	pdf.CellFormat(30, 7, "Unit", "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 7, "Amount", "1", 1, "R", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, line := range lines {
		qty, unit := "", ""
		if line.Item != nil {
			if line.Item.Quantity != nil {
				qty = fmt.Sprintf("%.2f", *line.Item.Quantity)
			}
			if line.Item.UnitAmount != nil {
				unit = fmt.Sprintf("%.2f", *line.Item.UnitAmount)
			}
		}
		pdf.CellFormat(100, 7, line.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 7, qty, "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 7, unit, "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, fmt.Sprintf("%.2f", line.TotalAmount), "1", 1, "R", false, 0, "")
	}

	pdf.Ln(5)
	pdf.SetFont("Arial", "B", 12)
	if invoice.TotalAmount != nil {
		pdf.CellFormat(190, 8, fmt.Sprintf("Total: %s %.2f", invoice.CurrencyCode, *invoice.TotalAmount), "", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice pdf: %w", err)
	}
	return buf.Bytes(), nil
}
