package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"billing-backend/internal/models"
)

type InvoiceRepository struct {
	DB *pgxpool.Pool
}

func NewInvoiceRepository(db *pgxpool.Pool) *InvoiceRepository {
	return &InvoiceRepository{DB: db}
}

// GetForSync loads the invoice with everything a sync run needs: line
// items with their product and accounting item, adjustments, and the
// customer with its accounting record and addresses. Returns nil when the
// invoice does not exist.
func (r *InvoiceRepository) GetForSync(ctx context.Context, invoiceID string) (*models.Invoice, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT id, organization_id, customer_id, COALESCE(document_number, ''), COALESCE(po_number, ''),
                COALESCE(due_date, ''), COALESCE(issue_date, ''), period_start_date, period_end_date, payment_terms
         FROM invoices WHERE id=$1`, invoiceID)

	var inv models.Invoice
	err := row.Scan(&inv.ID, &inv.OrganizationID, &inv.CustomerID, &inv.DocumentNumber, &inv.PONumber,
		&inv.DueDate, &inv.IssueDate, &inv.PeriodStartDate, &inv.PeriodEndDate, &inv.PaymentTerms)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if inv.LineItems, err = r.lineItems(ctx, inv.ID); err != nil {
		return nil, err
	}
	if inv.Customer, err = r.customer(ctx, inv.CustomerID); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *InvoiceRepository) lineItems(ctx context.Context, invoiceID string) ([]models.LineItem, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT li.id, li.suppress_line_item, li.product_id, li.department_id, COALESCE(li.description, ''),
                li.comment_line_item, li.quantity, li.unit_amount::text, li.total_amount::text,
                p.id, p.name, i.id, i.platform_id, i.provider_entity_id
         FROM line_items li
         LEFT JOIN products p ON p.id = li.product_id
         LEFT JOIN accounting_items i ON i.product_id = p.id
         WHERE li.invoice_id=$1
         ORDER BY li.created_at, li.id`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.LineItem
	for rows.Next() {
		var li models.LineItem
		var productID, productName *string
		var itemID, itemPlatformID, itemProviderID *string
		err := rows.Scan(&li.ID, &li.Suppressed, &li.ProductID, &li.DepartmentID, &li.Description,
			&li.CommentLine, &li.Quantity, &li.UnitAmount, &li.TotalAmount,
			&productID, &productName, &itemID, &itemPlatformID, &itemProviderID)
		if err != nil {
			return nil, err
		}
		if productID != nil {
			li.Product = &models.Product{ID: *productID}
			if productName != nil {
				li.Product.Name = *productName
			}
			if itemID != nil {
				li.Product.Item = &models.AccountingItem{
					ID:               *itemID,
					PlatformID:       itemPlatformID,
					ProviderEntityID: itemProviderID,
				}
			}
		}
		items = append(items, li)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range items {
		if items[i].Adjustments, err = r.adjustments(ctx, items[i].ID); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (r *InvoiceRepository) adjustments(ctx context.Context, lineItemID string) ([]models.Adjustment, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, quantity, unit_price::text, total_amount::text, created_at
         FROM invoice_adjustment_line_items
         WHERE line_item_id=$1
         ORDER BY created_at, id`, lineItemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var adjustments []models.Adjustment
	for rows.Next() {
		var adj models.Adjustment
		if err := rows.Scan(&adj.ID, &adj.Quantity, &adj.UnitPrice, &adj.TotalAmount, &adj.CreatedAt); err != nil {
			return nil, err
		}
		adjustments = append(adjustments, adj)
	}
	return adjustments, rows.Err()
}

func (r *InvoiceRepository) customer(ctx context.Context, customerID string) (*models.Customer, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT c.id, c.name, ac.id, ac.name, COALESCE(ac.email, ''), COALESCE(ac.currency_code, ''),
                ac.platform_id, ac.provider_entity_id
         FROM customers c
         LEFT JOIN accounting_customers ac ON ac.customer_id = c.id
         WHERE c.id=$1`, customerID)

	var customer models.Customer
	var accID, accName *string
	var accEmail, accCurrency string
	var accPlatformID, accProviderID *string
	err := row.Scan(&customer.ID, &customer.Name, &accID, &accName, &accEmail, &accCurrency,
		&accPlatformID, &accProviderID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if accID != nil {
		acc := &models.AccountingCustomer{
			ID:               *accID,
			Email:            accEmail,
			CurrencyCode:     accCurrency,
			PlatformID:       accPlatformID,
			ProviderEntityID: accProviderID,
		}
		if accName != nil {
			acc.Name = *accName
		}
		if acc.Addresses, err = r.addresses(ctx, acc.ID); err != nil {
			return nil, err
		}
		customer.Accounting = acc
	}
	return &customer, nil
}

func (r *InvoiceRepository) addresses(ctx context.Context, accountingCustomerID string) ([]models.Address, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT type, address1, address2, city, country, postal_code, region
         FROM customer_addresses WHERE accounting_customer_id=$1
         ORDER BY id`, accountingCustomerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var addresses []models.Address
	for rows.Next() {
		var addr models.Address
		if err := rows.Scan(&addr.Type, &addr.Address1, &addr.Address2, &addr.City,
			&addr.Country, &addr.PostalCode, &addr.Region); err != nil {
			return nil, err
		}
		addresses = append(addresses, addr)
	}
	return addresses, rows.Err()
}
