package services

import (
	"fmt"
	"log"

	razorpay "github.com/razorpay/razorpay-go"

	"billing-backend/internal/config"
	"billing-backend/internal/models"
)

// PaymentLinkService creates hosted payment links through Razorpay for
// invoices on platforms that do not expose one of their own.
type PaymentLinkService struct {
	client *razorpay.Client
}

func NewPaymentLinkService(cfg *config.Config) *PaymentLinkService {
	if cfg.Razorpay.KeyID == "" || cfg.Razorpay.KeySecret == "" {
		log.Printf("[Razorpay] credentials not configured, payment links disabled")
		return &PaymentLinkService{}
	}
	return &PaymentLinkService{client: razorpay.NewClient(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret)}
}

// Enabled reports whether link creation is configured.
func (s *PaymentLinkService) Enabled() bool {
	return s.client != nil
}

// CreateLink creates a payment link for the invoice amount and returns its
// short URL.
func (s *PaymentLinkService) CreateLink(invoice *models.SyncedInvoice, customer *models.AccountingCustomer) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("payment links are not configured")
	}
	if invoice.TotalAmount == nil {
		return "", fmt.Errorf("invoice %s has no total amount", invoice.ID)
	}

	currency := invoice.CurrencyCode
	if currency == "" {
		currency = "USD"
	}

	data := map[string]any{
		// Razorpay amounts are in the currency's smallest unit.
		"amount":       int(*invoice.TotalAmount * 100),
		"currency":     currency,
		"description":  fmt.Sprintf("Invoice %s", invoice.DocumentNumber),
		"reference_id": invoice.ID,
		"customer": map[string]any{
			"name":  customer.Name,
			"email": customer.Email,
		},
		"notify": map[string]any{
			"email": false,
		},
	}

	link, err := s.client.PaymentLink.Create(data, nil)
	if err != nil {
		return "", fmt.Errorf("create payment link: %w", err)
	}

	shortURL, _ := link["short_url"].(string)
	if shortURL == "" {
		return "", fmt.Errorf("payment link response missing short_url")
	}
	return shortURL, nil
}
