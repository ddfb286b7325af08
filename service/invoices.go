package service

import (
	"context"

	"github.com/nickyhof/BotDesk/core"
)

const (
	InvoicePending = "pending"
	InvoicePaid    = "paid"
)

type Invoices struct {
	crud[core.Invoice]
}

func (s *Invoices) GetAll(ctx context.Context, userID string) ([]core.Invoice, error) {
	return s.where(ctx, "user_id", userID)
}

func (s *Invoices) Create(ctx context.Context, invoice core.Invoice) (*core.Invoice, error) {
	if err := required("invoice", "userId", invoice.UserID); err != nil {
		return nil, err
	}
	if invoice.Amount < 0 {
		return nil, invalid("invoice amount must not be negative")
	}
	if invoice.Currency == "" {
		invoice.Currency = "USD"
	}
	if invoice.Status == "" {
		invoice.Status = InvoicePending
	}
	return s.insert(ctx, &invoice)
}

func (s *Invoices) MarkPaid(ctx context.Context, id string) (*core.Invoice, error) {
	return s.Update(ctx, id, map[string]any{
		"status":  InvoicePaid,
		"paid_at": s.facade.now(),
	})
}
