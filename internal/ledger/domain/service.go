package domain

import (
	"context"
	"time"

	invoicedomain "github.com/elimisoft/shulefees/internal/invoice/domain"
	"github.com/bwmarrin/snowflake"
)

type RecordPaymentRequest struct {
	SchoolID   snowflake.ID
	InvoiceID  snowflake.ID
	Amount     int64
	Method     PaymentMethod
	Reference  string
	Notes      string
	RecordedBy snowflake.ID
	PaidAt     *time.Time
}

type Service interface {
	// RecordPayment appends a payment, recomputes the invoice balance from
	// the non-voided payment sum and re-derives its status, all in one
	// transaction. Overpayment is allowed and leaves the invoice paid.
	RecordPayment(ctx context.Context, req RecordPaymentRequest) (*GuardianPayment, *invoicedomain.GuardianInvoice, error)
	// VoidPayment marks the payment void and recomputes the invoice the
	// same way RecordPayment does.
	VoidPayment(ctx context.Context, schoolID, paymentID, voidedBy snowflake.ID) (*invoicedomain.GuardianInvoice, error)
	ListPayments(ctx context.Context, schoolID, invoiceID snowflake.ID) ([]GuardianPayment, error)
	// MarkOverdue flips every unpaid invoice past its due date to overdue
	// and returns how many changed. The scheduler calls this periodically.
	MarkOverdue(ctx context.Context, now time.Time) (int, error)
}
