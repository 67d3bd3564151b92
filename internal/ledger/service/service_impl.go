package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/elimisoft/shulefees/internal/clock"
	invoicedomain "github.com/elimisoft/shulefees/internal/invoice/domain"
	ledgerdomain "github.com/elimisoft/shulefees/internal/ledger/domain"
	obsmetrics "github.com/elimisoft/shulefees/internal/observability/metrics"
	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) ledgerdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("ledger.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) RecordPayment(ctx context.Context, req ledgerdomain.RecordPaymentRequest) (*ledgerdomain.GuardianPayment, *invoicedomain.GuardianInvoice, error) {
	if req.SchoolID == 0 || req.InvoiceID == 0 || req.RecordedBy == 0 {
		return nil, nil, &ledgerdomain.InvalidPaymentError{Reason: "missing required identifiers"}
	}
	if req.Amount <= 0 {
		return nil, nil, &ledgerdomain.InvalidPaymentError{Reason: "amount must be positive"}
	}
	if !req.Method.Valid() {
		return nil, nil, &ledgerdomain.InvalidPaymentError{Reason: fmt.Sprintf("unknown payment method %q", req.Method)}
	}

	now := s.clock.Now()
	paidAt := now
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
	}

	var (
		payment *ledgerdomain.GuardianPayment
		invoice *invoicedomain.GuardianInvoice
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := s.lockInvoice(ctx, tx, req.SchoolID, req.InvoiceID)
		if err != nil {
			return err
		}

		payment = &ledgerdomain.GuardianPayment{
			ID:            s.genID.Generate(),
			SchoolID:      req.SchoolID,
			InvoiceID:     req.InvoiceID,
			Amount:        req.Amount,
			Method:        req.Method,
			ReceiptNumber: uuid.NewString(),
			Reference:     req.Reference,
			Notes:         req.Notes,
			RecordedBy:    req.RecordedBy,
			PaidAt:        paidAt,
			CreatedAt:     now,
		}
		if err := tx.WithContext(ctx).Create(payment).Error; err != nil {
			return err
		}

		invoice, err = s.recomputeInvoice(ctx, tx, inv, now)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordPayment()
	}
	s.log.Info("payment recorded",
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("receipt_number", payment.ReceiptNumber),
		zap.Int64("amount", payment.Amount),
		zap.Int64("balance_due", invoice.BalanceDue),
		zap.String("status", string(invoice.Status)),
	)
	return payment, invoice, nil
}

func (s *Service) VoidPayment(ctx context.Context, schoolID, paymentID, voidedBy snowflake.ID) (*invoicedomain.GuardianInvoice, error) {
	now := s.clock.Now()

	var invoice *invoicedomain.GuardianInvoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var payment ledgerdomain.GuardianPayment
		err := tx.WithContext(ctx).
			Where("id = ? AND school_id = ?", paymentID, schoolID).
			First(&payment).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ledgerdomain.ErrPaymentNotFound
			}
			return err
		}
		if payment.Voided() {
			return ledgerdomain.ErrPaymentVoided
		}

		inv, err := s.lockInvoice(ctx, tx, schoolID, payment.InvoiceID)
		if err != nil {
			return err
		}

		err = tx.WithContext(ctx).
			Model(&ledgerdomain.GuardianPayment{}).
			Where("id = ?", paymentID).
			Updates(map[string]interface{}{
				"voided_at": now,
				"voided_by": voidedBy,
			}).Error
		if err != nil {
			return err
		}

		invoice, err = s.recomputeInvoice(ctx, tx, inv, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordPaymentVoided()
	}
	s.log.Info("payment voided",
		zap.String("payment_id", paymentID.String()),
		zap.String("voided_by", voidedBy.String()),
		zap.Int64("balance_due", invoice.BalanceDue),
	)
	return invoice, nil
}

func (s *Service) ListPayments(ctx context.Context, schoolID, invoiceID snowflake.ID) ([]ledgerdomain.GuardianPayment, error) {
	var payments []ledgerdomain.GuardianPayment
	err := s.db.WithContext(ctx).
		Where("school_id = ? AND invoice_id = ?", schoolID, invoiceID).
		Order("paid_at, id").
		Find(&payments).Error
	return payments, err
}

func (s *Service) MarkOverdue(ctx context.Context, now time.Time) (int, error) {
	result := s.db.WithContext(ctx).
		Model(&invoicedomain.GuardianInvoice{}).
		Where("status IN ? AND due_date < ?", []invoicedomain.InvoiceStatus{
			invoicedomain.StatusPending,
			invoicedomain.StatusPartial,
		}, now).
		Updates(map[string]interface{}{
			"status":     invoicedomain.StatusOverdue,
			"updated_at": now,
		})
	if result.Error != nil {
		return 0, result.Error
	}

	marked := int(result.RowsAffected)
	if marked > 0 {
		if s.obsMetrics != nil {
			s.obsMetrics.RecordOverdue(marked)
		}
		s.log.Info("invoices marked overdue", zap.Int("count", marked))
	}
	return marked, nil
}

// lockInvoice takes a row lock on the invoice and returns it. Payments and
// voids against the same invoice serialize here.
func (s *Service) lockInvoice(ctx context.Context, tx *gorm.DB, schoolID, invoiceID snowflake.ID) (*invoicedomain.GuardianInvoice, error) {
	query := `SELECT id FROM guardian_invoices WHERE id = ? AND school_id = ?`
	if tx.Dialector.Name() != "sqlite" {
		query += " FOR UPDATE"
	}

	var id snowflake.ID
	if err := tx.WithContext(ctx).Raw(query, invoiceID, schoolID).Scan(&id).Error; err != nil {
		return nil, err
	}
	if id == 0 {
		return nil, invoicedomain.ErrInvoiceNotFound
	}

	var invoice invoicedomain.GuardianInvoice
	if err := tx.WithContext(ctx).Where("id = ?", invoiceID).First(&invoice).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

// recomputeInvoice rebuilds amount_paid from the non-voided payment sum so
// the balance never drifts from the ledger, then re-derives the status.
func (s *Service) recomputeInvoice(ctx context.Context, tx *gorm.DB, invoice *invoicedomain.GuardianInvoice, now time.Time) (*invoicedomain.GuardianInvoice, error) {
	var paid int64
	err := tx.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(amount), 0)
		 FROM guardian_payments
		 WHERE invoice_id = ? AND voided_at IS NULL`,
		invoice.ID,
	).Scan(&paid).Error
	if err != nil {
		return nil, err
	}

	invoice.AmountPaid = paid
	invoice.BalanceDue = invoice.TotalAmount - paid
	invoice.Status = invoicedomain.ComputeStatus(invoice.TotalAmount, paid, invoice.DueDate, now)
	invoice.UpdatedAt = now

	err = tx.WithContext(ctx).
		Model(&invoicedomain.GuardianInvoice{}).
		Where("id = ?", invoice.ID).
		Updates(map[string]interface{}{
			"amount_paid": invoice.AmountPaid,
			"balance_due": invoice.BalanceDue,
			"status":      invoice.Status,
			"updated_at":  invoice.UpdatedAt,
		}).Error
	if err != nil {
		return nil, err
	}
	return invoice, nil
}
