// Package domain contains the payment ledger models. Payments are
// append-only; corrections happen by voiding, never by editing amounts.
package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
)

type PaymentMethod string

const (
	MethodCash        PaymentMethod = "cash"
	MethodMobileMoney PaymentMethod = "mobile_money"
	MethodBank        PaymentMethod = "bank"
	MethodCheque      PaymentMethod = "cheque"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodMobileMoney, MethodBank, MethodCheque:
		return true
	}
	return false
}

// GuardianPayment is one payment applied to a guardian invoice. A voided
// payment keeps its row but stops counting toward the invoice balance.
type GuardianPayment struct {
	ID            snowflake.ID  `gorm:"primaryKey"`
	SchoolID      snowflake.ID  `gorm:"not null;index"`
	InvoiceID     snowflake.ID  `gorm:"not null;index"`
	Amount        int64         `gorm:"not null"`
	Method        PaymentMethod `gorm:"type:text;not null"`
	ReceiptNumber string        `gorm:"type:text;not null;uniqueIndex"`
	Reference     string        `gorm:"type:text"`
	Notes         string        `gorm:"type:text"`
	RecordedBy    snowflake.ID  `gorm:"not null"`
	PaidAt        time.Time     `gorm:"not null"`
	VoidedAt      *time.Time    `gorm:"index"`
	VoidedBy      *snowflake.ID
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (GuardianPayment) TableName() string { return "guardian_payments" }

func (p *GuardianPayment) Voided() bool { return p.VoidedAt != nil }

var (
	ErrPaymentNotFound = errors.New("payment_not_found")
	ErrPaymentVoided   = errors.New("payment_already_voided")
)

// InvalidPaymentError reports a payment that fails validation before any
// row is written.
type InvalidPaymentError struct {
	Reason string
}

func (e *InvalidPaymentError) Error() string {
	return fmt.Sprintf("invalid payment: %s", e.Reason)
}
