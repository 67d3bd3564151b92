// Package domain contains persistence models and arithmetic for guardian
// invoices. An invoice is immutable once created except for payment-driven
// fields and status.
package domain

import (
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// PaymentPlan determines the due-date offset of an invoice.
type PaymentPlan string

const (
	PlanFull     PaymentPlan = "full"
	PlanHalfHalf PaymentPlan = "half_half"
	PlanMonthly  PaymentPlan = "monthly"
)

func (p PaymentPlan) Valid() bool {
	switch p {
	case PlanFull, PlanHalfHalf, PlanMonthly:
		return true
	}
	return false
}

// DueOffset is the time from generation until the invoice falls due.
func (p PaymentPlan) DueOffset() time.Duration {
	switch p {
	case PlanHalfHalf:
		return 60 * 24 * time.Hour
	case PlanMonthly:
		return 90 * 24 * time.Hour
	default:
		return 30 * 24 * time.Hour
	}
}

// InvoiceStatus represents invoice lifecycle states.
type InvoiceStatus string

const (
	StatusPending InvoiceStatus = "pending"
	StatusPartial InvoiceStatus = "partial"
	StatusPaid    InvoiceStatus = "paid"
	StatusOverdue InvoiceStatus = "overdue"
)

// GuardianInvoice aggregates the resolved fees of all of a guardian's
// active children for one term. Exactly one exists per (guardian, term).
type GuardianInvoice struct {
	ID                 snowflake.ID  `gorm:"primaryKey"`
	SchoolID           snowflake.ID  `gorm:"not null;index;uniqueIndex:ux_guardian_invoice"`
	GuardianID         snowflake.ID  `gorm:"not null;uniqueIndex:ux_guardian_invoice"`
	AcademicTermID     snowflake.ID  `gorm:"not null;uniqueIndex:ux_guardian_invoice"`
	InvoiceNumber      string        `gorm:"type:text;not null;uniqueIndex"`
	Sequence           int           `gorm:"not null"`
	SubtotalAmount     int64         `gorm:"not null"`
	DiscountPercentage float64       `gorm:"not null;default:0"`
	DiscountAmount     int64         `gorm:"not null;default:0"`
	TotalAmount        int64         `gorm:"not null"`
	AmountPaid         int64         `gorm:"not null;default:0"`
	BalanceDue         int64         `gorm:"not null"`
	PaymentPlan        PaymentPlan   `gorm:"type:text;not null;default:'full'"`
	Status             InvoiceStatus `gorm:"type:text;not null;default:'pending'"`
	DueDate            time.Time     `gorm:"not null"`
	GeneratedBy        snowflake.ID  `gorm:"not null"`
	CreatedAt          time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt          time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (GuardianInvoice) TableName() string { return "guardian_invoices" }

// InvoiceLineItem is one student's fee breakdown within a guardian invoice.
// Student name and grade are denormalized at creation time and never updated,
// preserving historical fidelity.
type InvoiceLineItem struct {
	ID           snowflake.ID      `gorm:"primaryKey"`
	SchoolID     snowflake.ID      `gorm:"not null;index"`
	InvoiceID    snowflake.ID      `gorm:"not null;index"`
	StudentID    snowflake.ID      `gorm:"not null;index"`
	StudentName  string            `gorm:"type:text;not null"`
	GradeName    string            `gorm:"type:text;not null"`
	FeeBreakdown datatypes.JSONMap `gorm:"type:jsonb;not null"`
	TotalAmount  int64             `gorm:"not null"`
	CreatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (InvoiceLineItem) TableName() string { return "invoice_line_items" }

// InvoiceNumberPrefix renders the INV-{year}-T{term}- prefix shared by every
// invoice of one (year, term number) slot. Numbers are globally unique, so
// the sequence under one prefix is allocated across all schools.
func InvoiceNumberPrefix(year, termNumber int) string {
	return fmt.Sprintf("INV-%d-T%d-", year, termNumber)
}

// FormatInvoiceNumber renders INV-{year}-T{term}-{sequence} with a 4-digit
// zero-padded sequence.
func FormatInvoiceNumber(year, termNumber, sequence int) string {
	return fmt.Sprintf("%s%04d", InvoiceNumberPrefix(year, termNumber), sequence)
}

// ComputeDiscount rounds subtotal × pct / 100 half-up on minor units.
func ComputeDiscount(subtotal int64, percentage float64) int64 {
	if percentage == 0 || subtotal == 0 {
		return 0
	}
	return decimal.NewFromInt(subtotal).
		Mul(decimal.NewFromFloat(percentage)).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
}

// ComputeStatus derives the invoice status from its money fields. Overdue
// takes precedence over partial/pending once the due date passes.
func ComputeStatus(totalAmount, amountPaid int64, dueDate, now time.Time) InvoiceStatus {
	balance := totalAmount - amountPaid
	if balance <= 0 {
		return StatusPaid
	}
	if now.After(dueDate) {
		return StatusOverdue
	}
	if amountPaid > 0 {
		return StatusPartial
	}
	return StatusPending
}
