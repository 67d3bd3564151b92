package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type GenerateRequest struct {
	SchoolID           snowflake.ID
	GuardianID         snowflake.ID
	AcademicTermID     snowflake.ID
	GeneratedBy        snowflake.ID
	DiscountPercentage float64
	PaymentPlan        PaymentPlan
}

type ListRequest struct {
	SchoolID       snowflake.ID
	GuardianID     *snowflake.ID
	AcademicTermID *snowflake.ID
	Status         *InvoiceStatus
}

type Service interface {
	// Generate resolves fees for every active child of the guardian and
	// persists the invoice with its line items atomically. A second call
	// for the same (guardian, term) fails with InvoiceAlreadyExistsError.
	Generate(ctx context.Context, req GenerateRequest) (*GuardianInvoice, error)
	Get(ctx context.Context, schoolID, invoiceID snowflake.ID) (*GuardianInvoice, []InvoiceLineItem, error)
	List(ctx context.Context, req ListRequest) ([]GuardianInvoice, error)
	// Delete is the explicit administrative removal that unblocks
	// regeneration. It refuses when payments were recorded.
	Delete(ctx context.Context, schoolID, invoiceID, deletedBy snowflake.ID) error
}
