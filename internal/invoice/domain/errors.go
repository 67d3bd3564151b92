package domain

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrInvoiceNotFound = errors.New("invoice_not_found")
	ErrInvalidRequest  = errors.New("invalid_invoice_request")
	ErrHasPayments     = errors.New("invoice_has_payments")
)

// InvoiceAlreadyExistsError reports generation against a (guardian, term)
// pair that already has an invoice. Regeneration requires an explicit
// delete first.
type InvoiceAlreadyExistsError struct {
	GuardianID     snowflake.ID
	AcademicTermID snowflake.ID
}

func (e *InvoiceAlreadyExistsError) Error() string {
	return fmt.Sprintf("invoice already exists for guardian %s in term %s", e.GuardianID, e.AcademicTermID)
}

// ConcurrencyConflictError reports a lost race that exhausted its retries,
// e.g. on invoice-number allocation.
type ConcurrencyConflictError struct {
	Resource string
}

func (e *ConcurrencyConflictError) Error() string {
	return fmt.Sprintf("concurrent update conflict on %s", e.Resource)
}
